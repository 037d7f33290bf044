// Package selection implements the selection and direct-manipulation core:
// the selection model, tag reconciliation, hit-testing, click selection,
// point and marquee drags and keyboard nudging.
package selection

import (
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/glyphedit/glyphedit/internal/scene"
)

// Registry answers whether a handle still refers to a live entity.
type Registry interface {
	Alive(scene.Entity) bool
}

func entityComparator(a, b interface{}) int {
	x, y := a.(scene.Entity), b.(scene.Entity)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Model is the authoritative set of selected entities plus the
// multi-select modifier sampled from input every frame. Mutations that name
// a stale handle are ignored.
type Model struct {
	set   *treeset.Set
	multi bool
	reg   Registry
}

// NewModel creates an empty selection. A nil registry treats every handle
// as live.
func NewModel(reg Registry) *Model {
	return &Model{set: treeset.NewWith(entityComparator), reg: reg}
}

func (m *Model) alive(h scene.Entity) bool {
	if h == scene.None {
		return false
	}
	return m.reg == nil || m.reg.Alive(h)
}

// Add selects h.
func (m *Model) Add(h scene.Entity) {
	if m.alive(h) {
		m.set.Add(h)
	}
}

// Remove deselects h.
func (m *Model) Remove(h scene.Entity) {
	m.set.Remove(h)
}

// Toggle adds h if absent and removes it if present.
func (m *Model) Toggle(h scene.Entity) {
	if !m.alive(h) {
		return
	}
	if m.set.Contains(h) {
		m.set.Remove(h)
		return
	}
	m.set.Add(h)
}

// Set replaces the selection wholesale.
func (m *Model) Set(handles []scene.Entity) {
	m.set.Clear()
	for _, h := range handles {
		m.Add(h)
	}
}

func (m *Model) Clear() { m.set.Clear() }

// Contains reports whether h is selected.
func (m *Model) Contains(h scene.Entity) bool {
	return m.set.Contains(h)
}

func (m *Model) Len() int    { return m.set.Size() }
func (m *Model) Empty() bool { return m.set.Empty() }

// Handles returns the selection in ascending handle order.
func (m *Model) Handles() []scene.Entity {
	out := make([]scene.Entity, 0, m.set.Size())
	it := m.set.Iterator()
	for it.Next() {
		out = append(out, it.Value().(scene.Entity))
	}
	return out
}

// MultiSelect reports whether the multi-select modifier is held this frame.
func (m *Model) MultiSelect() bool { return m.multi }

func (m *Model) SetMultiSelect(held bool) { m.multi = held }

// Prune drops handles whose entities no longer exist and returns how many
// were removed.
func (m *Model) Prune() int {
	if m.reg == nil {
		return 0
	}
	var stale []interface{}
	it := m.set.Iterator()
	for it.Next() {
		if !m.reg.Alive(it.Value().(scene.Entity)) {
			stale = append(stale, it.Value())
		}
	}
	m.set.Remove(stale...)
	return len(stale)
}

// Same reports whether the selection equals handles, which must be in
// ascending order.
func (m *Model) Same(handles []scene.Entity) bool {
	if len(handles) != m.set.Size() {
		return false
	}
	i := 0
	it := m.set.Iterator()
	for it.Next() {
		if it.Value().(scene.Entity) != handles[i] {
			return false
		}
		i++
	}
	return true
}
