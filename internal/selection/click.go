package selection

import "github.com/glyphedit/glyphedit/internal/scene"

// Regrab reports whether a press on hit keeps the current selection intact
// so that a multi-selection can be dragged from any of its members.
func Regrab(m *Model, hit scene.Entity, found bool) bool {
	return found && m.Contains(hit) && !m.MultiSelect()
}

// Press applies click-selection rules for a pointer press and reports
// whether the selection changed. Without the multi-select modifier a hit
// replaces the selection and a miss clears it. With the modifier a hit is
// added and a miss leaves the selection alone.
func Press(m *Model, hit scene.Entity, found bool) bool {
	if Regrab(m, hit, found) {
		return false
	}
	before := m.Handles()
	if !m.MultiSelect() {
		m.Clear()
	}
	if found {
		m.Add(hit)
	}
	return !m.Same(before)
}
