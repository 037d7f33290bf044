package engine

import (
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/scene"
	"github.com/glyphedit/glyphedit/internal/selection"
)

// Snapshot is the undoable state of the active glyph: where every
// selectable entity is, in design space, and what is selected.
type Snapshot struct {
	Positions map[scene.Entity]geom.Vec2
	Selected  []scene.Entity
}

func (e *Engine) snapshot() Snapshot {
	m := e.settings.Mapping
	s := Snapshot{
		Positions: make(map[scene.Entity]geom.Vec2),
		Selected:  e.model.Handles(),
	}
	for _, h := range e.world.Selectables() {
		if p, ok := e.world.Position(h); ok {
			s.Positions[h] = m.ToDesign(p)
		}
	}
	return s
}

// restore moves entities back to the positions in s, writes outline points
// back to the document and restores the selection. Entities that no longer
// exist are skipped.
func (e *Engine) restore(s Snapshot) {
	m := e.settings.Mapping
	for h, p := range s.Positions {
		n, ok := e.world.Get(h)
		if !ok || n.Transform.Position == m.ToEntity(p) {
			continue
		}
		e.world.SetPosition(h, m.ToEntity(p))
		if n.Ref != nil && e.backing != nil {
			if !e.backing.SetPointPosition(n.Ref.Glyph, n.Ref.Contour, n.Ref.Point, p.X, p.Y) {
				logger().Debug("restore skipped outline point", "glyph", n.Ref.Glyph, "contour", n.Ref.Contour, "point", n.Ref.Point)
			}
		}
	}
	e.model.Set(s.Selected)
	selection.Reconcile(e.model, e.world)
}

// rebase pins h at p in every stored undo step and in edits not yet
// ingested.
func (e *Engine) rebase(h scene.Entity, p geom.Vec2) {
	pin := func(s Snapshot) {
		if _, ok := s.Positions[h]; ok {
			s.Positions[h] = p
		}
	}
	e.history.Stack().Each(pin)
	for _, pe := range e.pending {
		pin(pe.snap)
	}
}
