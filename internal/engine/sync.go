package engine

import (
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/outline"
)

// PullRemote applies journal operations recorded since the last pull to the
// live positions of the active glyph's points. Operations stamped with this
// engine's own origin are already live and skipped, as are points being
// dragged and refs that no longer resolve. Only the newest operation per
// point counts. Every point moved this way is rebased in the undo history
// so a later local undo or redo leaves it where the collaborator put it. It
// returns the number of points moved.
func (e *Engine) PullRemote() int {
	if e.journal == nil {
		return 0
	}
	ops := e.journal.Since(e.syncSeq)
	if len(ops) == 0 {
		return 0
	}
	e.syncSeq = ops[len(ops)-1].Seq

	self := e.journal.Origin()
	latest := make(map[outline.PointRef]geom.Vec2)
	for _, op := range ops {
		if op.Type != outline.OpPointMove || op.Ref.Glyph != e.glyph {
			continue
		}
		if self != "" && op.Origin == self {
			continue
		}
		latest[op.Ref] = geom.V(op.X, op.Y)
	}

	moved := 0
	m := e.settings.Mapping
	for ref, p := range latest {
		h, ok := e.points[ref]
		if !ok || e.drag.Dragging(h) {
			continue
		}
		n, ok := e.world.Get(h)
		if !ok {
			continue
		}
		target := m.ToEntity(p)
		if n.Transform.Position == target {
			continue
		}
		e.world.SetPosition(h, target)
		e.rebase(h, p)
		moved++
	}
	if moved > 0 {
		logger().Debug("applied remote point moves", "glyph", e.glyph, "moved", moved, "seq", e.syncSeq)
	}
	return moved
}
