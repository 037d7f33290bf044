package engine

import (
	"encoding/json"

	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/outline"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// PointView is one selectable entity as the front-end draws it.
type PointView struct {
	ID       scene.Entity      `json:"id"`
	Position geom.Vec2         `json:"position"` // design space
	Z        float64           `json:"z"`
	OnCurve  bool              `json:"onCurve"`
	Handle   bool              `json:"handle,omitempty"` // not backed by an outline point
	Selected bool              `json:"selected"`
	Ref      *outline.PointRef `json:"ref,omitempty"`
}

// DragView is the feedback for an active point drag.
type DragView struct {
	Start    geom.Vec2 `json:"start"`
	Current  geom.Vec2 `json:"current"`
	Movement geom.Vec2 `json:"movement"`
}

// RenderState is everything the front-end needs to draw the editing
// surface after a frame.
type RenderState struct {
	Glyph    string           `json:"glyph"`
	Tool     string           `json:"tool"`
	Points   []PointView      `json:"points"`
	Contours [][]scene.Entity `json:"contours"`
	Selected []scene.Entity   `json:"selected"`
	Marquee  *geom.Rect       `json:"marquee,omitempty"`
	Drag     *DragView        `json:"drag,omitempty"`
	Nudging  bool             `json:"nudging"`
	CanUndo  bool             `json:"canUndo"`
	CanRedo  bool             `json:"canRedo"`
}

// RenderState builds the current render state. Selection highlighting
// comes from the selected tag, so it reflects the last reconciliation.
func (e *Engine) RenderState() RenderState {
	m := e.settings.Mapping
	rs := RenderState{
		Glyph:    e.glyph,
		Tool:     e.tool.String(),
		Points:   make([]PointView, 0, len(e.points)+1),
		Contours: e.contours,
		Selected: e.model.Handles(),
		Nudging:  e.nudger.Active(),
		CanUndo:  e.history.Stack().CanUndo(),
		CanRedo:  e.history.Stack().CanRedo(),
	}

	for _, h := range e.world.Selectables() {
		n, _ := e.world.Get(h)
		rs.Points = append(rs.Points, PointView{
			ID:       h,
			Position: m.ToDesign(n.Transform.Position),
			Z:        n.Transform.Z,
			OnCurve:  n.OnCurve(),
			Handle:   n.Ephemeral(),
			Selected: e.world.IsSelected(h),
			Ref:      n.Ref,
		})
	}

	// Visual feedback is suppressed during a nudge burst.
	if e.marquee.Active() && !rs.Nudging {
		r := geom.RectFromCorners(e.marquee.Start(), e.marquee.Current())
		rs.Marquee = &r
	}
	if e.drag.Active() && !rs.Nudging {
		rs.Drag = &DragView{
			Start:    e.drag.Start(),
			Current:  e.drag.Current(),
			Movement: e.drag.Movement(),
		}
	}
	return rs
}

// RenderJSON serializes the render state.
func (e *Engine) RenderJSON() (string, error) {
	data, err := json.Marshal(e.RenderState())
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
