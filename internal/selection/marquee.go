package selection

import (
	"context"
	"log/slog"

	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// Marquee is a rubber-band rectangle selection. The zero value is idle.
type Marquee struct {
	active   bool
	start    geom.Vec2
	current  geom.Vec2
	multi    bool
	snapshot map[scene.Entity]bool
	rect     scene.Entity
}

// Begin opens a session at start. The multi-select modifier is latched now
// and the current selection is remembered for toggling and cancel.
func (mq *Marquee) Begin(start geom.Vec2, m *Model, w *scene.World) {
	mq.active = true
	mq.start = start
	mq.current = start
	mq.multi = m.MultiSelect()
	mq.snapshot = make(map[scene.Entity]bool, m.Len())
	for _, h := range m.Handles() {
		mq.snapshot[h] = true
	}
	mq.rect = w.Spawn(scene.Node{
		Marquee: &scene.MarqueeRect{Start: start, End: start},
	})
	logger().Debug("marquee started", "at", start, "multi", mq.multi, "preselected", len(mq.snapshot))
}

// Update moves the free corner to current and recomputes the selection.
// Inside the rectangle an entity is selected, unless the modifier was
// latched and it was selected before the drag, in which case it is
// deselected. Outside, it keeps its pre-drag state when latched and is
// deselected otherwise.
func (mq *Marquee) Update(current geom.Vec2, m *Model, env Env) {
	if !mq.active {
		return
	}
	mq.current = current
	if n, ok := env.World.Get(mq.rect); ok && n.Marquee != nil {
		n.Marquee.End = current
	}

	var next []scene.Entity
	var positions []geom.Vec2
	for _, e := range env.World.Selectables() {
		n, _ := env.World.Get(e)
		if !env.admits(n) {
			continue
		}
		pos := n.Transform.Position
		positions = append(positions, pos)

		before := mq.multi && mq.snapshot[e]
		selected := before
		if env.Mapping.Contains(pos, mq.start, current) {
			selected = !before
		}
		if selected {
			next = append(next, e)
		}
	}
	m.Set(next)

	if l := logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("marquee update", "selected", len(next), "bounds", env.Mapping.Describe(positions, mq.start, current))
	}
}

// End closes the session, removes the rectangle and reports whether the
// selection is non-empty.
func (mq *Marquee) End(m *Model, w *scene.World) bool {
	w.Despawn(mq.rect)
	logger().Debug("marquee ended", "selected", m.Len())
	*mq = Marquee{}
	return !m.Empty()
}

// Cancel closes the session and restores the selection from before it
// began.
func (mq *Marquee) Cancel(m *Model, w *scene.World) {
	handles := make([]scene.Entity, 0, len(mq.snapshot))
	for h := range mq.snapshot {
		handles = append(handles, h)
	}
	m.Set(handles)
	w.Despawn(mq.rect)
	*mq = Marquee{}
}

func (mq *Marquee) Active() bool       { return mq.active }
func (mq *Marquee) Start() geom.Vec2   { return mq.start }
func (mq *Marquee) Current() geom.Vec2 { return mq.current }
func (mq *Marquee) Latched() bool      { return mq.multi }
func (mq *Marquee) Rect() scene.Entity { return mq.rect }
