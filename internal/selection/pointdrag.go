package selection

import (
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// PointDrag moves a set of entities together while the pointer is held.
// The zero value is idle.
type PointDrag struct {
	active    bool
	start     geom.Vec2
	current   geom.Vec2
	movement  geom.Vec2
	handles   []scene.Entity
	originals map[scene.Entity]geom.Vec2
}

// Originals captures the design-space position of every live handle.
func Originals(env Env, handles []scene.Entity) map[scene.Entity]geom.Vec2 {
	out := make(map[scene.Entity]geom.Vec2, len(handles))
	for _, h := range handles {
		if n, ok := env.World.Get(h); ok {
			out[h] = env.designPosition(n)
		}
	}
	return out
}

// Begin opens a session at the design-space pointer position start.
// Handles without an entry in originals are never moved.
func (d *PointDrag) Begin(start geom.Vec2, handles []scene.Entity, originals map[scene.Entity]geom.Vec2) {
	d.active = true
	d.start = start
	d.current = start
	d.movement = geom.Vec2{}
	d.handles = append([]scene.Entity(nil), handles...)
	d.originals = originals
	logger().Debug("point drag started", "at", start, "entities", len(handles))
}

// Apply moves every dragged entity to its original position plus the
// pointer movement since Begin. With axisLock the smaller movement
// component is dropped. It reports whether any entity changed position.
func (d *PointDrag) Apply(pointer geom.Vec2, axisLock bool, env Env) bool {
	if !d.active {
		return false
	}
	d.current = pointer
	mv := pointer.Sub(d.start)
	if axisLock {
		mv = mv.LockAxis()
	}
	d.movement = mv

	moved := false
	for _, h := range d.handles {
		orig, ok := d.originals[h]
		if !ok {
			continue
		}
		n, ok := env.World.Get(h)
		if !ok {
			continue
		}
		before := n.Transform.Position
		env.place(h, n, orig.Add(mv), true)
		if n.Transform.Position != before {
			moved = true
		}
	}
	return moved
}

// End closes the session and returns the final movement.
func (d *PointDrag) End() geom.Vec2 {
	mv := d.movement
	logger().Debug("point drag ended", "movement", mv, "entities", len(d.handles))
	d.reset()
	return mv
}

// Cancel returns every dragged entity to where it started and closes the
// session.
func (d *PointDrag) Cancel(env Env) {
	for _, h := range d.handles {
		orig, ok := d.originals[h]
		if !ok {
			continue
		}
		if n, ok := env.World.Get(h); ok {
			env.place(h, n, orig, false)
		}
	}
	logger().Debug("point drag cancelled", "entities", len(d.handles))
	d.reset()
}

func (d *PointDrag) reset() {
	*d = PointDrag{}
}

func (d *PointDrag) Active() bool            { return d.active }
func (d *PointDrag) Start() geom.Vec2        { return d.start }
func (d *PointDrag) Current() geom.Vec2      { return d.current }
func (d *PointDrag) Movement() geom.Vec2     { return d.movement }
func (d *PointDrag) Handles() []scene.Entity { return d.handles }

// Dragging reports whether h is part of the open session.
func (d *PointDrag) Dragging(h scene.Entity) bool {
	if !d.active {
		return false
	}
	_, ok := d.originals[h]
	return ok
}
