package selection

import (
	"time"

	"github.com/glyphedit/glyphedit/internal/edit"
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/input"
)

// NudgeSettings are the step sizes per modifier tier and the idle time
// after which the nudging flag drops.
type NudgeSettings struct {
	Base  float64
	Shift float64
	Cmd   float64
	Idle  time.Duration
}

func DefaultNudgeSettings() NudgeSettings {
	return NudgeSettings{Base: 2, Shift: 8, Cmd: 32, Idle: 2 * time.Second}
}

// Nudger moves the selection with the arrow keys.
type Nudger struct {
	settings NudgeSettings
	nudging  bool
	last     time.Time
}

func NewNudger(s NudgeSettings) *Nudger {
	return &Nudger{settings: s}
}

// Direction maps an arrow key to its edit type and unit vector. Up is +y.
func Direction(key string) (edit.Type, geom.Vec2, bool) {
	switch key {
	case input.KeyLeft:
		return edit.NudgeLeft, geom.V(-1, 0), true
	case input.KeyRight:
		return edit.NudgeRight, geom.V(1, 0), true
	case input.KeyUp:
		return edit.NudgeUp, geom.V(0, 1), true
	case input.KeyDown:
		return edit.NudgeDown, geom.V(0, -1), true
	}
	return edit.Normal, geom.Vec2{}, false
}

// Amount returns the step for the held modifiers. Cmd wins over shift.
func (n *Nudger) Amount(mods input.Modifiers) float64 {
	switch {
	case mods.Cmd:
		return n.settings.Cmd
	case mods.Shift:
		return n.settings.Shift
	default:
		return n.settings.Base
	}
}

// Apply handles one key press. It moves every selected entity once and
// returns the edit type, or false when the key is not an arrow or nothing
// is selected.
func (n *Nudger) Apply(ev input.Event, now time.Time, m *Model, env Env) (edit.Type, bool) {
	typ, dir, ok := Direction(ev.Key)
	if !ok || m.Empty() {
		return edit.Normal, false
	}
	delta := dir.Scale(n.Amount(ev.Modifiers))
	for _, h := range m.Handles() {
		node, ok := env.World.Get(h)
		if !ok {
			continue
		}
		env.place(h, node, env.designPosition(node).Add(delta), false)
	}
	n.nudging = true
	n.last = now
	logger().Debug("nudge", "direction", typ, "delta", delta, "entities", m.Len())
	return typ, true
}

// Tick drops the nudging flag once no nudge happened for the idle period.
func (n *Nudger) Tick(now time.Time) {
	if n.nudging && now.Sub(n.last) > n.settings.Idle {
		n.nudging = false
	}
}

// Active reports whether a nudge burst is in progress.
func (n *Nudger) Active() bool { return n.nudging }

func (n *Nudger) Reset() {
	n.nudging = false
	n.last = time.Time{}
}
