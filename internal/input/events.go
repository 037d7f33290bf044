// Package input defines the per-frame input the editor consumes. Hosts
// resolve raw device input and camera transforms into a Frame whose pointer
// is already in design space.
package input

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glyphedit/glyphedit/internal/geom"
)

// EventKind names a semantic input event.
type EventKind string

const (
	Click      EventKind = "click"
	Release    EventKind = "release"
	Drag       EventKind = "drag"
	KeyPress   EventKind = "keypress"
	KeyRelease EventKind = "keyrelease"
)

// Button identifies a pointer button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonMiddle Button = "middle"
	ButtonRight  Button = "right"
)

// Key names. Hosts send the DOM KeyboardEvent.key value.
const (
	KeyLeft   = "ArrowLeft"
	KeyRight  = "ArrowRight"
	KeyUp     = "ArrowUp"
	KeyDown   = "ArrowDown"
	KeyEscape = "Escape"
	KeyA      = "a"
	KeyZ      = "z"
)

// Modifiers is the held modifier state. Shift doubles as the multi-select
// and axis-lock modifier; Cmd covers both Ctrl and the macOS command key.
type Modifiers struct {
	Shift bool `json:"shift"`
	Cmd   bool `json:"cmd"`
	Alt   bool `json:"alt"`
}

// Event is one semantic input event.
type Event struct {
	Kind      EventKind `json:"kind"`
	Button    Button    `json:"button,omitempty"`
	Position  geom.Vec2 `json:"position"`
	Start     geom.Vec2 `json:"start"`
	Delta     geom.Vec2 `json:"delta"`
	Key       string    `json:"key,omitempty"`
	Modifiers Modifiers `json:"modifiers"`
}

// Frame is everything the editor needs to process one frame.
type Frame struct {
	Time        time.Time `json:"time"`
	Pointer     geom.Vec2 `json:"pointer"`
	Buttons     []Button  `json:"buttons,omitempty"`
	Modifiers   Modifiers `json:"modifiers"`
	Events      []Event   `json:"events,omitempty"`
	UIConsuming bool      `json:"uiConsuming"`
}

// Pressed reports whether b is held this frame.
func (f Frame) Pressed(b Button) bool {
	for _, held := range f.Buttons {
		if held == b {
			return true
		}
	}
	return false
}

// Clicked returns the first press of b this frame.
func (f Frame) Clicked(b Button) (Event, bool) {
	return f.first(Click, func(e Event) bool { return e.Button == b })
}

// Released returns the first release of b this frame.
func (f Frame) Released(b Button) (Event, bool) {
	return f.first(Release, func(e Event) bool { return e.Button == b })
}

// Keys returns the keys pressed this frame in arrival order.
func (f Frame) Keys() []Event {
	var out []Event
	for _, e := range f.Events {
		if e.Kind == KeyPress {
			out = append(out, e)
		}
	}
	return out
}

func (f Frame) first(kind EventKind, match func(Event) bool) (Event, bool) {
	for _, e := range f.Events {
		if e.Kind == kind && match(e) {
			return e, true
		}
	}
	return Event{}, false
}

// ParseFrame decodes a frame sent by a host. A missing time is filled with
// now.
func ParseFrame(data []byte, now time.Time) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Time.IsZero() {
		f.Time = now
	}
	for i := range f.Events {
		f.Events[i].Kind = EventKind(strings.ToLower(string(f.Events[i].Kind)))
	}
	return f, nil
}
