package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphedit/glyphedit/internal/engine"
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/input"
	"github.com/glyphedit/glyphedit/internal/outline"
)

var p0 = outline.PointRef{Glyph: "A", Contour: 0, Point: 0}

func testFont(id string) *outline.Font {
	f := outline.NewFont(id, "Test", 1000)
	f.Glyphs["A"] = &outline.Glyph{
		Name:    "A",
		Advance: 600,
		Contours: []outline.Contour{{Points: []outline.Point{
			{X: 200, Y: 0, OnCurve: true},
			{X: 300, Y: 0, OnCurve: true},
			{X: 250, Y: 100, OnCurve: false},
		}}},
	}
	return f
}

type savedFonts struct {
	mu    sync.Mutex
	fonts map[string]*outline.Font
	calls int
}

func (s *savedFonts) save(_ context.Context, fontID string, font *outline.Font) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fonts[fontID] = font
	s.calls++
	return nil
}

func newTestHub() (*Hub, *savedFonts) {
	saved := &savedFonts{fonts: make(map[string]*outline.Font)}
	loader := func(_ context.Context, fontID string) (*outline.Font, error) {
		if fontID == "font_missing" {
			return nil, errors.New("not found")
		}
		return testFont(fontID), nil
	}
	return NewHub(loader, saved.save, engine.DefaultSettings()), saved
}

func join(h *Hub, clientID, name string) *Client {
	c := NewClient(h, nil, "user_"+clientID, name, "font_1", clientID)
	h.addClient(c)
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			return Message{}, false
		}
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg, true
	case <-time.After(time.Second):
		return Message{}, false
	}
}

// recvType skips messages until one of type typ arrives.
func recvType(t *testing.T, c *Client, typ string) Message {
	t.Helper()
	for {
		msg, ok := recv(t, c)
		require.True(t, ok, "no %s message for %s", typ, c.ClientID)
		if msg.Type == typ {
			return msg
		}
	}
}

func drain(c *Client) []string {
	var types []string
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return types
			}
			var msg Message
			if json.Unmarshal(data, &msg) == nil {
				types = append(types, msg.Type)
			}
		default:
			return types
		}
	}
}

func send(t *testing.T, h *Hub, c *Client, typ string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	h.handleMessage(c, &Message{Type: typ, Payload: data})
}

func sendFrame(t *testing.T, h *Hub, c *Client, pointer geom.Vec2, events ...input.Event) {
	t.Helper()
	send(t, h, c, TypeFrame, input.Frame{Pointer: pointer, Events: events})
}

func decode[T any](t *testing.T, msg Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func pointAt(t *testing.T, rs engine.RenderState, ref outline.PointRef) geom.Vec2 {
	t.Helper()
	for _, p := range rs.Points {
		if p.Ref != nil && *p.Ref == ref {
			return p.Position
		}
	}
	t.Fatalf("no point for %v", ref)
	return geom.Vec2{}
}

func leftPress(p geom.Vec2) input.Event {
	return input.Event{Kind: input.Click, Button: input.ButtonLeft, Position: p}
}

func leftRelease(p geom.Vec2) input.Event {
	return input.Event{Kind: input.Release, Button: input.ButtonLeft, Position: p}
}

// twoEditors joins two clients to font_1, loads glyph A in both and drains
// their queues.
func twoEditors(t *testing.T, h *Hub) (*Client, *Client) {
	a := join(h, "a", "Ann")
	b := join(h, "b", "Bo")
	for _, c := range []*Client{a, b} {
		send(t, h, c, TypeGlyphLoad, GlyphLoadPayload{Glyph: "A"})
	}
	drain(a)
	drain(b)
	return a, b
}

func TestJoinSendsWelcomeAndPresence(t *testing.T) {
	h, _ := newTestHub()
	a := join(h, "a", "Ann")

	welcome := recvType(t, a, TypeWelcome)
	w := decode[WelcomePayload](t, welcome)
	assert.Equal(t, "a", w.ClientID)
	assert.Equal(t, "font_1", w.FontID)
	assert.Equal(t, []string{"A"}, w.Glyphs)
	recvType(t, a, TypePresenceState)

	b := join(h, "b", "Bo")
	joined := decode[PresenceJoinPayload](t, recvType(t, a, TypePresenceJoin))
	assert.Equal(t, "Bo", joined.DisplayName)
	assert.NotContains(t, drain(b), TypePresenceJoin, "no join echo to the joiner")

	room, ok := h.room("font_1")
	require.True(t, ok)
	assert.Len(t, room.clients, 2)
}

func TestJoinFailsWhenFontMissing(t *testing.T) {
	h, _ := newTestHub()
	c := NewClient(h, nil, "user_x", "X", "font_missing", "x")
	h.addClient(c)

	msg := recvType(t, c, TypeError)
	assert.Equal(t, "join", decode[ErrorPayload](t, msg).Request)
	_, open := recv(t, c)
	assert.False(t, open, "send queue closed")

	_, ok := h.room("font_missing")
	assert.False(t, ok)
}

func TestGlyphLoadRendersPoints(t *testing.T) {
	h, _ := newTestHub()
	a := join(h, "a", "Ann")
	drain(a)

	send(t, h, a, TypeGlyphLoad, GlyphLoadPayload{Glyph: "A"})
	rs := decode[engine.RenderState](t, recvType(t, a, TypeRender))
	assert.Equal(t, "A", rs.Glyph)
	assert.Equal(t, geom.V(200, 0), pointAt(t, rs, p0))
}

func TestDragBroadcastsOperations(t *testing.T) {
	h, _ := newTestHub()
	a, b := twoEditors(t, h)

	sendFrame(t, h, a, geom.V(200, 0), leftPress(geom.V(200, 0)))
	sendFrame(t, h, a, geom.V(220, 0))
	sendFrame(t, h, a, geom.V(220, 0), leftRelease(geom.V(220, 0)))

	bcast := recvType(t, b, TypeOpBroadcast)
	assert.Equal(t, "a", bcast.ClientID)
	ops := decode[OperationBroadcastPayload](t, bcast).Operations
	require.NotEmpty(t, ops)
	assert.Equal(t, outline.OpPointMove, ops[0].Type)
	assert.Equal(t, "a", ops[0].Origin)
	assert.Equal(t, p0, ops[0].Ref)

	rs := decode[engine.RenderState](t, recvType(t, b, TypeRender))
	assert.Equal(t, geom.V(220, 0), pointAt(t, rs, p0), "remote move pulled into b's engine")

	assert.NotContains(t, drain(a), TypeOpBroadcast, "sender is not echoed its own ops")
}

func TestUndoIsBroadcast(t *testing.T) {
	h, _ := newTestHub()
	a, b := twoEditors(t, h)

	sendFrame(t, h, a, geom.V(200, 0), leftPress(geom.V(200, 0)))
	sendFrame(t, h, a, geom.V(240, 0))
	sendFrame(t, h, a, geom.V(240, 0), leftRelease(geom.V(240, 0)))
	drain(a)
	drain(b)

	send(t, h, a, TypeUndo, struct{}{})
	rs := decode[engine.RenderState](t, recvType(t, a, TypeRender))
	assert.Equal(t, geom.V(200, 0), pointAt(t, rs, p0))
	assert.True(t, rs.CanRedo)

	recvType(t, b, TypeOpBroadcast)
	rs = decode[engine.RenderState](t, recvType(t, b, TypeRender))
	assert.Equal(t, geom.V(200, 0), pointAt(t, rs, p0))
}

func TestPresenceCarriesSelection(t *testing.T) {
	h, _ := newTestHub()
	a, b := twoEditors(t, h)

	sendFrame(t, h, a, geom.V(200, 0), leftPress(geom.V(200, 0)), leftRelease(geom.V(200, 0)))

	var p PresencePayload
	for {
		msg := recvType(t, b, TypePresenceUpdate)
		p = decode[PresencePayload](t, msg)
		if len(p.Selection) > 0 {
			assert.Equal(t, "a", msg.ClientID)
			break
		}
	}
	assert.Equal(t, []outline.PointRef{p0}, p.Selection)
	assert.Equal(t, "A", p.Glyph)
	assert.Equal(t, "Ann", p.DisplayName)
	require.NotNil(t, p.Cursor)
	assert.Equal(t, CursorPos{X: 200, Y: 0}, *p.Cursor)

	// Client-sent presence cannot override the engine's selection.
	send(t, h, a, TypePresenceUpdate, PresencePayload{
		Cursor:    &CursorPos{X: 5, Y: 5},
		Selection: []outline.PointRef{{Glyph: "Z"}},
	})
	p = decode[PresencePayload](t, recvType(t, b, TypePresenceUpdate))
	assert.Equal(t, []outline.PointRef{p0}, p.Selection)
	assert.Equal(t, CursorPos{X: 5, Y: 5}, *p.Cursor)
}

func TestSelectionCommands(t *testing.T) {
	h, _ := newTestHub()
	a, _ := twoEditors(t, h)

	send(t, h, a, TypeSelectAll, struct{}{})
	rs := decode[engine.RenderState](t, recvType(t, a, TypeRender))
	assert.Len(t, rs.Selected, len(rs.Points))

	send(t, h, a, TypeSelectClear, struct{}{})
	rs = decode[engine.RenderState](t, recvType(t, a, TypeRender))
	assert.Empty(t, rs.Selected)

	send(t, h, a, TypeToolSet, ToolSetPayload{Tool: "knife"})
	rs = decode[engine.RenderState](t, recvType(t, a, TypeRender))
	assert.Equal(t, "knife", rs.Tool)
}

func TestInvalidRequestsReportErrors(t *testing.T) {
	h, _ := newTestHub()
	a := join(h, "a", "Ann")
	drain(a)

	send(t, h, a, TypeToolSet, ToolSetPayload{Tool: "lasso"})
	assert.Equal(t, TypeToolSet, decode[ErrorPayload](t, recvType(t, a, TypeError)).Request)

	send(t, h, a, TypeGlyphLoad, GlyphLoadPayload{Glyph: "Z"})
	assert.Equal(t, TypeGlyphLoad, decode[ErrorPayload](t, recvType(t, a, TypeError)).Request)

	h.handleMessage(a, &Message{Type: TypeFrame, Payload: json.RawMessage(`"not a frame"`)})
	assert.Equal(t, TypeFrame, decode[ErrorPayload](t, recvType(t, a, TypeError)).Request)

	h.handleMessage(a, &Message{Type: "doc.sync", Payload: json.RawMessage(`{}`)})
	assert.Empty(t, drain(a))
}

func TestLastClientLeavingSavesFont(t *testing.T) {
	h, saved := newTestHub()
	a, b := twoEditors(t, h)

	sendFrame(t, h, a, geom.V(200, 0), leftPress(geom.V(200, 0)))
	sendFrame(t, h, a, geom.V(230, 0))
	sendFrame(t, h, a, geom.V(230, 0), leftRelease(geom.V(230, 0)))

	h.removeClient(a)
	assert.Equal(t, 0, saved.calls, "room still open")
	leave := decode[PresenceLeavePayload](t, recvType(t, b, TypePresenceLeave))
	assert.Equal(t, "user_a", leave.UserID)

	h.removeClient(b)
	require.Equal(t, 1, saved.calls)
	pt, ok := saved.fonts["font_1"].Point(p0)
	require.True(t, ok)
	assert.Equal(t, 230.0, pt.X)

	_, ok = h.room("font_1")
	assert.False(t, ok)
	h.removeClient(b) // already gone
}

func TestCleanRoomIsNotSaved(t *testing.T) {
	h, saved := newTestHub()
	a := join(h, "a", "Ann")
	h.removeClient(a)
	assert.Equal(t, 0, saved.calls)
}

func TestStopSavesDirtyRooms(t *testing.T) {
	h, saved := newTestHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	a, _ := twoEditors(t, h)
	sendFrame(t, h, a, geom.V(300, 0), leftPress(geom.V(300, 0)))
	sendFrame(t, h, a, geom.V(310, 0), leftRelease(geom.V(310, 0)))

	h.Stop()
	h.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit")
	}
	assert.Equal(t, 1, saved.calls)
}
