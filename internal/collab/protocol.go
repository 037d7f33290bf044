package collab

import (
	"encoding/json"

	"github.com/glyphedit/glyphedit/internal/outline"
)

type Message struct {
	Type     string          `json:"type"`
	FontID   string          `json:"fontId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos         `json:"cursor,omitempty"`
	Glyph       string             `json:"glyph,omitempty"`
	Selection   []outline.PointRef `json:"selection,omitempty"`
	DisplayName string             `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editing session
	TypeFrame       = "input.frame"
	TypeRender      = "render.state"
	TypeGlyphLoad   = "glyph.load"
	TypeToolSet     = "tool.set"
	TypeUndo        = "history.undo"
	TypeRedo        = "history.redo"
	TypeSelectAll   = "selection.all"
	TypeSelectClear = "selection.clear"

	// Outline sync
	TypeOpBroadcast = "op.broadcast"
)

// WelcomePayload is sent once after a client joins a room.
type WelcomePayload struct {
	ClientID string   `json:"clientId"`
	FontID   string   `json:"fontId"`
	Glyphs   []string `json:"glyphs"`
	Seq      int64    `json:"seq"`
}

// GlyphLoadPayload is the payload for glyph.load messages
type GlyphLoadPayload struct {
	Glyph string `json:"glyph"`
}

// ToolSetPayload is the payload for tool.set messages
type ToolSetPayload struct {
	Tool string `json:"tool"`
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operations []outline.Op `json:"operations"`
	UserID     string       `json:"userId"`
	ServerSeq  int64        `json:"serverSeq"`
}
