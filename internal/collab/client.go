package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/glyphedit/glyphedit/internal/engine"
	"github.com/glyphedit/glyphedit/internal/outline"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

// Client is one websocket connection editing a font. Each client drives its
// own engine; the room's journal is the only state shared with others.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	UserID      string
	DisplayName string
	FontID      string
	ClientID    string

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	mu     sync.Mutex // guards engine
	engine *engine.Engine
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, fontID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		UserID:      userID,
		DisplayName: displayName,
		FontID:      fontID,
		ClientID:    clientID,
		engine:      engine.New(hub.settings),
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.FontID = c.FontID

		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

// close stops delivery; the write pump exits once the queue drains.
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// withEngine runs fn while holding the engine lock.
func (c *Client) withEngine(fn func(e *engine.Engine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.engine)
}

// attach points the engine at the room's journal. Writes are stamped with
// the client ID so the client's own moves are not replayed to it.
func (c *Client) attach(j *outline.Journal) error {
	return c.withEngine(func(e *engine.Engine) error {
		return e.LoadFont(nil, j.WithOrigin(c.ClientID))
	})
}

// refresh pulls remote moves into the engine and pushes a render state
// when anything changed.
func (c *Client) refresh() {
	var (
		rs    engine.RenderState
		moved int
	)
	c.withEngine(func(e *engine.Engine) error {
		if moved = e.PullRemote(); moved > 0 {
			rs = e.RenderState()
		}
		return nil
	})
	if moved > 0 {
		c.sendRender(rs)
	}
}

func (c *Client) sendRender(rs engine.RenderState) {
	payload, err := json.Marshal(rs)
	if err != nil {
		slog.Error("marshal render state", "error", err)
		return
	}
	c.Send(&Message{Type: TypeRender, ClientID: c.ClientID, Payload: payload})
}

func (c *Client) sendError(request string, err error) {
	payload, _ := json.Marshal(ErrorPayload{Request: request, Message: err.Error()})
	c.Send(&Message{Type: TypeError, Payload: payload})
}
