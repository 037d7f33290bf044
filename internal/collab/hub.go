package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glyphedit/glyphedit/internal/engine"
	"github.com/glyphedit/glyphedit/internal/input"
	"github.com/glyphedit/glyphedit/internal/outline"
)

// FontLoader fetches the persisted font when the first client joins a room.
type FontLoader func(ctx context.Context, fontID string) (*outline.Font, error)

// FontSaver persists a room's font when it has unsaved operations.
type FontSaver func(ctx context.Context, fontID string, font *outline.Font) error

const saveTimeout = 10 * time.Second

type Room struct {
	fontID   string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	journal  *outline.Journal

	mu      sync.Mutex // guards flushed
	flushed int64      // last journal seq broadcast to the room
}

func NewRoom(fontID string, journal *outline.Journal) *Room {
	return &Room{
		fontID:   fontID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		journal:  journal,
		flushed:  journal.Seq(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // fontID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	loader   FontLoader
	saver    FontSaver
	settings engine.Settings
}

// NewHub creates a hub whose clients run engines with the given settings.
// Rooms always share a journal, so the journal backend is forced.
func NewHub(loader FontLoader, saver FontSaver, settings engine.Settings) *Hub {
	settings.Backend = outline.BackendJournal
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		loader:     loader,
		saver:      saver,
		settings:   settings,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop ends the run loop and saves every room with unsaved operations.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) openRoom(fontID string) (*Room, error) {
	if h.loader == nil {
		return nil, errors.New("no font loader configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	font, err := h.loader(ctx, fontID)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", fontID, err)
	}
	return NewRoom(fontID, outline.NewJournal(font)), nil
}

func (h *Hub) saveRoom(room *Room) {
	if h.saver == nil || !room.journal.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.saver(ctx, room.fontID, room.journal.Snapshot()); err != nil {
		slog.Error("save font", "error", err, "font", room.fontID)
		return
	}
	room.journal.MarkSaved()
	slog.Info("font saved", "font", room.fontID, "seq", room.journal.Seq())
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.FontID]
	if !ok {
		var err error
		room, err = h.openRoom(client.FontID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("open room", "error", err, "font", client.FontID)
			client.sendError("join", err)
			client.close()
			return
		}
		h.rooms[client.FontID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if err := client.attach(room.journal); err != nil {
		slog.Error("attach engine", "error", err, "client", client.ClientID)
		client.sendError("join", err)
	}

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		FontID:   client.FontID,
		Glyphs:   room.journal.GlyphNames(),
		Seq:      room.journal.Seq(),
	})
	client.Send(&Message{Type: TypeWelcome, ClientID: client.ClientID, Payload: welcome})

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.FontID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "font", client.FontID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.FontID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.FontID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.FontID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "font", client.FontID)
}

func (h *Hub) room(fontID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[fontID]
	return room, ok
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeFrame:
		frame, err := input.ParseFrame(msg.Payload, time.Now())
		if err != nil {
			sender.sendError(msg.Type, err)
			return
		}
		cursor := &CursorPos{X: frame.Pointer.X, Y: frame.Pointer.Y}
		h.edit(sender, msg.Type, cursor, func(e *engine.Engine) error {
			e.Update(frame)
			return nil
		})

	case TypeGlyphLoad:
		var p GlyphLoadPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sender.sendError(msg.Type, fmt.Errorf("invalid payload: %w", err))
			return
		}
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			return e.LoadGlyph(p.Glyph)
		})

	case TypeToolSet:
		var p ToolSetPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sender.sendError(msg.Type, fmt.Errorf("invalid payload: %w", err))
			return
		}
		tool, err := engine.ParseTool(p.Tool)
		if err != nil {
			sender.sendError(msg.Type, err)
			return
		}
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			e.SetTool(tool)
			return nil
		})

	case TypeUndo:
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			e.Undo()
			return nil
		})

	case TypeRedo:
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			e.Redo()
			return nil
		})

	case TypeSelectAll:
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			e.SelectAll()
			return nil
		})

	case TypeSelectClear:
		h.edit(sender, msg.Type, nil, func(e *engine.Engine) error {
			e.ClearSelection()
			return nil
		})

	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

// edit runs fn against the sender's engine, replies with the new render
// state, then fans out any journal operations and presence changes.
func (h *Hub) edit(sender *Client, request string, cursor *CursorPos, fn func(e *engine.Engine) error) {
	var (
		rs       engine.RenderState
		presence PresencePayload
	)
	err := sender.withEngine(func(e *engine.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		rs = e.RenderState()
		presence = PresencePayload{
			Cursor:    cursor,
			Glyph:     e.Glyph(),
			Selection: e.SelectedRefs(),
		}
		return nil
	})
	if err != nil {
		sender.sendError(request, err)
		return
	}

	sender.sendRender(rs)
	h.flushOps(sender)
	h.publishPresence(sender, &presence)
}

// flushOps broadcasts journal operations not yet seen by the room and lets
// every other client pull them into its engine.
func (h *Hub) flushOps(sender *Client) {
	room, ok := h.room(sender.FontID)
	if !ok {
		return
	}

	room.mu.Lock()
	ops := room.journal.Since(room.flushed)
	if len(ops) == 0 {
		room.mu.Unlock()
		return
	}
	seq := ops[len(ops)-1].Seq
	room.flushed = seq
	room.mu.Unlock()

	payload, err := json.Marshal(OperationBroadcastPayload{Operations: ops, ServerSeq: seq})
	if err != nil {
		slog.Error("marshal operations", "error", err)
		return
	}
	msg := &Message{
		Type:     TypeOpBroadcast,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Seq:      seq,
		Payload:  payload,
	}
	for _, c := range h.roomClients(sender.FontID, sender.ClientID) {
		c.Send(msg)
		c.refresh()
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	// Glyph and selection are owned by the server-side engine.
	sender.withEngine(func(e *engine.Engine) error {
		presence.Glyph = e.Glyph()
		presence.Selection = e.SelectedRefs()
		return nil
	})
	h.publishPresence(sender, &presence)
}

func (h *Hub) publishPresence(sender *Client, presence *PresencePayload) {
	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.FontID)
	if !ok {
		return
	}

	merged, changed := room.presence.Merge(sender.ClientID, presence)
	if !changed {
		return
	}

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(merged)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.FontID, outMsg, sender.ClientID)
}

func (h *Hub) roomClients(fontID, excludeClientID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[fontID]
	if !ok {
		return nil
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	return clients
}

func (h *Hub) broadcastToRoom(fontID string, msg *Message, excludeClientID string) {
	for _, c := range h.roomClients(fontID, excludeClientID) {
		c.Send(msg)
	}
}
