package collab

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Merge replaces the stored glyph and selection with p's, keeps the stored
// cursor and display name when p omits them, and reports whether anything
// changed.
func (pm *PresenceManager) Merge(clientID string, p *PresencePayload) (*PresencePayload, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	cur, ok := pm.presences[clientID]
	if !ok {
		cur = &PresencePayload{}
	}
	next := *cur
	if p.Cursor != nil {
		next.Cursor = p.Cursor
	}
	if p.DisplayName != "" {
		next.DisplayName = p.DisplayName
	}
	next.Glyph = p.Glyph
	next.Selection = p.Selection

	changed := !ok ||
		next.Glyph != cur.Glyph ||
		!slices.Equal(next.Selection, cur.Selection) ||
		!cursorEqual(next.Cursor, cur.Cursor)
	pm.presences[clientID] = &next
	return &next, changed
}

func cursorEqual(a, b *CursorPos) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = v
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
