package edit

import (
	"time"

	"github.com/glyphedit/glyphedit/internal/typeid"
)

// Record describes one emitted edit.
type Record struct {
	ID   string    `json:"id"`
	Type Type      `json:"type"`
	At   time.Time `json:"at"`
}

// NewRecord stamps an edit of type t.
func NewRecord(t Type, at time.Time) Record {
	return Record{ID: typeid.NewEditID(), Type: t, At: at}
}

// History feeds edits into an UndoStack, merging consecutive edits that
// belong to the same gesture.
type History[T any] struct {
	stack   *UndoStack[T]
	last    Type
	hasLast bool
	records []Record
}

// NewHistory starts a history whose oldest snapshot is initial.
func NewHistory[T any](limit int, initial T) *History[T] {
	return &History[T]{stack: NewSized(limit, initial)}
}

// Record ingests an edit with the snapshot taken after it. It reports
// whether a new undo step was opened.
func (h *History[T]) Record(rec Record, snapshot T) bool {
	grouped := h.hasLast && !NeedsNewUndoGroup(h.last, rec.Type)
	if grouped {
		h.stack.UpdateCurrent(snapshot)
	} else {
		h.stack.Push(snapshot)
	}
	h.last = rec.Type
	h.hasLast = true

	h.records = append(h.records, rec)
	if len(h.records) > h.stack.limit {
		h.records = h.records[len(h.records)-h.stack.limit:]
	}
	return !grouped
}

// Abandon discards the open undo step when the last edit was of type t,
// for gestures that were cancelled after they started recording.
func (h *History[T]) Abandon(t Type) bool {
	if !h.hasLast || h.last != t {
		return false
	}
	h.hasLast = false
	return h.stack.DropCurrent()
}

// Undo returns the snapshot to restore, if any.
func (h *History[T]) Undo() (T, bool) {
	h.hasLast = false
	return h.stack.Undo()
}

// Redo returns the snapshot to restore, if any.
func (h *History[T]) Redo() (T, bool) {
	h.hasLast = false
	return h.stack.Redo()
}

// Last returns the type of the most recent edit since the last undo or redo.
func (h *History[T]) Last() (Type, bool) { return h.last, h.hasLast }

// Records returns recently ingested edits, oldest first.
func (h *History[T]) Records() []Record {
	return append([]Record(nil), h.records...)
}

func (h *History[T]) Stack() *UndoStack[T] { return h.stack }
