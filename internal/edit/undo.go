package edit

import (
	dll "github.com/emirpasic/gods/lists/doublylinkedlist"
)

// DefaultUndoLimit is the number of snapshots kept when no limit is given.
const DefaultUndoLimit = 128

// UndoStack is a bounded linear history of snapshots with a cursor. Pushing
// after an undo discards the redo tail. When the bound is exceeded the oldest
// snapshot is dropped.
type UndoStack[T any] struct {
	items *dll.List
	index int
	limit int
}

// New creates a stack holding only initial.
func New[T any](initial T) *UndoStack[T] {
	return NewSized(DefaultUndoLimit, initial)
}

// NewSized creates a stack holding at most limit snapshots. Limits below 1
// fall back to DefaultUndoLimit.
func NewSized[T any](limit int, initial T) *UndoStack[T] {
	if limit < 1 {
		limit = DefaultUndoLimit
	}
	s := &UndoStack[T]{items: dll.New(), limit: limit}
	s.items.Add(initial)
	return s
}

// Push records a new snapshot after the cursor.
func (s *UndoStack[T]) Push(item T) {
	for s.items.Size() > s.index+1 {
		s.items.Remove(s.items.Size() - 1)
	}
	s.items.Add(item)
	s.index++
	for s.items.Size() > s.limit {
		s.items.Remove(0)
		s.index--
	}
}

// UpdateCurrent replaces the snapshot at the cursor.
func (s *UndoStack[T]) UpdateCurrent(item T) {
	s.items.Set(s.index, item)
}

// DropCurrent removes the newest snapshot when the cursor is on it,
// leaving the stack as it was before the matching Push.
func (s *UndoStack[T]) DropCurrent() bool {
	if s.index == 0 || s.index+1 != s.items.Size() {
		return false
	}
	s.items.Remove(s.index)
	s.index--
	return true
}

// Undo moves the cursor back and returns the snapshot to restore. It
// reports false at the oldest snapshot.
func (s *UndoStack[T]) Undo() (T, bool) {
	if s.index == 0 {
		var zero T
		return zero, false
	}
	s.index--
	return s.at(s.index), true
}

// Redo moves the cursor forward. It reports false at the newest snapshot.
func (s *UndoStack[T]) Redo() (T, bool) {
	if s.index+1 >= s.items.Size() {
		var zero T
		return zero, false
	}
	s.index++
	return s.at(s.index), true
}

// Current returns the snapshot at the cursor.
func (s *UndoStack[T]) Current() T {
	return s.at(s.index)
}

// Each calls fn for every snapshot, oldest first.
func (s *UndoStack[T]) Each(fn func(item T)) {
	s.items.Each(func(_ int, v interface{}) {
		fn(v.(T))
	})
}

func (s *UndoStack[T]) Len() int   { return s.items.Size() }
func (s *UndoStack[T]) Index() int { return s.index }

func (s *UndoStack[T]) CanUndo() bool { return s.index > 0 }
func (s *UndoStack[T]) CanRedo() bool { return s.index+1 < s.items.Size() }

func (s *UndoStack[T]) at(i int) T {
	v, ok := s.items.Get(i)
	if !ok {
		var zero T
		return zero
	}
	return v.(T)
}
