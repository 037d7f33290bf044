// Package edit classifies user edits and groups them into undo steps.
package edit

// Type classifies an edit for undo grouping.
type Type int

const (
	Normal Type = iota
	NudgeLeft
	NudgeRight
	NudgeUp
	NudgeDown
	Drag
	DragUp
)

func (t Type) String() string {
	switch t {
	case Normal:
		return "normal"
	case NudgeLeft:
		return "nudge-left"
	case NudgeRight:
		return "nudge-right"
	case NudgeUp:
		return "nudge-up"
	case NudgeDown:
		return "nudge-down"
	case Drag:
		return "drag"
	case DragUp:
		return "drag-up"
	default:
		return "unknown"
	}
}

// IsNudge reports whether t is one of the arrow-key nudges.
func (t Type) IsNudge() bool {
	return t >= NudgeLeft && t <= NudgeDown
}

// NeedsNewUndoGroup reports whether next starts a new undo step after prev.
// Only the frames of a single drag, and its release, are merged.
func NeedsNewUndoGroup(prev, next Type) bool {
	if prev == Drag && (next == Drag || next == DragUp) {
		return false
	}
	return true
}
