package engine

import "fmt"

// Tool is the active editing tool. The set is closed.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
	ToolText
	ToolKnife
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolPan:
		return "pan"
	case ToolText:
		return "text"
	case ToolKnife:
		return "knife"
	default:
		return "unknown"
	}
}

// ParseTool maps a tool name to its value.
func ParseTool(name string) (Tool, error) {
	for _, t := range []Tool{ToolSelect, ToolPan, ToolText, ToolKnife} {
		if t.String() == name {
			return t, nil
		}
	}
	return ToolSelect, fmt.Errorf("unknown tool: %s", name)
}

// DrivesSelection reports whether pointer and arrow-key input edits the
// selection while t is active.
func (t Tool) DrivesSelection() bool { return t == ToolSelect }

// enter runs when t becomes the active tool.
func (t Tool) enter(e *Engine) {
	logger().Debug("tool entered", "tool", t)
}

// exit runs when t stops being the active tool. Leaving the select tool
// abandons any drag in progress.
func (t Tool) exit(e *Engine) {
	if t == ToolSelect {
		e.cancelSessions()
	}
	logger().Debug("tool exited", "tool", t)
}
