package engine

import (
	"log/slog"

	"github.com/glyphedit/glyphedit/internal/selection"
)

// SetLogger configures logging for the engine and the selection core. The
// engine is silent by default. Pass nil to silence it again.
//
// Debug records cover drag and marquee sessions, nudges, undo steps and
// outline writes that did not apply.
func SetLogger(l *slog.Logger) {
	selection.SetLogger(l)
}

func logger() *slog.Logger { return selection.Logger() }
