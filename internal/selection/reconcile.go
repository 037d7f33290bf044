package selection

import "github.com/glyphedit/glyphedit/internal/scene"

// Reconcile makes the selected tag in w match the model exactly. It runs
// once per frame after every other selection mutation and is the only code
// that writes the tag.
func Reconcile(m *Model, w *scene.World) {
	if n := m.Prune(); n > 0 {
		logger().Debug("pruned stale selection handles", "count", n)
	}
	for _, e := range w.Tagged() {
		if !m.Contains(e) {
			w.MarkSelected(e, false)
		}
	}
	for _, e := range m.Handles() {
		if !w.IsSelected(e) {
			w.MarkSelected(e, true)
		}
	}
}
