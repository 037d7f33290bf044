package selection

import (
	"math"

	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// OnCurvePenaltyFraction is the share of the hit margin added to the score
// of on-curve points, so an equidistant off-curve handle wins.
const OnCurvePenaltyFraction = 1.0 / 16

// HitTest returns the selectable entity nearest to the design-space pointer
// within margin (entity-space units). Equal scores resolve to the lower
// handle.
func HitTest(w *scene.World, m geom.Mapping, pointer geom.Vec2, margin float64, filter Filter) (scene.Entity, bool) {
	if margin <= 0 {
		return scene.None, false
	}
	p := m.ToEntity(pointer)
	limit := margin * margin
	penalty := margin * OnCurvePenaltyFraction

	best := scene.None
	bestScore := math.Inf(1)
	for _, e := range w.Selectables() {
		n, _ := w.Get(e)
		if filter != nil && !filter(n) {
			continue
		}
		d2 := n.Transform.Position.DistanceSquared(p)
		if d2 > limit {
			continue
		}
		score := math.Sqrt(d2)
		if n.OnCurve() {
			score += penalty
		}
		if score < bestScore {
			best, bestScore = e, score
		}
	}
	return best, best != scene.None
}
