package selection

import (
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/outline"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// Filter restricts which entities take part in hit-testing and marquee
// selection. A nil filter admits every selectable entity.
type Filter func(*scene.Node) bool

// Env bundles the collaborators the manipulation machines read and write.
type Env struct {
	World   *scene.World
	Mapping geom.Mapping
	Writer  outline.Writer
	Grid    geom.Grid
	Filter  Filter
}

func (env Env) admits(n *scene.Node) bool {
	return n.Selectable && (env.Filter == nil || env.Filter(n))
}

// place moves e to the design-space position target. Outline points are
// written back, and snapped to the grid first when snap is set. Interaction
// handles are never snapped.
func (env Env) place(e scene.Entity, n *scene.Node, target geom.Vec2, snap bool) {
	if n.Ephemeral() {
		env.World.SetTransform(e, env.Mapping.ToEntity(target), scene.DepthHandle)
		return
	}
	if snap {
		target = env.Grid.Snap(target)
	}
	env.World.SetTransform(e, env.Mapping.ToEntity(target), scene.DepthPoint)
	env.writeBack(n.Ref, target)
}

func (env Env) writeBack(ref *outline.PointRef, p geom.Vec2) {
	if env.Writer == nil || ref == nil {
		return
	}
	if !env.Writer.SetPointPosition(ref.Glyph, ref.Contour, ref.Point, p.X, p.Y) {
		logger().Debug("outline point not updated", "glyph", ref.Glyph, "contour", ref.Contour, "point", ref.Point)
	}
}

// designPosition returns the live position of n in design space.
func (env Env) designPosition(n *scene.Node) geom.Vec2 {
	return env.Mapping.ToDesign(n.Transform.Position)
}
