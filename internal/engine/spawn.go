package engine

import (
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/outline"
	"github.com/glyphedit/glyphedit/internal/scene"
)

// spawnGlyph materializes every outline point of g as a selectable entity
// carrying its classification and a reference back into the outline. A
// crosshair handle at the glyph origin is spawned as well; it has no
// outline point behind it and moves freely.
func (e *Engine) spawnGlyph(g *outline.Glyph) {
	m := e.settings.Mapping
	e.glyph = g.Name
	e.contours = make([][]scene.Entity, len(g.Contours))

	for ci, c := range g.Contours {
		ids := make([]scene.Entity, len(c.Points))
		for pi, p := range c.Points {
			ref := outline.PointRef{Glyph: g.Name, Contour: ci, Point: pi}
			ids[pi] = e.world.Spawn(scene.Node{
				Transform: scene.Transform{
					Position: m.ToEntity(geom.V(p.X, p.Y)),
					Z:        scene.DepthPoint,
				},
				Selectable: true,
				Kind:       &scene.PointKind{OnCurve: p.OnCurve},
				Ref:        &ref,
			})
			e.points[ref] = ids[pi]
		}
		e.contours[ci] = ids
	}

	e.origin = e.world.Spawn(scene.Node{
		Transform: scene.Transform{
			Position: m.ToEntity(geom.Vec2{}),
			Z:        scene.DepthHandle,
		},
		Selectable: true,
	})
}
