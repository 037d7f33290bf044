package geom

import (
	"fmt"
	"math"
)

// Mapping converts between design space (where the pointer and the marquee
// live) and entity space (where live transforms live). Containment tests and
// the debug description both go through the same instance so selection and
// visualization cannot disagree.
type Mapping struct {
	toEntity Matrix2D
	toDesign Matrix2D
}

// IdentityMapping is used when entities are positioned directly in design
// units, which is the normal case.
func IdentityMapping() Mapping {
	return Mapping{toEntity: Identity(), toDesign: Identity()}
}

// NewMapping builds a mapping from a design→entity matrix.
func NewMapping(designToEntity Matrix2D) Mapping {
	return Mapping{toEntity: designToEntity, toDesign: designToEntity.Invert()}
}

// ToEntity maps a design-space point into entity space.
func (m Mapping) ToEntity(p Vec2) Vec2 {
	if m.toEntity == (Matrix2D{}) {
		return p
	}
	return m.toEntity.Apply(p)
}

// ToDesign maps an entity-space point back into design space.
func (m Mapping) ToDesign(p Vec2) Vec2 {
	if m.toDesign == (Matrix2D{}) {
		return p
	}
	return m.toDesign.Apply(p)
}

// Rect maps the design-space rectangle spanned by two corners into entity space.
func (m Mapping) Rect(start, end Vec2) Rect {
	return RectFromCorners(m.ToEntity(start), m.ToEntity(end))
}

// Contains reports whether an entity-space position lies inside the
// rectangle spanned by two design-space corners.
func (m Mapping) Contains(pos Vec2, start, end Vec2) bool {
	return m.Rect(start, end).Contains(pos.X, pos.Y)
}

// Describe summarises the extent of the given entity positions next to the
// mapped rectangle. It exists for debug logging of marquee selection.
func (m Mapping) Describe(positions []Vec2, start, end Vec2) string {
	if len(positions) == 0 {
		return "no entities to check"
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	r := m.Rect(start, end)
	return fmt.Sprintf("entities X(%.1f to %.1f) Y(%.1f to %.1f) | rect %v to %v",
		minX, maxX, minY, maxY, r.Min(), r.Max())
}
