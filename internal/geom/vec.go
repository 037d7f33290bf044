// Package geom holds the small amount of 2D math the editor needs:
// vectors, axis-aligned rectangles, affine matrices, the shared
// design/entity coordinate mapping and grid snapping.
package geom

import (
	"fmt"
	"math"
)

// Vec2 is a point or displacement in a 2D coordinate space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale multiplies both components by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// DistanceSquared returns the squared Euclidean distance to o.
func (v Vec2) DistanceSquared(o Vec2) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// LockAxis zeroes whichever component has the smaller magnitude.
// Ties keep the vertical component.
func (v Vec2) LockAxis() Vec2 {
	if math.Abs(v.X) > math.Abs(v.Y) {
		return Vec2{X: v.X}
	}
	return Vec2{Y: v.Y}
}

func (v Vec2) String() string { return fmt.Sprintf("(%.1f, %.1f)", v.X, v.Y) }
