package geom

import "math"

// Grid snaps positions to multiples of Unit on each axis independently.
type Grid struct {
	Enabled bool
	Unit    float64
}

// Snap rounds p to the nearest grid intersection. A disabled grid or a
// non-positive unit returns p unchanged.
func (g Grid) Snap(p Vec2) Vec2 {
	if !g.Enabled || g.Unit <= 0 {
		return p
	}
	return Vec2{
		X: math.Round(p.X/g.Unit) * g.Unit,
		Y: math.Round(p.Y/g.Unit) * g.Unit,
	}
}
