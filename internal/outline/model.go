// Package outline is the authoritative outline document: fonts made of
// glyphs made of contours made of points. The editing core never touches
// these structs directly; it goes through the Writer contract.
package outline

import (
	"encoding/json"
	"sort"
)

type Font struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	UnitsPerEm int               `json:"unitsPerEm"`
	Glyphs     map[string]*Glyph `json:"glyphs"`
}

type Glyph struct {
	Name       string    `json:"name"`
	Codepoints []rune    `json:"codepoints,omitempty"`
	Advance    float64   `json:"advance"`
	Contours   []Contour `json:"contours"`
}

type Contour struct {
	Points []Point `json:"points"`
}

type Point struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OnCurve bool    `json:"onCurve"`
}

// PointRef locates one point inside a font. It is the join key between a
// point entity and the document.
type PointRef struct {
	Glyph   string `json:"glyph"`
	Contour int    `json:"contour"`
	Point   int    `json:"point"`
}

// NewFont creates an empty font.
func NewFont(id, name string, unitsPerEm int) *Font {
	return &Font{
		ID:         id,
		Name:       name,
		UnitsPerEm: unitsPerEm,
		Glyphs:     make(map[string]*Glyph),
	}
}

// Parse decodes a font from its JSON form.
func Parse(data []byte) (*Font, error) {
	var f Font
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Glyphs == nil {
		f.Glyphs = make(map[string]*Glyph)
	}
	return &f, nil
}

// Glyph returns the named glyph.
func (f *Font) Glyph(name string) (*Glyph, bool) {
	g, ok := f.Glyphs[name]
	return g, ok
}

// GlyphByRune returns the first glyph mapped to r.
func (f *Font) GlyphByRune(r rune) (*Glyph, bool) {
	for _, name := range f.GlyphNames() {
		g := f.Glyphs[name]
		for _, cp := range g.Codepoints {
			if cp == r {
				return g, true
			}
		}
	}
	return nil, false
}

// GlyphNames returns all glyph names in sorted order.
func (f *Font) GlyphNames() []string {
	names := make([]string, 0, len(f.Glyphs))
	for name := range f.Glyphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Point looks up a point by reference.
func (f *Font) Point(ref PointRef) (Point, bool) {
	p := f.point(ref)
	if p == nil {
		return Point{}, false
	}
	return *p, true
}

// SetPointPosition moves a point. It reports false when the glyph, contour
// or point index does not exist.
func (f *Font) SetPointPosition(glyph string, contour, point int, x, y float64) bool {
	p := f.point(PointRef{Glyph: glyph, Contour: contour, Point: point})
	if p == nil {
		return false
	}
	p.X = x
	p.Y = y
	return true
}

func (f *Font) point(ref PointRef) *Point {
	g, ok := f.Glyphs[ref.Glyph]
	if !ok {
		return nil
	}
	if ref.Contour < 0 || ref.Contour >= len(g.Contours) {
		return nil
	}
	c := &g.Contours[ref.Contour]
	if ref.Point < 0 || ref.Point >= len(c.Points) {
		return nil
	}
	return &c.Points[ref.Point]
}

// Clone returns a deep copy.
func (f *Font) Clone() *Font {
	out := NewFont(f.ID, f.Name, f.UnitsPerEm)
	for name, g := range f.Glyphs {
		out.Glyphs[name] = g.Clone()
	}
	return out
}

// Clone returns a deep copy.
func (g *Glyph) Clone() *Glyph {
	out := &Glyph{
		Name:       g.Name,
		Codepoints: append([]rune(nil), g.Codepoints...),
		Advance:    g.Advance,
		Contours:   make([]Contour, len(g.Contours)),
	}
	for i, c := range g.Contours {
		out.Contours[i].Points = append([]Point(nil), c.Points...)
	}
	return out
}

// PointCount returns the total number of points across all contours.
func (g *Glyph) PointCount() int {
	n := 0
	for _, c := range g.Contours {
		n += len(c.Points)
	}
	return n
}
