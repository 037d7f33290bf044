package outline

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ImportSFNT reads glyph outlines from TrueType/OpenType data. When runes is
// empty every glyph in the font is imported and glyphs that fail to load are
// skipped. Coordinates are font units with y pointing up.
func ImportSFNT(id string, data []byte, runes []rune) (*Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	var b sfnt.Buffer
	name, err := f.Name(&b, sfnt.NameIDFamily)
	if err != nil || name == "" {
		name = "Untitled"
	}

	upem := int(f.UnitsPerEm())
	out := NewFont(id, name, upem)
	ppem := fixed.I(upem)

	add := func(idx sfnt.GlyphIndex, r rune) error {
		gname, err := f.GlyphName(&b, idx)
		if err != nil || gname == "" {
			if r != 0 {
				gname = fmt.Sprintf("uni%04X", r)
			} else {
				gname = fmt.Sprintf("gid%d", idx)
			}
		}
		if g, ok := out.Glyphs[gname]; ok {
			if r != 0 {
				g.Codepoints = append(g.Codepoints, r)
			}
			return nil
		}

		segments, err := f.LoadGlyph(&b, idx, ppem, nil)
		if err != nil {
			return fmt.Errorf("load glyph %s: %w", gname, err)
		}
		advance, err := f.GlyphAdvance(&b, idx, ppem, font.HintingNone)
		if err != nil {
			return fmt.Errorf("glyph advance %s: %w", gname, err)
		}

		g := &Glyph{
			Name:     gname,
			Advance:  fromFixed(advance),
			Contours: contoursFromSegments(segments),
		}
		if r != 0 {
			g.Codepoints = []rune{r}
		}
		out.Glyphs[gname] = g
		return nil
	}

	if len(runes) == 0 {
		for i := 0; i < f.NumGlyphs(); i++ {
			_ = add(sfnt.GlyphIndex(i), 0)
		}
		if len(out.Glyphs) == 0 {
			return nil, fmt.Errorf("no loadable glyphs")
		}
		return out, nil
	}

	for _, r := range runes {
		idx, err := f.GlyphIndex(&b, r)
		if err != nil {
			return nil, fmt.Errorf("glyph index for %q: %w", r, err)
		}
		if idx == 0 {
			continue
		}
		if err := add(idx, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// contoursFromSegments converts sfnt path segments into contours of on- and
// off-curve points. sfnt reports y growing downwards, so y is flipped.
func contoursFromSegments(segments sfnt.Segments) []Contour {
	var contours []Contour
	var cur *Contour

	pt := func(p fixed.Point26_6, on bool) Point {
		return Point{X: fromFixed(p.X), Y: -fromFixed(p.Y), OnCurve: on}
	}

	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			contours = append(contours, Contour{})
			cur = &contours[len(contours)-1]
			cur.Points = append(cur.Points, pt(seg.Args[0], true))
		case sfnt.SegmentOpLineTo:
			if cur == nil {
				continue
			}
			cur.Points = append(cur.Points, pt(seg.Args[0], true))
		case sfnt.SegmentOpQuadTo:
			if cur == nil {
				continue
			}
			cur.Points = append(cur.Points, pt(seg.Args[0], false), pt(seg.Args[1], true))
		case sfnt.SegmentOpCubeTo:
			if cur == nil {
				continue
			}
			cur.Points = append(cur.Points, pt(seg.Args[0], false), pt(seg.Args[1], false), pt(seg.Args[2], true))
		}
	}

	// Closed contours end on their start point; drop the duplicate.
	for i := range contours {
		pts := contours[i].Points
		if n := len(pts); n > 1 && pts[n-1] == pts[0] {
			contours[i].Points = pts[:n-1]
		}
	}
	return contours
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
