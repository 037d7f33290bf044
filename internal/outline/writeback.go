package outline

import "fmt"

// Writer is the narrow write-back contract used by the editing core. It
// reports false when the indices do not resolve to a point.
type Writer interface {
	SetPointPosition(glyph string, contour, point int, x, y float64) bool
}

// Source supplies glyph outlines for materialising point entities.
type Source interface {
	Glyph(name string) (*Glyph, bool)
}

// Backend names accepted by Select.
const (
	BackendAuto    = "auto"
	BackendLegacy  = "legacy"
	BackendJournal = "journal"
)

// Fallback tries Primary first and only consults Secondary when Primary
// reports the point as not updated. Either side may be nil.
type Fallback struct {
	Primary   Writer
	Secondary Writer
}

func (f Fallback) SetPointPosition(glyph string, contour, point int, x, y float64) bool {
	if f.Primary != nil && f.Primary.SetPointPosition(glyph, contour, point, x, y) {
		return true
	}
	if f.Secondary != nil {
		return f.Secondary.SetPointPosition(glyph, contour, point, x, y)
	}
	return false
}

// Glyph reads from Primary, then Secondary, when they are also Sources.
func (f Fallback) Glyph(name string) (*Glyph, bool) {
	for _, w := range []Writer{f.Primary, f.Secondary} {
		if src, ok := w.(Source); ok {
			if g, ok := src.Glyph(name); ok {
				return g, true
			}
		}
	}
	return nil, false
}

// Backing is a writer that is also a glyph source.
type Backing interface {
	Writer
	Source
}

// Select picks the write-back target for a loaded font. With "auto" the
// journal (incremental representation) takes precedence and the legacy font
// is the fallback; nil arguments are skipped.
func Select(backend string, legacy *Font, journal *Journal) (Backing, error) {
	switch backend {
	case BackendLegacy:
		if legacy == nil {
			return nil, fmt.Errorf("legacy backend requested but no font loaded")
		}
		return legacy, nil
	case BackendJournal:
		if journal == nil {
			return nil, fmt.Errorf("journal backend requested but no journal loaded")
		}
		return journal, nil
	case BackendAuto, "":
		switch {
		case journal != nil && legacy != nil:
			return Fallback{Primary: journal, Secondary: legacy}, nil
		case journal != nil:
			return journal, nil
		case legacy != nil:
			return legacy, nil
		}
		return nil, fmt.Errorf("no outline document loaded")
	default:
		return nil, fmt.Errorf("unknown outline backend: %s", backend)
	}
}
