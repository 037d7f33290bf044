package outline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glyphedit/glyphedit/internal/typeid"
)

const OpPointMove = "point.move"

// ErrPointNotFound is returned when an operation references a point that
// does not exist in the journal's font.
var ErrPointNotFound = errors.New("point not found")

// Op is one recorded mutation of the outline.
type Op struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Seq       int64    `json:"seq"`
	Timestamp int64    `json:"timestamp"`
	Ref       PointRef `json:"ref"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Origin    string   `json:"origin,omitempty"`
}

// Journal is the incremental representation of a font: every write is
// applied to the font and appended to a sequenced op log, so readers can
// catch up with Since instead of reloading the whole document. A Journal is
// safe for concurrent use; collaborators share one per project, each through
// its own WithOrigin view.
type Journal struct {
	l      *ledger
	origin string
}

type ledger struct {
	mu     sync.RWMutex
	font   *Font
	seq    int64
	log    []Op
	maxLog int
	dirty  bool
}

const defaultMaxLog = 4096

// NewJournal wraps font. The journal takes ownership of it.
func NewJournal(font *Font) *Journal {
	return &Journal{l: &ledger{
		font:   font,
		log:    make([]Op, 0),
		maxLog: defaultMaxLog,
	}}
}

// WithOrigin returns a view of the same journal whose writes are stamped
// with origin.
func (j *Journal) WithOrigin(origin string) *Journal {
	return &Journal{l: j.l, origin: origin}
}

// Origin is the tag stamped on writes made through this view.
func (j *Journal) Origin() string { return j.origin }

// SetPointPosition implements Writer.
func (j *Journal) SetPointPosition(glyph string, contour, point int, x, y float64) bool {
	_, err := j.Apply(Op{
		Type:   OpPointMove,
		Ref:    PointRef{Glyph: glyph, Contour: contour, Point: point},
		X:      x,
		Y:      y,
		Origin: j.origin,
	})
	return err == nil
}

// Apply applies an operation and returns its sequence number.
func (j *Journal) Apply(op Op) (int64, error) {
	l := j.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.applyLocked(op); err != nil {
		return 0, err
	}

	l.seq++
	op.Seq = l.seq
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	if op.Timestamp == 0 {
		op.Timestamp = time.Now().UnixMilli()
	}
	l.log = append(l.log, op)
	if len(l.log) > l.maxLog {
		l.log = append(l.log[:0:0], l.log[len(l.log)-l.maxLog:]...)
	}
	l.dirty = true

	return l.seq, nil
}

// applyLocked applies the operation without locking (caller must hold lock)
func (l *ledger) applyLocked(op Op) error {
	switch op.Type {
	case OpPointMove:
		if !l.font.SetPointPosition(op.Ref.Glyph, op.Ref.Contour, op.Ref.Point, op.X, op.Y) {
			return fmt.Errorf("%w: %s/%d/%d", ErrPointNotFound, op.Ref.Glyph, op.Ref.Contour, op.Ref.Point)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// Since returns the retained operations with a sequence number above seq.
func (j *Journal) Since(seq int64) []Op {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()

	var out []Op
	for _, op := range j.l.log {
		if op.Seq > seq {
			out = append(out, op)
		}
	}
	return out
}

// Seq returns the sequence number of the latest operation.
func (j *Journal) Seq() int64 {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()
	return j.l.seq
}

// Glyph returns a copy of the named glyph. Implements Source.
func (j *Journal) Glyph(name string) (*Glyph, bool) {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()
	g, ok := j.l.font.Glyph(name)
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// GlyphNames lists the font's glyphs in sorted order.
func (j *Journal) GlyphNames() []string {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()
	return j.l.font.GlyphNames()
}

// Snapshot returns a deep copy of the current font.
func (j *Journal) Snapshot() *Font {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()
	return j.l.font.Clone()
}

// Dirty reports whether operations were applied since the last MarkSaved.
func (j *Journal) Dirty() bool {
	j.l.mu.RLock()
	defer j.l.mu.RUnlock()
	return j.l.dirty
}

// MarkSaved clears the dirty flag after the font has been persisted.
func (j *Journal) MarkSaved() {
	j.l.mu.Lock()
	defer j.l.mu.Unlock()
	j.l.dirty = false
}
