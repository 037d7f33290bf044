package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glyphedit/glyphedit/internal/config"
	"github.com/glyphedit/glyphedit/internal/edit"
	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/input"
	"github.com/glyphedit/glyphedit/internal/outline"
	"github.com/glyphedit/glyphedit/internal/scene"
	"github.com/glyphedit/glyphedit/internal/selection"
)

var (
	ErrNoFont        = errors.New("no font loaded")
	ErrGlyphNotFound = errors.New("glyph not found")
)

// Settings are the editor preferences the engine runs with.
type Settings struct {
	Grid            geom.Grid
	SelectionMargin float64
	Nudge           selection.NudgeSettings
	UndoLimit       int
	Backend         string
	Mapping         geom.Mapping
}

func DefaultSettings() Settings {
	return Settings{
		Grid:            geom.Grid{Enabled: true, Unit: 2},
		SelectionMargin: 16,
		Nudge:           selection.DefaultNudgeSettings(),
		UndoLimit:       edit.DefaultUndoLimit,
		Backend:         outline.BackendAuto,
		Mapping:         geom.IdentityMapping(),
	}
}

// SettingsFrom projects the editor part of the process configuration.
func SettingsFrom(cfg *config.Config) Settings {
	s := DefaultSettings()
	s.Grid = geom.Grid{Enabled: cfg.GridSnap, Unit: cfg.GridUnit}
	s.SelectionMargin = cfg.SelectionMargin
	s.Nudge = selection.NudgeSettings{
		Base:  cfg.NudgeAmount,
		Shift: cfg.ShiftNudgeAmount,
		Cmd:   cfg.CmdNudgeAmount,
		Idle:  cfg.NudgeIdle,
	}
	s.UndoLimit = cfg.UndoLimit
	s.Backend = cfg.OutlineBackend
	return s
}

// pendingEdit is an edit emitted this frame together with the state right
// after it.
type pendingEdit struct {
	rec  edit.Record
	snap Snapshot
}

// Engine owns the editing session for one glyph at a time: the entity
// world, the selection, both drag sessions, the nudge controller and the
// undo history. It is not safe for concurrent use; hosts drive it from a
// single goroutine, one Update per frame.
type Engine struct {
	settings Settings

	world   *scene.World
	model   *selection.Model
	drag    selection.PointDrag
	marquee selection.Marquee
	nudger  *selection.Nudger
	history *edit.History[Snapshot]
	tool    Tool

	// Outline document
	font    *outline.Font
	journal *outline.Journal
	backing outline.Backing
	syncSeq int64

	// Active glyph
	glyph    string
	points   map[outline.PointRef]scene.Entity
	contours [][]scene.Entity
	origin   scene.Entity

	pending   []pendingEdit
	dragMoved bool // a Drag edit was emitted by the open point drag
	now       time.Time
}

// New creates an engine with no font loaded.
func New(s Settings) *Engine {
	world := scene.NewWorld()
	e := &Engine{
		settings: s,
		world:    world,
		model:    selection.NewModel(world),
		nudger:   selection.NewNudger(s.Nudge),
		tool:     ToolSelect,
		points:   make(map[outline.PointRef]scene.Entity),
	}
	e.history = edit.NewHistory(s.UndoLimit, e.snapshot())
	return e
}

// --- Commands ---

// LoadFont attaches the outline document. Either argument may be nil; the
// configured backend decides which one receives point writes.
func (e *Engine) LoadFont(font *outline.Font, journal *outline.Journal) error {
	backing, err := outline.Select(e.settings.Backend, font, journal)
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	e.font = font
	e.journal = journal
	e.backing = backing
	if journal != nil {
		e.syncSeq = journal.Seq()
	}
	e.unloadGlyph()
	return nil
}

// LoadGlyph makes name the active glyph. The selection is cleared and the
// undo history restarts.
func (e *Engine) LoadGlyph(name string) error {
	if e.backing == nil {
		return ErrNoFont
	}
	g, ok := e.backing.Glyph(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGlyphNotFound, name)
	}
	if e.journal != nil {
		e.syncSeq = e.journal.Seq()
	}
	e.unloadGlyph()
	e.spawnGlyph(g)
	e.history = edit.NewHistory(e.settings.UndoLimit, e.snapshot())
	logger().Debug("glyph loaded", "glyph", name, "points", len(e.points))
	return nil
}

func (e *Engine) unloadGlyph() {
	e.drag = selection.PointDrag{}
	e.dragMoved = false
	e.marquee = selection.Marquee{}
	e.model.Clear()
	e.nudger.Reset()
	e.world.Clear()
	e.glyph = ""
	e.points = make(map[outline.PointRef]scene.Entity)
	e.contours = nil
	e.origin = scene.None
	e.pending = nil
	e.history = edit.NewHistory(e.settings.UndoLimit, e.snapshot())
	selection.Reconcile(e.model, e.world)
}

// SetTool switches the active tool.
func (e *Engine) SetTool(t Tool) {
	if t == e.tool {
		return
	}
	e.tool.exit(e)
	e.tool = t
	e.tool.enter(e)
}

// Update runs one frame. The phases run in a fixed order: remote sync and
// input resolution, press handling, drag application, release handling,
// keyboard, undo ingestion, then tag reconciliation.
func (e *Engine) Update(frame input.Frame) RenderState {
	e.now = frame.Time
	if e.now.IsZero() {
		e.now = time.Now()
	}

	e.PullRemote()
	e.model.SetMultiSelect(frame.Modifiers.Shift)
	e.nudger.Tick(e.now)

	active := !frame.UIConsuming && e.glyph != ""
	if active && e.tool.DrivesSelection() {
		env := e.env()
		if ev, ok := frame.Clicked(input.ButtonLeft); ok {
			e.press(ev.Position, env)
		}
		e.applyDrags(frame, env)
		if ev, ok := frame.Released(input.ButtonLeft); ok {
			e.release(ev.Position, env)
		}
		for _, ev := range frame.Keys() {
			e.selectKey(ev, env)
		}
	}

	e.ingest()

	if active {
		for _, ev := range frame.Keys() {
			e.historyKey(ev)
		}
	}

	selection.Reconcile(e.model, e.world)
	return e.RenderState()
}

// Undo restores the previous undo step.
func (e *Engine) Undo() bool {
	if e.dragging() {
		return false
	}
	snap, ok := e.history.Undo()
	if ok {
		e.restore(snap)
		logger().Debug("undo", "index", e.history.Stack().Index())
	}
	return ok
}

// Redo re-applies the next undo step.
func (e *Engine) Redo() bool {
	if e.dragging() {
		return false
	}
	snap, ok := e.history.Redo()
	if ok {
		e.restore(snap)
		logger().Debug("redo", "index", e.history.Stack().Index())
	}
	return ok
}

// SelectAll selects every selectable entity of the active glyph.
func (e *Engine) SelectAll() {
	before := e.model.Handles()
	e.model.Set(e.world.Selectables())
	if !e.model.Same(before) {
		e.emit(edit.Normal)
		e.ingest()
	}
	selection.Reconcile(e.model, e.world)
}

// ClearSelection deselects everything.
func (e *Engine) ClearSelection() {
	if e.model.Empty() {
		return
	}
	e.model.Clear()
	e.emit(edit.Normal)
	e.ingest()
	selection.Reconcile(e.model, e.world)
}

// --- Queries ---

// Selection returns the selected entities in ascending order.
func (e *Engine) Selection() []scene.Entity { return e.model.Handles() }

// SelectedRefs returns the outline points behind the selection.
func (e *Engine) SelectedRefs() []outline.PointRef {
	var refs []outline.PointRef
	for _, h := range e.model.Handles() {
		if n, ok := e.world.Get(h); ok && n.Ref != nil {
			refs = append(refs, *n.Ref)
		}
	}
	return refs
}

// Nudging reports whether a nudge burst is in progress.
func (e *Engine) Nudging() bool { return e.nudger.Active() }

func (e *Engine) Tool() Tool                { return e.tool }
func (e *Engine) Glyph() string             { return e.glyph }
func (e *Engine) World() *scene.World       { return e.world }
func (e *Engine) Settings() Settings        { return e.settings }
func (e *Engine) Journal() *outline.Journal { return e.journal }

// Entity returns the entity materialized for ref in the active glyph.
func (e *Engine) Entity(ref outline.PointRef) (scene.Entity, bool) {
	h, ok := e.points[ref]
	return h, ok
}

// History returns the edits recorded since the glyph was loaded.
func (e *Engine) History() []edit.Record { return e.history.Records() }

// --- Frame phases ---

func (e *Engine) env() selection.Env {
	glyph := e.glyph
	return selection.Env{
		World:   e.world,
		Mapping: e.settings.Mapping,
		Writer:  e.backing,
		Grid:    e.settings.Grid,
		Filter: func(n *scene.Node) bool {
			return n.Ref == nil || n.Ref.Glyph == glyph
		},
	}
}

func (e *Engine) dragging() bool {
	return e.drag.Active() || e.marquee.Active()
}

// press handles a left-button press: hit-test, click selection, then open
// a point drag on a hit or a marquee on empty space.
func (e *Engine) press(pos geom.Vec2, env selection.Env) {
	if e.dragging() {
		return
	}
	hit, found := selection.HitTest(e.world, env.Mapping, pos, e.settings.SelectionMargin, env.Filter)
	if selection.Press(e.model, hit, found) {
		e.emit(edit.Normal)
	}
	if found {
		e.dragMoved = false
		handles := e.model.Handles()
		e.drag.Begin(pos, handles, selection.Originals(env, handles))
		return
	}
	e.marquee.Begin(pos, e.model, e.world)
}

func (e *Engine) applyDrags(frame input.Frame, env selection.Env) {
	switch {
	case e.drag.Active():
		if e.drag.Apply(frame.Pointer, frame.Modifiers.Shift, env) {
			e.dragMoved = true
			e.emit(edit.Drag)
		}
	case e.marquee.Active():
		e.marquee.Update(frame.Pointer, e.model, env)
	}
}

func (e *Engine) release(pos geom.Vec2, env selection.Env) {
	switch {
	case e.drag.Active():
		// A drag the grid snapped back to the start changed nothing.
		if !e.drag.End().IsZero() && e.dragMoved {
			e.emit(edit.DragUp)
		}
		e.dragMoved = false
	case e.marquee.Active():
		if e.marquee.End(e.model, e.world) {
			e.emit(edit.Normal)
		}
	}
}

// selectKey handles keys that act on the selection: arrows, Escape and
// select-all.
func (e *Engine) selectKey(ev input.Event, env selection.Env) {
	switch {
	case ev.Key == input.KeyEscape:
		switch {
		case e.drag.Active():
			e.cancelDrag(env)
		case e.marquee.Active():
			e.marquee.Cancel(e.model, e.world)
		case !e.model.Empty():
			e.model.Clear()
			e.emit(edit.Normal)
		}
	case ev.Modifiers.Cmd && isKey(ev, input.KeyA):
		before := e.model.Handles()
		e.model.Set(e.world.Query(func(n *scene.Node) bool {
			return n.Selectable && env.Filter(n)
		}))
		if !e.model.Same(before) {
			e.emit(edit.Normal)
		}
	default:
		if e.dragging() {
			return
		}
		if typ, ok := e.nudger.Apply(ev, e.now, e.model, env); ok {
			e.emit(typ)
		}
	}
}

// historyKey handles undo and redo shortcuts.
func (e *Engine) historyKey(ev input.Event) {
	if !ev.Modifiers.Cmd || !isKey(ev, input.KeyZ) {
		return
	}
	if ev.Modifiers.Shift {
		e.Redo()
		return
	}
	e.Undo()
}

func isKey(ev input.Event, key string) bool {
	return strings.EqualFold(ev.Key, key)
}

// emit records an edit with the state as it is now.
func (e *Engine) emit(t edit.Type) {
	at := e.now
	if at.IsZero() {
		at = time.Now()
	}
	e.pending = append(e.pending, pendingEdit{
		rec:  edit.NewRecord(t, at),
		snap: e.snapshot(),
	})
}

// ingest feeds this frame's edits into the undo history.
func (e *Engine) ingest() {
	for _, p := range e.pending {
		if e.history.Record(p.rec, p.snap) {
			logger().Debug("undo step opened", "edit", p.rec.Type, "steps", e.history.Stack().Len())
		}
	}
	e.pending = e.pending[:0]
}

// cancelDrag puts dragged points back and drops the undo step the drag
// had opened.
func (e *Engine) cancelDrag(env selection.Env) {
	e.drag.Cancel(env)
	e.dragMoved = false
	kept := e.pending[:0]
	for _, p := range e.pending {
		if p.rec.Type != edit.Drag {
			kept = append(kept, p)
		}
	}
	e.pending = kept
	e.history.Abandon(edit.Drag)
}

func (e *Engine) cancelSessions() {
	env := e.env()
	if e.drag.Active() {
		e.cancelDrag(env)
	}
	if e.marquee.Active() {
		e.marquee.Cancel(e.model, e.world)
	}
	selection.Reconcile(e.model, e.world)
}
