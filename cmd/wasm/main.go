//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/glyphedit/glyphedit/internal/engine"
	"github.com/glyphedit/glyphedit/internal/input"
	"github.com/glyphedit/glyphedit/internal/outline"
)

var (
	eng     *engine.Engine
	journal *outline.Journal
)

func main() {
	eng = engine.New(engine.DefaultSettings())

	// Create the engine API object
	glyphEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	glyphEngine.Set("loadFont", js.FuncOf(loadFont))
	glyphEngine.Set("loadSampleFont", js.FuncOf(loadSampleFont))
	glyphEngine.Set("loadGlyph", js.FuncOf(loadGlyph))
	glyphEngine.Set("applyOps", js.FuncOf(applyOps))
	glyphEngine.Set("update", js.FuncOf(update))
	glyphEngine.Set("setTool", js.FuncOf(setTool))
	glyphEngine.Set("undo", js.FuncOf(undo))
	glyphEngine.Set("redo", js.FuncOf(redo))
	glyphEngine.Set("selectAll", js.FuncOf(selectAll))
	glyphEngine.Set("clearSelection", js.FuncOf(clearSelection))

	// --- Queries (frontend ← backend) ---
	glyphEngine.Set("render", js.FuncOf(render))
	glyphEngine.Set("getFont", js.FuncOf(getFont))
	glyphEngine.Set("getGlyphNames", js.FuncOf(getGlyphNames))
	glyphEngine.Set("getSelection", js.FuncOf(getSelection))
	glyphEngine.Set("getHistory", js.FuncOf(getHistory))
	glyphEngine.Set("opsSince", js.FuncOf(opsSince))

	// Register on global scope
	js.Global().Set("glyphEngine", glyphEngine)

	// Signal that WASM is ready
	js.Global().Set("glyphWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func jsonResult(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

// attach hands a freshly loaded font to the engine through a journal so
// local edits can be sent on with opsSince.
func attach(font *outline.Font) interface{} {
	journal = outline.NewJournal(font).WithOrigin("local")
	if err := eng.LoadFont(nil, journal); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// --- Command Handlers ---

func loadFont(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing font JSON"})
	}

	font, err := outline.Parse([]byte(args[0].String()))
	if err != nil {
		return errorResult(err)
	}
	return attach(font)
}

func loadSampleFont(this js.Value, args []js.Value) interface{} {
	fontID := "font_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		fontID = args[0].String()
	}

	font, err := outline.NewSampleFont(fontID)
	if err != nil {
		return errorResult(err)
	}
	return attach(font)
}

func loadGlyph(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing glyph name"})
	}
	if err := eng.LoadGlyph(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// applyOps applies operations received from collaborators; the next update
// pulls them into the live points.
func applyOps(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || journal == nil {
		return js.ValueOf(0)
	}
	var ops []outline.Op
	if err := json.Unmarshal([]byte(args[0].String()), &ops); err != nil {
		return errorResult(err)
	}
	applied := 0
	for _, op := range ops {
		if _, err := journal.Apply(op); err == nil {
			applied++
		}
	}
	return js.ValueOf(applied)
}

// update runs one frame and returns the render state as JSON.
func update(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return render(this, args)
	}
	frame, err := input.ParseFrame([]byte(args[0].String()), time.Now())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(eng.Update(frame))
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	eng.SetTool(tool)
	return okResult()
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

func selectAll(this js.Value, args []js.Value) interface{} {
	eng.SelectAll()
	return nil
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	eng.ClearSelection()
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	out, err := eng.RenderJSON()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(out)
}

func getFont(this js.Value, args []js.Value) interface{} {
	if journal == nil {
		return js.ValueOf("null")
	}
	return jsonResult(journal.Snapshot())
}

func getGlyphNames(this js.Value, args []js.Value) interface{} {
	if journal == nil {
		return js.ValueOf("[]")
	}
	return jsonResult(journal.GlyphNames())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return jsonResult(eng.SelectedRefs())
}

func getHistory(this js.Value, args []js.Value) interface{} {
	return jsonResult(eng.History())
}

// opsSince returns local operations after the given sequence number, for
// the host to forward to collaborators.
func opsSince(this js.Value, args []js.Value) interface{} {
	if journal == nil {
		return js.ValueOf("[]")
	}
	var seq int64
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		seq = int64(args[0].Float())
	}
	return jsonResult(journal.Since(seq))
}
