//go:build js && wasm

package main

import (
	"encoding/json"
	"math/rand/v2"
	"syscall/js"
	"time"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/export"
	"github.com/onlyil/sharingan-design/internal/preset"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(preset.Builtin(), rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	// Create the engine API object
	sharinganEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	sharinganEngine.Set("loadDesign", js.FuncOf(loadDesign))
	sharinganEngine.Set("loadPreset", js.FuncOf(loadPreset))
	sharinganEngine.Set("reset", js.FuncOf(command(engine.OpReset)))
	sharinganEngine.Set("addShape", js.FuncOf(addShape))
	sharinganEngine.Set("deleteShape", js.FuncOf(indexCommand(engine.OpDeleteShape)))
	sharinganEngine.Set("selectShape", js.FuncOf(indexCommand(engine.OpSelectShape)))
	sharinganEngine.Set("setShapeColor", js.FuncOf(setShapeColor))
	sharinganEngine.Set("pointerDown", js.FuncOf(pointerCommand(engine.OpPointerDown)))
	sharinganEngine.Set("pointerMove", js.FuncOf(pointerCommand(engine.OpPointerMove)))
	sharinganEngine.Set("pointerUp", js.FuncOf(command(engine.OpPointerUp)))
	sharinganEngine.Set("pointerLeave", js.FuncOf(command(engine.OpPointerLeave)))
	sharinganEngine.Set("addPoint", js.FuncOf(command(engine.OpAddPoint)))
	sharinganEngine.Set("removePoint", js.FuncOf(command(engine.OpRemovePoint)))
	sharinganEngine.Set("setSymmetry", js.FuncOf(setSymmetry))
	sharinganEngine.Set("setColorSettings", js.FuncOf(setColorSettings))
	sharinganEngine.Set("setAnimationSpeed", js.FuncOf(setAnimationSpeed))
	sharinganEngine.Set("setPreviewSize", js.FuncOf(setPreviewSize))
	sharinganEngine.Set("setRotation", js.FuncOf(setRotation))
	sharinganEngine.Set("onChange", js.FuncOf(onChange))
	sharinganEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	sharinganEngine.Set("render", js.FuncOf(render))
	sharinganEngine.Set("getDesign", js.FuncOf(getDesign))
	sharinganEngine.Set("getSelection", js.FuncOf(getSelection))
	sharinganEngine.Set("exportConfig", js.FuncOf(exportConfig))
	sharinganEngine.Set("getPresets", js.FuncOf(getPresets))
	sharinganEngine.Set("getOverlay", js.FuncOf(getOverlay))

	// Register on global scope
	js.Global().Set("sharinganEngine", sharinganEngine)

	// Signal that WASM is ready
	js.Global().Set("sharinganWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// apply runs cmd and converts the outcome for JS.
func apply(cmd engine.Command) interface{} {
	res, err := eng.Apply(cmd)
	if err != nil {
		return errorResult(err.Error())
	}
	out := map[string]interface{}{"ok": true, "handled": res.Handled}
	if res.Shape != nil {
		out["shapeId"] = res.Shape.ID
	}
	return js.ValueOf(out)
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func command(op string) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return apply(engine.Command{Op: op})
	}
}

func indexCommand(op string) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return errorResult("missing shape index")
		}
		return apply(engine.Command{Op: op, Index: args[0].Int()})
	}
}

func pointerCommand(op string) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return errorResult("missing pointer coordinates")
		}
		return apply(engine.Command{Op: op, X: args[0].Float(), Y: args[1].Float()})
	}
}

func loadDesign(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing design JSON")
	}
	return apply(engine.Command{Op: engine.OpLoadDesign, Design: json.RawMessage(args[0].String())})
}

func loadPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing preset name")
	}
	return apply(engine.Command{Op: engine.OpLoadPreset, Name: args[0].String()})
}

func addShape(this js.Value, args []js.Value) interface{} {
	shapeType := string(document.ShapeBezier)
	if len(args) > 0 && args[0].Type() == js.TypeString {
		shapeType = args[0].String()
	}
	return apply(engine.Command{Op: engine.OpAddShape, ShapeType: shapeType})
}

func setShapeColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing shape index or color")
	}
	return apply(engine.Command{Op: engine.OpSetShapeColor, Index: args[0].Int(), Color: args[1].String()})
}

func setSymmetry(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing axes")
	}
	return apply(engine.Command{Op: engine.OpSetSymmetry, Axes: args[0].Int()})
}

func setColorSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing pupil color or size")
	}
	return apply(engine.Command{Op: engine.OpSetColorSettings, PupilColor: args[0].String(), PupilSize: args[1].Float()})
}

func setAnimationSpeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing speed")
	}
	return apply(engine.Command{Op: engine.OpSetAnimationSpeed, Speed: args[0].Float()})
}

func setPreviewSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing size")
	}
	return apply(engine.Command{Op: engine.OpSetPreviewSize, Size: args[0].Float()})
}

func setRotation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing rotation")
	}
	return apply(engine.Command{Op: engine.OpSetRotation, Rotation: args[0].Float()})
}

// onChange registers a JS callback that receives the design JSON after every
// change, for autosaving.
func onChange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		eng.OnChange(nil)
		return nil
	}
	fn := args[0]
	eng.OnChange(func(d document.Design) {
		data, err := json.Marshal(d)
		if err != nil {
			return
		}
		fn.Invoke(string(data))
	})
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.FrameToJSON(eng.Tick()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.FrameToJSON(eng.Render()))
}

func getDesign(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Design())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Selection())
}

func exportConfig(this js.Value, args []js.Value) interface{} {
	text, err := export.ClipboardJSON(eng.Design(), time.Now())
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(text)
}

func getPresets(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Presets())
}

func getOverlay(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Overlay())
}
