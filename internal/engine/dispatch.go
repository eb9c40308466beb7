package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/onlyil/sharingan-design/internal/document"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command ops, named the way the frontend calls them.
const (
	OpLoadDesign        = "loadDesign"
	OpLoadPreset        = "loadPreset"
	OpReset             = "reset"
	OpAddShape          = "addShape"
	OpDeleteShape       = "deleteShape"
	OpSelectShape       = "selectShape"
	OpSetShapeColor     = "setShapeColor"
	OpPointerDown       = "pointerDown"
	OpPointerMove       = "pointerMove"
	OpPointerUp         = "pointerUp"
	OpPointerLeave      = "pointerLeave"
	OpAddPoint          = "addPoint"
	OpRemovePoint       = "removePoint"
	OpSetSymmetry       = "setSymmetry"
	OpSetColorSettings  = "setColorSettings"
	OpSetAnimationSpeed = "setAnimationSpeed"
	OpSetRotation       = "setRotation"
	OpSetPreviewSize    = "setPreviewSize"
)

// Command is one serialized edit. Only the fields its op reads are used.
type Command struct {
	Op         string          `json:"op"`
	Index      int             `json:"index,omitempty"`
	X          float64         `json:"x,omitempty"`
	Y          float64         `json:"y,omitempty"`
	Axes       int             `json:"axes,omitempty"`
	Color      string          `json:"color,omitempty"`
	Name       string          `json:"name,omitempty"`
	ShapeType  string          `json:"shapeType,omitempty"`
	PupilColor string          `json:"pupilColor,omitempty"`
	PupilSize  float64         `json:"pupilSize,omitempty"`
	Speed      float64         `json:"speed,omitempty"`
	Rotation   float64         `json:"rotation,omitempty"`
	Size       float64         `json:"size,omitempty"`
	Design     json.RawMessage `json:"design,omitempty"`
}

// Result reports what a command touched. Handled is false for pointer
// events that hit nothing.
type Result struct {
	Handled bool            `json:"handled"`
	Shape   *document.Shape `json:"shape,omitempty"`
}

// Apply runs cmd against the engine. Invalid edits return an error and leave
// the engine as it was.
func (e *Engine) Apply(cmd Command) (Result, error) {
	ok := Result{Handled: true}
	switch cmd.Op {
	case OpLoadDesign:
		return ok, e.LoadDesignJSON(cmd.Design)
	case OpLoadPreset:
		return ok, e.LoadPreset(cmd.Name)
	case OpReset:
		e.Reset()
		return ok, nil
	case OpAddShape:
		t, err := document.ParseShapeType(cmd.ShapeType)
		if err != nil {
			return Result{}, err
		}
		s, err := e.AddShape(t)
		if err != nil {
			return Result{}, err
		}
		return Result{Handled: true, Shape: &s}, nil
	case OpDeleteShape:
		return ok, e.DeleteShape(cmd.Index)
	case OpSelectShape:
		return ok, e.SelectShape(cmd.Index)
	case OpSetShapeColor:
		return ok, e.SetShapeColor(cmd.Index, cmd.Color)
	case OpPointerDown:
		return Result{Handled: e.PointerDown(cmd.X, cmd.Y)}, nil
	case OpPointerMove:
		return Result{Handled: e.PointerMove(cmd.X, cmd.Y)}, nil
	case OpPointerUp:
		e.PointerUp()
		return ok, nil
	case OpPointerLeave:
		e.PointerLeave()
		return ok, nil
	case OpAddPoint:
		return ok, e.AddPoint()
	case OpRemovePoint:
		return ok, e.RemovePoint()
	case OpSetSymmetry:
		return ok, e.SetSymmetry(cmd.Axes)
	case OpSetColorSettings:
		return ok, e.SetColorSettings(document.ColorSettings{PupilColor: cmd.PupilColor, PupilSize: cmd.PupilSize})
	case OpSetAnimationSpeed:
		e.SetAnimationSpeed(cmd.Speed)
		return ok, nil
	case OpSetRotation:
		e.SetRotation(cmd.Rotation)
		return ok, nil
	case OpSetPreviewSize:
		e.SetPreviewSize(cmd.Size)
		return ok, nil
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
}
