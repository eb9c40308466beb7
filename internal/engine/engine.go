package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/editor"
	"github.com/onlyil/sharingan-design/internal/geometry"
	"github.com/onlyil/sharingan-design/internal/preset"
)

// RotationStep is the rotation added per frame for each unit of speed.
const RotationStep = 0.02

var (
	ErrLastShape        = errors.New("at least one shape must be kept")
	ErrShapeIndex       = errors.New("shape index out of range")
	ErrInvalidAxes      = errors.New("symmetry axes must be at least 1")
	ErrInvalidPupilSize = errors.New("pupil size must be between 0 and 1")
	ErrEmptyColor       = errors.New("color must not be empty")
)

// Engine owns the active design, the shape selection and the preview
// rotation. It processes commands from the frontend and returns query
// results. It is not safe for concurrent use.
type Engine struct {
	design  document.Design
	current int
	session *editor.Session

	presets    *preset.Catalog
	presetName string

	rotation float64
	size     float64

	rng      document.Rand
	onChange func(document.Design)
}

// NewEngine creates an engine showing the catalog's default preset.
func NewEngine(presets *preset.Catalog, rng document.Rand) *Engine {
	e := &Engine{
		presets: presets,
		size:    geometry.PreviewSize,
		rng:     rng,
	}
	p := presets.Default()
	e.setDesign(p.Design(document.DefaultActiveSpeed))
	e.presetName = p.Name
	return e
}

// OnChange registers fn to receive a copy of the design after every change.
func (e *Engine) OnChange(fn func(document.Design)) {
	e.onChange = fn
}

// --- Commands (frontend → backend) ---

// LoadDesign replaces the active design. A design without shapes takes the
// default preset's shapes.
func (e *Engine) LoadDesign(d document.Design) {
	d = d.Clone()
	if len(d.Shapes) == 0 {
		slog.Warn("design has no shapes, using default preset shapes")
		d.Shapes = e.presets.Default().Design(d.AnimationSpeed).Shapes
	}
	if d.SymmetrySettings.Axes < 1 {
		d.SymmetrySettings = document.DefaultSymmetry()
	}
	e.setDesign(d)
	e.presetName = ""
	e.changed()
}

// LoadDesignJSON migrates and loads a persisted record of any known layout.
func (e *Engine) LoadDesignJSON(raw []byte) error {
	d, err := document.LoadDesignData(raw)
	if err != nil {
		return fmt.Errorf("load design: %w", err)
	}
	e.LoadDesign(d)
	return nil
}

// LoadPreset replaces shapes, symmetry and colors with the named preset.
// The animation speed is kept.
func (e *Engine) LoadPreset(name string) error {
	p, err := e.presets.Get(name)
	if err != nil {
		return err
	}
	e.applyPreset(p)
	return nil
}

// Reset loads the default preset.
func (e *Engine) Reset() {
	e.applyPreset(e.presets.Default())
}

func (e *Engine) applyPreset(p preset.Preset) {
	e.setDesign(p.Design(e.design.AnimationSpeed))
	e.presetName = p.Name
	e.changed()
}

// AddShape appends a default shape of type t and selects it.
func (e *Engine) AddShape(t document.ShapeType) (document.Shape, error) {
	s, err := document.NewShape(t, e.rng)
	if err != nil {
		return document.Shape{}, err
	}
	e.design.Shapes = append(e.design.Shapes, s)
	e.current = len(e.design.Shapes) - 1
	e.session.Reset(s)
	e.changed()
	return s, nil
}

// DeleteShape removes the shape at index. The selection stays at the same
// index, moving to the new last shape when it falls off the end.
func (e *Engine) DeleteShape(index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if len(e.design.Shapes) <= 1 {
		return ErrLastShape
	}

	shapes := make([]document.Shape, 0, len(e.design.Shapes)-1)
	shapes = append(shapes, e.design.Shapes[:index]...)
	shapes = append(shapes, e.design.Shapes[index+1:]...)
	e.design.Shapes = shapes
	if e.current >= len(shapes) {
		e.current = len(shapes) - 1
	}
	e.session.Sync(e.design.Shapes[e.current])
	e.changed()
	return nil
}

// DeleteCurrentShape removes the selected shape.
func (e *Engine) DeleteCurrentShape() error {
	return e.DeleteShape(e.current)
}

func (e *Engine) SelectShape(index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if index != e.current {
		e.current = index
		e.session.Reset(e.design.Shapes[index])
	}
	return nil
}

func (e *Engine) SetShapeColor(index int, color string) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if color == "" {
		return ErrEmptyColor
	}
	s := e.design.Shapes[index]
	s.Color = color
	e.design.Shapes[index] = s
	if index == e.current {
		e.session.Sync(s)
	}
	e.changed()
	return nil
}

func (e *Engine) SetSymmetry(axes int) error {
	if axes < 1 {
		return ErrInvalidAxes
	}
	e.design.SymmetrySettings.Axes = axes
	e.changed()
	return nil
}

func (e *Engine) SetColorSettings(cs document.ColorSettings) error {
	if cs.PupilSize <= 0 || cs.PupilSize >= 1 {
		return ErrInvalidPupilSize
	}
	if cs.PupilColor == "" {
		return ErrEmptyColor
	}
	e.design.ColorSettings = cs
	e.changed()
	return nil
}

// SetAnimationSpeed accepts any speed; negative speeds turn backwards.
func (e *Engine) SetAnimationSpeed(speed float64) {
	e.design.AnimationSpeed = document.Speed(speed)
	e.changed()
}

// SetPreviewSize sets the preview canvas edge used by Render.
func (e *Engine) SetPreviewSize(size float64) {
	if size > 0 {
		e.size = size
	}
}

func (e *Engine) SetRotation(radians float64) {
	e.rotation = radians
}

// PointerDown and the other pointer commands take editor coordinates and
// drive the selected shape's editing session.
func (e *Engine) PointerDown(x, y float64) bool {
	return e.session.PointerDown(geometry.Point{X: x, Y: y})
}

func (e *Engine) PointerMove(x, y float64) bool {
	return e.session.PointerMove(geometry.Point{X: x, Y: y})
}

func (e *Engine) PointerUp()    { e.session.PointerUp() }
func (e *Engine) PointerLeave() { e.session.PointerLeave() }

func (e *Engine) AddPoint() error    { return e.session.AddPoint() }
func (e *Engine) RemovePoint() error { return e.session.RemovePoint() }

// Tick advances the rotation by one frame and renders.
// This is called once per animation frame from the frontend.
func (e *Engine) Tick() Frame {
	e.rotation += float64(e.design.AnimationSpeed) * RotationStep
	return e.Render()
}

// --- Queries (frontend ← backend) ---

// Render draws the active design at the current rotation.
func (e *Engine) Render() Frame {
	return RenderFrame(e.design, RenderOptions{Size: e.size, Rotation: e.rotation})
}

// Design returns a copy of the active design.
func (e *Engine) Design() document.Design {
	return e.design.Clone()
}

func (e *Engine) Rotation() float64  { return e.rotation }
func (e *Engine) CurrentIndex() int  { return e.current }
func (e *Engine) PresetName() string { return e.presetName }

func (e *Engine) Presets() []preset.Preset {
	return e.presets.List()
}

// Selection describes the editing state for the config panel.
type Selection struct {
	ShapeIndex     int           `json:"shapeIndex"`
	ShapeID        string        `json:"shapeId"`
	ShapeType      string        `json:"shapeType"`
	Target         editor.Target `json:"target"`
	State          string        `json:"state"`
	CanAddPoint    bool          `json:"canAddPoint"`
	CanRemovePoint bool          `json:"canRemovePoint"`
	ShapeCount     int           `json:"shapeCount"`
	Preset         string        `json:"preset,omitempty"`
}

func (e *Engine) Selection() Selection {
	s := e.session.Shape()
	return Selection{
		ShapeIndex:     e.current,
		ShapeID:        s.ID,
		ShapeType:      string(s.Type),
		Target:         e.session.Selection(),
		State:          e.session.State().String(),
		CanAddPoint:    e.session.CanAddPoint(),
		CanRemovePoint: e.session.CanRemovePoint(),
		ShapeCount:     len(e.design.Shapes),
		Preset:         e.presetName,
	}
}

// Overlay is what the editor canvas draws: the reference and pupil circles,
// every shape with the current one highlighted, and its handles.
type Overlay struct {
	Reference geometry.Circle  `json:"reference"`
	Pupil     geometry.Circle  `json:"pupil"`
	Bounds    [2]float64       `json:"bounds"`
	Shapes    []document.Shape `json:"shapes"`
	Current   int              `json:"current"`
	Handles   []editor.Handle  `json:"handles"`
}

func (e *Engine) Overlay() Overlay {
	return EditorOverlay(e.design, e.current)
}

// EditorOverlay builds the editor-space overlay for design with shape
// current selected.
func EditorOverlay(d document.Design, current int) Overlay {
	o := Overlay{
		Reference: geometry.ReferenceCircle(),
		Pupil:     geometry.PupilCircle(d.ColorSettings.PupilSize),
		Bounds:    [2]float64{geometry.EditorWidth, geometry.EditorHeight},
		Shapes:    d.Clone().Shapes,
		Current:   current,
		Handles:   []editor.Handle{},
	}
	if current >= 0 && current < len(d.Shapes) {
		o.Handles = editor.Handles(d.Shapes[current])
	}
	return o
}

func (e *Engine) checkIndex(index int) error {
	if index < 0 || index >= len(e.design.Shapes) {
		return fmt.Errorf("%w: %d", ErrShapeIndex, index)
	}
	return nil
}

// setDesign installs d and starts a fresh session on its first shape.
func (e *Engine) setDesign(d document.Design) {
	e.design = d
	e.current = 0
	e.session = editor.NewSession(d.Shapes[0], e.rng, e.shapeEdited)
}

func (e *Engine) shapeEdited(s document.Shape) {
	e.design.Shapes[e.current] = s
	e.changed()
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange(e.design.Clone())
	}
}
