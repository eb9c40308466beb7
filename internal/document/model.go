// Package document holds the persisted design model: shapes, symmetry and
// pupil settings, saved snapshots and the migration of older record layouts.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/onlyil/sharingan-design/internal/geometry"
)

type ShapeType string

const (
	ShapeBezier ShapeType = "bezier"
	ShapeCircle ShapeType = "circle"
	ShapeLine   ShapeType = "line"
)

var ErrUnknownShapeType = errors.New("unknown shape type")

// ParseShapeType accepts the wire names of the three shape kinds.
func ParseShapeType(s string) (ShapeType, error) {
	switch t := ShapeType(s); t {
	case ShapeBezier, ShapeCircle, ShapeLine:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShapeType, s)
}

// BezierPoint is a path vertex. CP1 is the incoming control point and CP2 the
// outgoing one; either may be absent.
type BezierPoint struct {
	X    float64  `json:"x" yaml:"x"`
	Y    float64  `json:"y" yaml:"y"`
	CP1X *float64 `json:"cp1x,omitempty" yaml:"cp1x,omitempty"`
	CP1Y *float64 `json:"cp1y,omitempty" yaml:"cp1y,omitempty"`
	CP2X *float64 `json:"cp2x,omitempty" yaml:"cp2x,omitempty"`
	CP2Y *float64 `json:"cp2y,omitempty" yaml:"cp2y,omitempty"`
}

// Float64 returns a pointer to v, for filling optional control coordinates.
func Float64(v float64) *float64 { return &v }

func (p BezierPoint) Main() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

func (p BezierPoint) HasCP1() bool { return p.CP1X != nil && p.CP1Y != nil }
func (p BezierPoint) HasCP2() bool { return p.CP2X != nil && p.CP2Y != nil }

func (p BezierPoint) CP1() geometry.Point {
	if !p.HasCP1() {
		return p.Main()
	}
	return geometry.Point{X: *p.CP1X, Y: *p.CP1Y}
}

func (p BezierPoint) CP2() geometry.Point {
	if !p.HasCP2() {
		return p.Main()
	}
	return geometry.Point{X: *p.CP2X, Y: *p.CP2Y}
}

// Clone copies the optional control coordinates so the result shares no
// pointers with p.
func (p BezierPoint) Clone() BezierPoint {
	out := BezierPoint{X: p.X, Y: p.Y}
	if p.CP1X != nil {
		out.CP1X = Float64(*p.CP1X)
	}
	if p.CP1Y != nil {
		out.CP1Y = Float64(*p.CP1Y)
	}
	if p.CP2X != nil {
		out.CP2X = Float64(*p.CP2X)
	}
	if p.CP2Y != nil {
		out.CP2Y = Float64(*p.CP2Y)
	}
	return out
}

// BezierPath is the pre-shapes representation of a filled outline.
type BezierPath struct {
	Points []BezierPoint `json:"points" yaml:"points"`
	Color  string        `json:"color" yaml:"color"`
}

// Shape is a tagged variant. Only the fields belonging to Type are
// meaningful and only those are serialized.
type Shape struct {
	ID    string
	Type  ShapeType
	Color string

	// bezier
	Points []BezierPoint

	// circle
	Center geometry.Point
	Radius float64

	// line
	Start geometry.Point
	End   geometry.Point
}

type bezierWire struct {
	ID     string        `json:"id"`
	Type   ShapeType     `json:"type"`
	Color  string        `json:"color"`
	Points []BezierPoint `json:"points"`
}

type circleWire struct {
	ID     string         `json:"id"`
	Type   ShapeType      `json:"type"`
	Color  string         `json:"color"`
	Center geometry.Point `json:"center"`
	Radius float64        `json:"radius"`
}

type lineWire struct {
	ID    string         `json:"id"`
	Type  ShapeType      `json:"type"`
	Color string         `json:"color"`
	Start geometry.Point `json:"start"`
	End   geometry.Point `json:"end"`
}

type shapeWire struct {
	ID     string          `json:"id"`
	Type   ShapeType       `json:"type"`
	Color  string          `json:"color"`
	Points []BezierPoint   `json:"points"`
	Center *geometry.Point `json:"center"`
	Radius *float64        `json:"radius"`
	Start  *geometry.Point `json:"start"`
	End    *geometry.Point `json:"end"`
}

func (s Shape) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case ShapeBezier:
		points := s.Points
		if points == nil {
			points = []BezierPoint{}
		}
		return json.Marshal(bezierWire{ID: s.ID, Type: s.Type, Color: s.Color, Points: points})
	case ShapeCircle:
		return json.Marshal(circleWire{ID: s.ID, Type: s.Type, Color: s.Color, Center: s.Center, Radius: s.Radius})
	case ShapeLine:
		return json.Marshal(lineWire{ID: s.ID, Type: s.Type, Color: s.Color, Start: s.Start, End: s.End})
	}
	return nil, fmt.Errorf("marshal shape %q: %w: %q", s.ID, ErrUnknownShapeType, s.Type)
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var w shapeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Shape{ID: w.ID, Type: w.Type, Color: w.Color}
	switch w.Type {
	case ShapeBezier:
		if w.Points == nil {
			return fmt.Errorf("bezier shape %q: missing points", w.ID)
		}
		out.Points = w.Points
	case ShapeCircle:
		if w.Center == nil || w.Radius == nil {
			return fmt.Errorf("circle shape %q: missing center or radius", w.ID)
		}
		out.Center = *w.Center
		out.Radius = *w.Radius
	case ShapeLine:
		if w.Start == nil || w.End == nil {
			return fmt.Errorf("line shape %q: missing start or end", w.ID)
		}
		out.Start = *w.Start
		out.End = *w.End
	default:
		return fmt.Errorf("%w: %q", ErrUnknownShapeType, w.Type)
	}
	*s = out
	return nil
}

// Clone returns a copy of s whose point slice can be modified freely.
func (s Shape) Clone() Shape {
	out := s
	if s.Points != nil {
		out.Points = make([]BezierPoint, len(s.Points))
		for i, p := range s.Points {
			out.Points[i] = p.Clone()
		}
	}
	return out
}

// ShapeToBezierPath returns the legacy path form of a bezier shape. Circles
// and lines have no such form.
func ShapeToBezierPath(s Shape) (BezierPath, bool) {
	if s.Type != ShapeBezier {
		return BezierPath{}, false
	}
	c := s.Clone()
	return BezierPath{Points: c.Points, Color: c.Color}, true
}

// LegacyPaths converts every bezier shape in order, skipping the others.
func LegacyPaths(shapes []Shape) []BezierPath {
	paths := make([]BezierPath, 0, len(shapes))
	for _, s := range shapes {
		if p, ok := ShapeToBezierPath(s); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

type SymmetrySettings struct {
	Axes int `json:"axes" yaml:"axes"`
}

type ColorSettings struct {
	PupilColor string  `json:"pupilColor" yaml:"pupilColor"`
	PupilSize  float64 `json:"pupilSize" yaml:"pupilSize"`
}

// Speed is the rotation speed. It is stored as a one-element array, the way
// older records wrote it, and read back from an array or a bare number.
type Speed float64

func (s Speed) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{float64(s)})
}

func (s *Speed) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) == 0 {
			return errors.New("animation speed: empty array")
		}
		*s = Speed(arr[0])
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("animation speed: %w", err)
	}
	*s = Speed(v)
	return nil
}

// Design is the full persisted unit.
type Design struct {
	Shapes           []Shape          `json:"shapes"`
	SymmetrySettings SymmetrySettings `json:"symmetrySettings"`
	ColorSettings    ColorSettings    `json:"colorSettings"`
	AnimationSpeed   Speed            `json:"animationSpeed"`
}

// Clone deep-copies d, including every optional control coordinate.
func (d Design) Clone() Design {
	var out Design
	if err := copier.CopyWithOption(&out, &d, copier.Option{DeepCopy: true}); err != nil {
		out = Design{
			SymmetrySettings: d.SymmetrySettings,
			ColorSettings:    d.ColorSettings,
			AnimationSpeed:   d.AnimationSpeed,
		}
		out.Shapes = make([]Shape, len(d.Shapes))
		for i, s := range d.Shapes {
			out.Shapes[i] = s.Clone()
		}
	}
	return out
}

// Session is the autosaved record of the active design.
type Session struct {
	Design
	Timestamp int64 `json:"timestamp"`
}

// SavedDesign is a named snapshot in the saved-designs list.
type SavedDesign struct {
	Name string `json:"name"`
	Design
	BezierPaths []BezierPath `json:"bezierPaths,omitempty"`
	Timestamp   int64        `json:"timestamp"`
}

type SaveOptions struct {
	// LegacyMirror also writes bezierPaths for readers that predate shapes.
	LegacyMirror bool
}

// NewSavedDesign snapshots d. The result shares no memory with d.
func NewSavedDesign(name string, d Design, timestamp int64, opts SaveOptions) SavedDesign {
	snap := d.Clone()
	out := SavedDesign{Name: name, Design: snap, Timestamp: timestamp}
	if opts.LegacyMirror {
		out.BezierPaths = LegacyPaths(snap.Shapes)
	}
	return out
}
