package document

import (
	"time"

	"github.com/onlyil/sharingan-design/internal/geometry"
	"github.com/onlyil/sharingan-design/internal/typeid"
)

const (
	DefaultShapeColor = "#000000"
	DefaultPupilColor = "#e70808"
	DefaultPupilSize  = 0.14
	DefaultAxes       = 3

	// DefaultActiveSpeed is the speed of a freshly opened editor; records
	// that omit a speed load as stationary instead.
	DefaultActiveSpeed Speed = 0.2

	// Jitter is the half-width of the random offset applied to new points.
	Jitter = 20.0

	DefaultCircleRadius = 50.0
)

// Rand is the randomness new shapes draw their jitter from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

func jitter(r Rand, v float64) float64 {
	return v + r.Float64()*2*Jitter - Jitter
}

func jitteredPoint(r Rand, x, y, cp1x, cp1y, cp2x, cp2y float64) BezierPoint {
	return BezierPoint{
		X:    jitter(r, x),
		Y:    jitter(r, y),
		CP1X: Float64(jitter(r, cp1x)),
		CP1Y: Float64(jitter(r, cp1y)),
		CP2X: Float64(jitter(r, cp2x)),
		CP2Y: Float64(jitter(r, cp2y)),
	}
}

// NewPathPoints returns the two-vertex starting path of a new bezier shape.
func NewPathPoints(r Rand) []BezierPoint {
	return []BezierPoint{
		jitteredPoint(r, 160, 120, 140, 100, 180, 140),
		jitteredPoint(r, 200, 160, 180, 140, 220, 180),
	}
}

// NewInsertedPoint is the vertex added at either end of a path.
func NewInsertedPoint(r Rand) BezierPoint {
	return jitteredPoint(r, 180, 140, 160, 120, 200, 160)
}

func NewBezierShape(r Rand) Shape {
	return Shape{
		ID:     typeid.NewShapeID(),
		Type:   ShapeBezier,
		Color:  DefaultShapeColor,
		Points: NewPathPoints(r),
	}
}

func NewCircleShape() Shape {
	return Shape{
		ID:     typeid.NewShapeID(),
		Type:   ShapeCircle,
		Color:  DefaultShapeColor,
		Center: geometry.Point{X: 200, Y: 150},
		Radius: DefaultCircleRadius,
	}
}

func NewLineShape() Shape {
	return Shape{
		ID:    typeid.NewShapeID(),
		Type:  ShapeLine,
		Color: DefaultShapeColor,
		Start: geometry.Point{X: 150, Y: 100},
		End:   geometry.Point{X: 250, Y: 200},
	}
}

// NewShape builds the default shape of type t.
func NewShape(t ShapeType, r Rand) (Shape, error) {
	switch t {
	case ShapeBezier:
		return NewBezierShape(r), nil
	case ShapeCircle:
		return NewCircleShape(), nil
	case ShapeLine:
		return NewLineShape(), nil
	}
	_, err := ParseShapeType(string(t))
	return Shape{}, err
}

// BezierPathToShape wraps a legacy path in a bezier shape with a fresh id.
func BezierPathToShape(p BezierPath) Shape {
	points := make([]BezierPoint, len(p.Points))
	for i, pt := range p.Points {
		points[i] = pt.Clone()
	}
	return Shape{
		ID:     typeid.NewShapeID(),
		Type:   ShapeBezier,
		Color:  p.Color,
		Points: points,
	}
}

func DefaultSymmetry() SymmetrySettings {
	return SymmetrySettings{Axes: DefaultAxes}
}

func DefaultColorSettings() ColorSettings {
	return ColorSettings{PupilColor: DefaultPupilColor, PupilSize: DefaultPupilSize}
}

// DefaultDesignName is the suggested name for a new snapshot, e.g.
// Design_03141509 for March 14 at 15:09.
func DefaultDesignName(now time.Time) string {
	return "Design_" + now.Format("01021504")
}
