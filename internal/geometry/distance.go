package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// Point is an {x, y} coordinate. Editor-space unless stated otherwise.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) coord() geom.Coord {
	return geom.Coord{X: p.X, Y: p.Y}
}

// Distance is the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return p.coord().DistanceFrom(q.coord())
}

// WithinBox reports whether q lies strictly inside the tol-sized box around p.
func WithinBox(p, q Point, tol float64) bool {
	return math.Abs(p.X-q.X) < tol && math.Abs(p.Y-q.Y) < tol
}

// PointToSegmentDistance projects p onto the line through a and b, clamps the
// projection to the segment and returns the distance to the clamped point.
// A zero-length segment measures the distance to a.
func PointToSegmentDistance(p, a, b Point) float64 {
	ap := p.coord().Minus(a.coord())
	ab := b.coord().Minus(a.coord())

	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return Distance(p, a)
	}

	t := (ap.X*ab.X + ap.Y*ab.Y) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := a.coord().Plus(ab.Times(t))
	return closest.DistanceFrom(p.coord())
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	r geom.Rect
}

// NewRect returns the rectangle spanning min and max.
func NewRect(min, max Point) Rect {
	r := geom.Rect{Min: min.coord(), Max: min.coord()}
	r.ExpandToContainCoord(max.coord())
	return Rect{r: r}
}

// Clamp pins p inside r.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: math.Max(r.r.Min.X, math.Min(r.r.Max.X, p.X)),
		Y: math.Max(r.r.Min.Y, math.Min(r.r.Max.Y, p.Y)),
	}
}
