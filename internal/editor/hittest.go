// Package editor implements pointer editing of a single selected shape:
// hit-testing its handles and dragging them inside the editor canvas.
package editor

import (
	"fmt"
	"math"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/geometry"
)

const (
	// PointTolerance is the hit distance for vertices, centers and endpoints.
	PointTolerance = 8.0
	// ControlTolerance is the hit distance for bezier control points.
	ControlTolerance = 6.0

	MinRadius = 10.0
	MaxRadius = 150.0
)

// HandleKind names the draggable part of a shape.
type HandleKind int

const (
	HandleNone HandleKind = iota
	HandlePoint
	HandleCP1
	HandleCP2
	HandleCenter
	HandleRadius
	HandleStart
	HandleEnd
)

func (k HandleKind) String() string {
	switch k {
	case HandlePoint:
		return "point"
	case HandleCP1:
		return "cp1"
	case HandleCP2:
		return "cp2"
	case HandleCenter:
		return "center"
	case HandleRadius:
		return "radius"
	case HandleStart:
		return "start"
	case HandleEnd:
		return "end"
	default:
		return "none"
	}
}

func (k HandleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *HandleKind) UnmarshalText(text []byte) error {
	for c := HandleNone; c <= HandleEnd; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown handle kind %q", text)
}

// Target is the result of a hit test. Index is the bezier vertex and is
// zero for the other shape kinds.
type Target struct {
	Kind  HandleKind `json:"kind"`
	Index int        `json:"index"`
}

func (t Target) Hit() bool { return t.Kind != HandleNone }

// HitTest finds the handle of s under p, in editor coordinates.
func HitTest(s document.Shape, p geometry.Point) Target {
	switch s.Type {
	case document.ShapeBezier:
		return hitBezier(s.Points, p)
	case document.ShapeCircle:
		return hitCircle(s.Center, s.Radius, p)
	case document.ShapeLine:
		return hitLine(s.Start, s.End, p)
	}
	return Target{}
}

// Earlier vertices win, and a vertex is tried before its own controls.
func hitBezier(points []document.BezierPoint, p geometry.Point) Target {
	for i, pt := range points {
		if geometry.WithinBox(p, pt.Main(), PointTolerance) {
			return Target{Kind: HandlePoint, Index: i}
		}
		if pt.HasCP1() && geometry.WithinBox(p, pt.CP1(), ControlTolerance) {
			return Target{Kind: HandleCP1, Index: i}
		}
		if pt.HasCP2() && geometry.WithinBox(p, pt.CP2(), ControlTolerance) {
			return Target{Kind: HandleCP2, Index: i}
		}
	}
	return Target{}
}

func hitCircle(center geometry.Point, radius float64, p geometry.Point) Target {
	d := geometry.Distance(p, center)
	if d < PointTolerance {
		return Target{Kind: HandleCenter}
	}
	handle := geometry.Point{X: center.X + radius, Y: center.Y}
	if geometry.Distance(p, handle) < PointTolerance {
		return Target{Kind: HandleRadius}
	}
	if math.Abs(d-radius) < PointTolerance {
		return Target{Kind: HandleRadius}
	}
	return Target{}
}

// A hit on the body of a line grabs the nearer endpoint; an exact tie grabs
// the end.
func hitLine(start, end, p geometry.Point) Target {
	ds := geometry.Distance(p, start)
	if ds < PointTolerance {
		return Target{Kind: HandleStart}
	}
	de := geometry.Distance(p, end)
	if de < PointTolerance {
		return Target{Kind: HandleEnd}
	}
	if geometry.PointToSegmentDistance(p, start, end) < PointTolerance {
		if ds < de {
			return Target{Kind: HandleStart}
		}
		return Target{Kind: HandleEnd}
	}
	return Target{}
}

// Handles lists every handle of s with its position, in the order HitTest
// tries them. The editor canvas draws these.
func Handles(s document.Shape) []Handle {
	var out []Handle
	switch s.Type {
	case document.ShapeBezier:
		for i, pt := range s.Points {
			out = append(out, Handle{Target: Target{Kind: HandlePoint, Index: i}, At: pt.Main()})
			if pt.HasCP1() {
				out = append(out, Handle{Target: Target{Kind: HandleCP1, Index: i}, At: pt.CP1()})
			}
			if pt.HasCP2() {
				out = append(out, Handle{Target: Target{Kind: HandleCP2, Index: i}, At: pt.CP2()})
			}
		}
	case document.ShapeCircle:
		out = append(out,
			Handle{Target: Target{Kind: HandleCenter}, At: s.Center},
			Handle{Target: Target{Kind: HandleRadius}, At: geometry.Point{X: s.Center.X + s.Radius, Y: s.Center.Y}},
		)
	case document.ShapeLine:
		out = append(out,
			Handle{Target: Target{Kind: HandleStart}, At: s.Start},
			Handle{Target: Target{Kind: HandleEnd}, At: s.End},
		)
	}
	return out
}

type Handle struct {
	Target
	At geometry.Point `json:"at"`
}
