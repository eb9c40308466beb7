package editor

import (
	"errors"
	"math"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/geometry"
)

var (
	ErrNotBezier    = errors.New("shape is not a bezier path")
	ErrNoSelection  = errors.New("no point selected")
	ErrNotEndpoint  = errors.New("selected point is not the first or last point")
	ErrTooFewPoints = errors.New("path must keep at least two points")
)

type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}
	return "idle"
}

// Session edits one shape. Every change produces a new shape value, which is
// passed to onChange before the call returns; shapes handed out earlier are
// never modified.
type Session struct {
	shape     document.Shape
	state     State
	selection Target
	rng       document.Rand
	onChange  func(document.Shape)
}

func NewSession(shape document.Shape, rng document.Rand, onChange func(document.Shape)) *Session {
	return &Session{shape: shape, rng: rng, onChange: onChange}
}

func (s *Session) Shape() document.Shape { return s.shape }
func (s *Session) State() State          { return s.state }

// Selection is the handle last grabbed, kept after the drag ends.
func (s *Session) Selection() Target { return s.selection }

// SelectedPoint reports the selected bezier vertex.
func (s *Session) SelectedPoint() (int, bool) {
	if s.shape.Type != document.ShapeBezier || !isVertexHandle(s.selection.Kind) {
		return 0, false
	}
	return s.selection.Index, true
}

// Reset switches the session to another shape, clearing selection and drag.
func (s *Session) Reset(shape document.Shape) {
	s.shape = shape
	s.state = StateIdle
	s.selection = Target{}
}

// Sync replaces the shape after an outside change such as a recolor. The
// selection survives when it still names an existing handle.
func (s *Session) Sync(shape document.Shape) {
	if shape.ID != s.shape.ID || shape.Type != s.shape.Type {
		s.Reset(shape)
		return
	}
	s.shape = shape
	if shape.Type == document.ShapeBezier && s.selection.Index >= len(shape.Points) {
		s.selection = Target{}
		s.state = StateIdle
	}
}

// PointerDown starts a drag when p hits a handle. A miss leaves the
// selection alone.
func (s *Session) PointerDown(p geometry.Point) bool {
	t := HitTest(s.shape, p)
	if !t.Hit() {
		return false
	}
	s.selection = t
	s.state = StateDragging
	return true
}

// PointerMove drags the selected handle to p, clamped to the canvas.
func (s *Session) PointerMove(p geometry.Point) bool {
	if s.state != StateDragging {
		return false
	}
	p = geometry.EditorBounds().Clamp(p)
	next, ok := moveHandle(s.shape, s.selection, p)
	if !ok {
		return false
	}
	s.commit(next)
	return true
}

func (s *Session) PointerUp()    { s.state = StateIdle }
func (s *Session) PointerLeave() { s.state = StateIdle }

// AddPoint inserts a vertex before the first or after the last point,
// whichever is selected, and selects it.
func (s *Session) AddPoint() error {
	idx, err := s.selectedEndpoint()
	if err != nil {
		return err
	}

	pt := document.NewInsertedPoint(s.rng)
	points := s.shape.Clone().Points
	next := s.shape
	if idx == 0 {
		next.Points = append([]document.BezierPoint{pt}, points...)
		s.selection = Target{Kind: HandlePoint, Index: 0}
	} else {
		next.Points = append(points, pt)
		s.selection = Target{Kind: HandlePoint, Index: len(points)}
	}
	s.commit(next)
	return nil
}

// RemovePoint drops the selected first or last vertex of a path longer than
// two points. The selection is cleared.
func (s *Session) RemovePoint() error {
	if s.shape.Type != document.ShapeBezier {
		return ErrNotBezier
	}
	if len(s.shape.Points) <= 2 {
		return ErrTooFewPoints
	}
	idx, err := s.selectedEndpoint()
	if err != nil {
		return err
	}

	next := s.shape.Clone()
	next.Points = append(next.Points[:idx], next.Points[idx+1:]...)
	s.selection = Target{}
	s.state = StateIdle
	s.commit(next)
	return nil
}

// CanAddPoint and CanRemovePoint report whether the edits would be accepted.
func (s *Session) CanAddPoint() bool {
	_, err := s.selectedEndpoint()
	return err == nil
}

func (s *Session) CanRemovePoint() bool {
	_, err := s.selectedEndpoint()
	return err == nil && len(s.shape.Points) > 2
}

func (s *Session) selectedEndpoint() (int, error) {
	if s.shape.Type != document.ShapeBezier {
		return 0, ErrNotBezier
	}
	idx, ok := s.SelectedPoint()
	if !ok || idx >= len(s.shape.Points) {
		return 0, ErrNoSelection
	}
	if idx != 0 && idx != len(s.shape.Points)-1 {
		return 0, ErrNotEndpoint
	}
	return idx, nil
}

func (s *Session) commit(next document.Shape) {
	s.shape = next
	if s.onChange != nil {
		s.onChange(next)
	}
}

func isVertexHandle(k HandleKind) bool {
	return k == HandlePoint || k == HandleCP1 || k == HandleCP2
}

// moveHandle returns a copy of shape with handle t placed at p.
func moveHandle(shape document.Shape, t Target, p geometry.Point) (document.Shape, bool) {
	next := shape.Clone()
	switch shape.Type {
	case document.ShapeBezier:
		if !isVertexHandle(t.Kind) || t.Index < 0 || t.Index >= len(next.Points) {
			return shape, false
		}
		pt := &next.Points[t.Index]
		switch t.Kind {
		case HandlePoint:
			pt.X, pt.Y = p.X, p.Y
		case HandleCP1:
			pt.CP1X, pt.CP1Y = document.Float64(p.X), document.Float64(p.Y)
		case HandleCP2:
			pt.CP2X, pt.CP2Y = document.Float64(p.X), document.Float64(p.Y)
		}
	case document.ShapeCircle:
		switch t.Kind {
		case HandleCenter:
			next.Center = p
		case HandleRadius:
			next.Radius = clampRadius(geometry.Distance(next.Center, p))
		default:
			return shape, false
		}
	case document.ShapeLine:
		switch t.Kind {
		case HandleStart:
			next.Start = p
		case HandleEnd:
			next.End = p
		default:
			return shape, false
		}
	default:
		return shape, false
	}
	return next, true
}

func clampRadius(r float64) float64 {
	return math.Max(MinRadius, math.Min(MaxRadius, r))
}
