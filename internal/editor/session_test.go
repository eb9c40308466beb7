package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyil/sharingan-design/internal/document"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type recorder struct {
	shapes []document.Shape
}

func (r *recorder) onChange(s document.Shape) { r.shapes = append(r.shapes, s) }

func threePointPath() document.Shape {
	return bezier(
		document.BezierPoint{X: 20, Y: 20},
		document.BezierPoint{X: 150, Y: 150},
		document.BezierPoint{X: 280, Y: 280},
	)
}

func TestSessionDragIsCopyOnWrite(t *testing.T) {
	rec := &recorder{}
	orig := threePointPath()
	s := NewSession(orig, fixedRand(0.5), rec.onChange)

	require.True(t, s.PointerDown(pt(150, 150)))
	assert.Equal(t, StateDragging, s.State())

	require.True(t, s.PointerMove(pt(160, 170)))
	require.Len(t, rec.shapes, 1)
	assert.Equal(t, 160.0, rec.shapes[0].Points[1].X)
	assert.Equal(t, 170.0, rec.shapes[0].Points[1].Y)
	assert.Equal(t, 150.0, orig.Points[1].X, "original value untouched")

	first := rec.shapes[0]
	require.True(t, s.PointerMove(pt(165, 175)))
	assert.Equal(t, 160.0, first.Points[1].X, "earlier callback value untouched")
	assert.Equal(t, 165.0, s.Shape().Points[1].X)

	s.PointerUp()
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.PointerMove(pt(10, 10)))
	assert.Len(t, rec.shapes, 2)

	idx, ok := s.SelectedPoint()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestSessionDragClampsToCanvas(t *testing.T) {
	s := NewSession(threePointPath(), fixedRand(0.5), nil)
	require.True(t, s.PointerDown(pt(280, 280)))
	require.True(t, s.PointerMove(pt(350, -10)))

	p := s.Shape().Points[2]
	assert.Equal(t, 300.0, p.X)
	assert.Equal(t, 0.0, p.Y)
}

func TestSessionDragControlPoint(t *testing.T) {
	s := NewSession(bezier(withControls(100, 100, 60, 60, 140, 140), document.BezierPoint{X: 200, Y: 200}), nil, nil)
	require.True(t, s.PointerDown(pt(61, 59)))
	assert.Equal(t, Target{Kind: HandleCP1, Index: 0}, s.Selection())

	require.True(t, s.PointerMove(pt(10, 20)))
	p := s.Shape().Points[0]
	assert.Equal(t, 10.0, *p.CP1X)
	assert.Equal(t, 20.0, *p.CP1Y)
	assert.Equal(t, 100.0, p.X)
}

func TestSessionCircleRadiusClamp(t *testing.T) {
	circle := document.Shape{ID: "c", Type: document.ShapeCircle, Center: pt(200, 150), Radius: 50}
	s := NewSession(circle, nil, nil)

	require.True(t, s.PointerDown(pt(250, 150)))
	assert.Equal(t, HandleRadius, s.Selection().Kind)

	s.PointerMove(pt(205, 150))
	assert.Equal(t, MinRadius, s.Shape().Radius)

	s.PointerMove(pt(400, 400))
	assert.Equal(t, MaxRadius, s.Shape().Radius)

	s.PointerMove(pt(200, 230))
	assert.InDelta(t, 80, s.Shape().Radius, 1e-9)
}

func TestSessionLineDrag(t *testing.T) {
	line := document.Shape{ID: "l", Type: document.ShapeLine, Start: pt(150, 100), End: pt(250, 200)}
	s := NewSession(line, nil, nil)

	require.True(t, s.PointerDown(pt(230, 180)))
	assert.Equal(t, HandleEnd, s.Selection().Kind)
	s.PointerMove(pt(260, 100))
	assert.Equal(t, pt(260, 100), s.Shape().End)
	assert.Equal(t, pt(150, 100), s.Shape().Start)

	s.PointerLeave()
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionMissKeepsSelection(t *testing.T) {
	s := NewSession(threePointPath(), nil, nil)
	require.True(t, s.PointerDown(pt(20, 20)))
	s.PointerUp()

	assert.False(t, s.PointerDown(pt(100, 10)))
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, Target{Kind: HandlePoint, Index: 0}, s.Selection())
}

func TestAddPointAtStart(t *testing.T) {
	rec := &recorder{}
	s := NewSession(threePointPath(), fixedRand(0.5), rec.onChange)
	require.True(t, s.PointerDown(pt(20, 20)))
	s.PointerUp()

	require.NoError(t, s.AddPoint())
	got := s.Shape().Points
	require.Len(t, got, 4)
	assert.Equal(t, 180.0, got[0].X)
	assert.Equal(t, 140.0, got[0].Y)
	assert.Equal(t, 20.0, got[1].X)

	idx, ok := s.SelectedPoint()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Len(t, rec.shapes, 1)
}

func TestAddPointAtEnd(t *testing.T) {
	s := NewSession(threePointPath(), fixedRand(0.5), nil)
	require.True(t, s.PointerDown(pt(280, 280)))

	require.NoError(t, s.AddPoint())
	got := s.Shape().Points
	require.Len(t, got, 4)
	assert.Equal(t, 280.0, got[2].X)
	assert.Equal(t, 180.0, got[3].X)

	idx, ok := s.SelectedPoint()
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestAddPointRejections(t *testing.T) {
	rec := &recorder{}
	s := NewSession(threePointPath(), fixedRand(0.5), rec.onChange)

	assert.ErrorIs(t, s.AddPoint(), ErrNoSelection)
	assert.False(t, s.CanAddPoint())

	require.True(t, s.PointerDown(pt(150, 150)))
	assert.ErrorIs(t, s.AddPoint(), ErrNotEndpoint)
	assert.ErrorIs(t, s.RemovePoint(), ErrNotEndpoint)
	assert.Len(t, s.Shape().Points, 3)
	assert.Empty(t, rec.shapes)

	circle := NewSession(document.Shape{Type: document.ShapeCircle, Center: pt(1, 1), Radius: 20}, nil, nil)
	assert.ErrorIs(t, circle.AddPoint(), ErrNotBezier)
	assert.ErrorIs(t, circle.RemovePoint(), ErrNotBezier)
}

func TestRemovePoint(t *testing.T) {
	s := NewSession(threePointPath(), nil, nil)
	require.True(t, s.PointerDown(pt(280, 280)))
	assert.True(t, s.CanRemovePoint())

	require.NoError(t, s.RemovePoint())
	assert.Len(t, s.Shape().Points, 2)
	_, ok := s.SelectedPoint()
	assert.False(t, ok)

	require.True(t, s.PointerDown(pt(20, 20)))
	assert.ErrorIs(t, s.RemovePoint(), ErrTooFewPoints)
	assert.Len(t, s.Shape().Points, 2)
}

func TestSyncKeepsValidSelection(t *testing.T) {
	s := NewSession(threePointPath(), nil, nil)
	require.True(t, s.PointerDown(pt(280, 280)))
	s.PointerUp()

	recolored := s.Shape()
	recolored.Color = "#ff0000"
	s.Sync(recolored)
	assert.Equal(t, Target{Kind: HandlePoint, Index: 2}, s.Selection())

	other := threePointPath()
	other.ID = "shape_other"
	s.Sync(other)
	assert.False(t, s.Selection().Hit())
}
