package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewScale(t *testing.T) {
	r := PreviewRadius(PreviewSize)
	assert.InDelta(t, 160.0, r, tol)
	assert.InDelta(t, 0.8, PreviewScale(r), tol)
}

func TestEditorToPreview(t *testing.T) {
	x, y := EditorToPreview(CenterX, CenterY, 0.8)
	assert.Zero(t, x)
	assert.Zero(t, y)

	x, y = EditorToPreview(200, 100, 0.5)
	assert.InDelta(t, 50.0, x, tol)
	assert.InDelta(t, -25.0, y, tol)
}

func TestEditorToPreviewMatrixMatchesFunction(t *testing.T) {
	scale := PreviewScale(PreviewRadius(PreviewSize))
	m := EditorToPreviewMatrix(scale)

	for _, p := range []Point{{0, 0}, {300, 300}, {51, 110}, {CenterX, CenterY}} {
		x, y := EditorToPreview(p.X, p.Y, scale)
		assertPointNear(t, Point{X: x, Y: y}, m.Apply(p))
	}
}

func TestReferenceCircleLandsOnPreviewDisc(t *testing.T) {
	radius := PreviewRadius(PreviewSize)
	scale := PreviewScale(radius)
	ref := ReferenceCircle()

	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		p := Point{
			X: ref.Center.X + ref.Radius*math.Cos(a),
			Y: ref.Center.Y + ref.Radius*math.Sin(a),
		}
		x, y := EditorToPreview(p.X, p.Y, scale)
		require.InDelta(t, radius, math.Hypot(x, y), tol)
	}
}

func TestPupilCircle(t *testing.T) {
	c := PupilCircle(0.14)
	assert.Equal(t, Point{X: CenterX, Y: CenterY}, c.Center)
	assert.InDelta(t, 28.0, c.Radius, tol)
}
