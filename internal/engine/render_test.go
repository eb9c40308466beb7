package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/geometry"
)

const tol = 1e-9

func straightWedge() document.Shape {
	return document.Shape{
		ID:     "shape_wedge",
		Type:   document.ShapeBezier,
		Color:  "#000000",
		Points: []document.BezierPoint{{X: 150, Y: 150}, {X: 250, Y: 150}},
	}
}

func designOf(axes int, shapes ...document.Shape) document.Design {
	return document.Design{
		Shapes:           shapes,
		SymmetrySettings: document.SymmetrySettings{Axes: axes},
		ColorSettings:    document.ColorSettings{PupilColor: "#123456", PupilSize: 0.14},
	}
}

// pathPoints extracts every coordinate pair of a path, in order.
func pathPoints(t *testing.T, path []PathCommand) []geometry.Point {
	t.Helper()
	var out []geometry.Point
	for _, cmd := range path {
		for i := 1; i+1 < len(cmd); i += 2 {
			x, ok := cmd[i].(float64)
			require.True(t, ok)
			y, ok := cmd[i+1].(float64)
			require.True(t, ok)
			out = append(out, geometry.Point{X: x, Y: y})
		}
	}
	return out
}

func assertPointsNear(t *testing.T, want, got []geometry.Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, tol, "point %d x", i)
		assert.InDelta(t, want[i].Y, got[i].Y, tol, "point %d y", i)
	}
}

func TestRenderFrameLayers(t *testing.T) {
	line := document.NewLineShape()
	circle := document.NewCircleShape()
	f := RenderFrame(designOf(3, straightWedge(), line, circle), RenderOptions{Size: 400})

	require.Len(t, f.Commands, 2+3*3)
	bg := f.Commands[0]
	assert.Equal(t, LayerBackground, bg.Layer)
	assert.Equal(t, BackgroundFill, bg.Fill)
	assert.Equal(t, BackgroundStroke, bg.Stroke)
	assert.Equal(t, BackgroundStrokeWidth, bg.StrokeWidth)
	assert.Equal(t, []float64{1, 0, 0, 1, 200, 200}, bg.Transform)
	assert.InDelta(t, 160, pathPoints(t, bg.Path)[0].X, tol)

	pupil := f.Commands[len(f.Commands)-1]
	assert.Equal(t, LayerPupil, pupil.Layer)
	assert.Equal(t, "#123456", pupil.Fill)
	assert.InDelta(t, 160*0.14, pathPoints(t, pupil.Path)[0].X, tol)

	ids := []string{"shape_wedge", line.ID, circle.ID}
	for s, id := range ids {
		for axis := 0; axis < 3; axis++ {
			cmd := f.Commands[1+s*3+axis]
			assert.Equal(t, LayerShape, cmd.Layer)
			assert.Equal(t, id, cmd.ObjectID)
			assert.Equal(t, axis, cmd.Axis)
		}
	}

	l := f.Commands[1+3]
	assert.Equal(t, "#000000", l.Stroke)
	assert.Equal(t, LineWidth, l.StrokeWidth)
	assert.Empty(t, l.Fill)
}

func TestRenderSingleAxisIsPlainTransform(t *testing.T) {
	shape := document.Shape{
		ID:    "s",
		Type:  document.ShapeBezier,
		Color: "#000000",
		Points: []document.BezierPoint{
			{X: 120, Y: 80, CP2X: document.Float64(140), CP2Y: document.Float64(60)},
			{X: 220, Y: 190, CP1X: document.Float64(200), CP1Y: document.Float64(210)},
			{X: 90, Y: 230},
		},
	}
	f := RenderFrame(designOf(1, shape), RenderOptions{Size: 400})
	cmds := shapeCommands(f, "s")
	require.Len(t, cmds, 1)

	scale := geometry.PreviewScale(geometry.PreviewRadius(400))
	var want []geometry.Point
	for _, p := range []geometry.Point{{X: 120, Y: 80}, {X: 140, Y: 60}, {X: 200, Y: 210}, {X: 220, Y: 190}, {X: 90, Y: 230}} {
		x, y := geometry.EditorToPreview(p.X, p.Y, scale)
		want = append(want, geometry.Point{X: x, Y: y})
	}
	assertPointsNear(t, want, pathPoints(t, cmds[0].Path))

	ops := make([]string, len(cmds[0].Path))
	for i, c := range cmds[0].Path {
		ops[i] = c[0].(string)
	}
	assert.Equal(t, []string{"M", "C", "L", "Z"}, ops)
}

func TestRenderRotationPeriodic(t *testing.T) {
	d := designOf(5, straightWedge(), document.NewCircleShape(), document.NewLineShape())
	theta := 0.73

	a := RenderFrame(d, RenderOptions{Rotation: theta})
	b := RenderFrame(d, RenderOptions{Rotation: theta + 2*math.Pi})
	require.Len(t, b.Commands, len(a.Commands))
	for i := range a.Commands {
		assertPointsNear(t, pathPoints(t, a.Commands[i].Path), pathPoints(t, b.Commands[i].Path))
	}
}

func TestRenderSymmetryCompleteness(t *testing.T) {
	for _, k := range []int{1, 2, 3, 4, 7} {
		theta := 0.4
		f := RenderFrame(designOf(k, straightWedge()), RenderOptions{Rotation: theta})
		cmds := shapeCommands(f, "shape_wedge")
		require.Len(t, cmds, k)

		base := RenderFrame(designOf(1, straightWedge()), RenderOptions{})
		basePts := pathPoints(t, base.Commands[1].Path)
		for i, cmd := range cmds {
			rot := geometry.Rotate(theta + float64(i)*2*math.Pi/float64(k))
			var want []geometry.Point
			for _, p := range basePts {
				want = append(want, rot.Apply(p))
			}
			assertPointsNear(t, want, pathPoints(t, cmd.Path))
		}
	}
}

func TestRenderThreeStraightWedges(t *testing.T) {
	e := newTestEngine(t)
	e.LoadDesign(designOf(3, straightWedge()))
	e.SetAnimationSpeed(0)

	first := e.Tick()
	second := e.Tick()

	cmds := shapeCommands(first, "shape_wedge")
	require.Len(t, cmds, 3)
	for i, cmd := range cmds {
		require.Len(t, cmd.Path, 3)
		assert.Equal(t, "M", cmd.Path[0][0])
		assert.Equal(t, "L", cmd.Path[1][0])
		assert.Equal(t, "Z", cmd.Path[2][0])

		end := pathPoints(t, cmd.Path)[1]
		angle := math.Atan2(end.Y, end.X)
		want := math.Remainder(float64(i)*2*math.Pi/3, 2*math.Pi)
		assert.InDelta(t, want, angle, tol)
	}

	require.Len(t, second.Commands, len(first.Commands))
	for i := range first.Commands {
		assertPointsNear(t, pathPoints(t, first.Commands[i].Path), pathPoints(t, second.Commands[i].Path))
	}
}

func TestRenderEdgeCases(t *testing.T) {
	short := document.Shape{ID: "short", Type: document.ShapeBezier, Points: []document.BezierPoint{{X: 1, Y: 1}}}
	f := RenderFrame(designOf(3, short), RenderOptions{})
	assert.Empty(t, shapeCommands(f, "short"))
	assert.Len(t, f.Commands, 2)

	f = RenderFrame(designOf(0, straightWedge()), RenderOptions{})
	assert.Len(t, shapeCommands(f, "shape_wedge"), 1)
	assert.Equal(t, float64(geometry.PreviewSize), f.Size)
}

func TestRenderCircleScalesRadius(t *testing.T) {
	c := document.Shape{ID: "c", Type: document.ShapeCircle, Color: "#fff", Center: geometry.Point{X: 100, Y: 150}, Radius: 50}
	f := RenderFrame(designOf(1, c), RenderOptions{Size: 200})

	pts := pathPoints(t, shapeCommands(f, "c")[0].Path)
	scale := geometry.PreviewScale(geometry.PreviewRadius(200))
	assert.InDelta(t, 50*scale, pts[0].X, tol)
	assert.InDelta(t, 0, pts[0].Y, tol)
	assert.Equal(t, "#fff", shapeCommands(f, "c")[0].Fill)
}

// shapeCommands returns the commands drawn for one object, in order.
func shapeCommands(f Frame, objectID string) []DrawCommand {
	var out []DrawCommand
	for _, c := range f.Commands {
		if c.ObjectID == objectID {
			out = append(out, c)
		}
	}
	return out
}
