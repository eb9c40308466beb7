package engine

import (
	"math"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/geometry"
)

const (
	BackgroundFill        = "#B20000"
	BackgroundStroke      = "#000000"
	BackgroundStrokeWidth = 6.0
	LineWidth             = 3.0

	backgroundID = "background"
	pupilID      = "pupil"
)

// Magic number for bezier approximation of a circle
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
const kappa = 0.5522847498

type RenderOptions struct {
	Size     float64 // preview canvas edge; PreviewSize when zero
	Rotation float64 // radians
}

// RenderFrame draws the background disc, every shape once per symmetry axis
// in list order, then the pupil on top.
func RenderFrame(d document.Design, opts RenderOptions) Frame {
	size := opts.Size
	if size <= 0 {
		size = geometry.PreviewSize
	}
	radius := geometry.PreviewRadius(size)
	scale := geometry.PreviewScale(radius)
	canvas := geometry.Translate(size/2, size/2).ToSlice()

	axes := d.SymmetrySettings.Axes
	if axes < 1 {
		axes = 1
	}

	commands := make([]DrawCommand, 0, 2+len(d.Shapes)*axes)
	commands = append(commands, DrawCommand{
		Op:          "path",
		Layer:       LayerBackground,
		ObjectID:    backgroundID,
		Transform:   canvas,
		Path:        circlePath(geometry.Point{}, radius),
		Fill:        BackgroundFill,
		Stroke:      BackgroundStroke,
		StrokeWidth: BackgroundStrokeWidth,
	})

	toPreview := geometry.EditorToPreviewMatrix(scale)
	for _, shape := range d.Shapes {
		for i := 0; i < axes; i++ {
			angle := opts.Rotation + float64(i)*2*math.Pi/float64(axes)
			m := geometry.Rotate(angle).Multiply(toPreview)
			cmd, ok := shapeCommand(shape, m, scale)
			if !ok {
				continue
			}
			cmd.Axis = i
			cmd.Transform = canvas
			commands = append(commands, cmd)
		}
	}

	commands = append(commands, DrawCommand{
		Op:        "path",
		Layer:     LayerPupil,
		ObjectID:  pupilID,
		Transform: canvas,
		Path:      circlePath(geometry.Point{}, radius*d.ColorSettings.PupilSize),
		Fill:      d.ColorSettings.PupilColor,
	})

	return Frame{Size: size, Rotation: opts.Rotation, Commands: commands}
}

// shapeCommand draws one symmetry copy of shape through m. Bezier paths with
// fewer than two points draw nothing.
func shapeCommand(shape document.Shape, m geometry.Matrix2D, scale float64) (DrawCommand, bool) {
	cmd := DrawCommand{Op: "path", Layer: LayerShape, ObjectID: shape.ID}
	switch shape.Type {
	case document.ShapeBezier:
		if len(shape.Points) < 2 {
			return DrawCommand{}, false
		}
		cmd.Path = bezierPath(shape.Points, m)
		cmd.Fill = shape.Color
	case document.ShapeCircle:
		cmd.Path = circlePath(m.Apply(shape.Center), shape.Radius*scale)
		cmd.Fill = shape.Color
	case document.ShapeLine:
		start, end := m.Apply(shape.Start), m.Apply(shape.End)
		cmd.Path = []PathCommand{{"M", start.X, start.Y}, {"L", end.X, end.Y}}
		cmd.Stroke = shape.Color
		cmd.StrokeWidth = LineWidth
	default:
		return DrawCommand{}, false
	}
	return cmd, true
}

// A segment is cubic when the previous vertex has an outgoing control and
// the current one an incoming control.
func bezierPath(points []document.BezierPoint, m geometry.Matrix2D) []PathCommand {
	first := m.Apply(points[0].Main())
	path := make([]PathCommand, 0, len(points)+1)
	path = append(path, PathCommand{"M", first.X, first.Y})
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		p := m.Apply(cur.Main())
		if prev.HasCP2() && cur.HasCP1() {
			c1 := m.Apply(prev.CP2())
			c2 := m.Apply(cur.CP1())
			path = append(path, PathCommand{"C", c1.X, c1.Y, c2.X, c2.Y, p.X, p.Y})
		} else {
			path = append(path, PathCommand{"L", p.X, p.Y})
		}
	}
	return append(path, PathCommand{"Z"})
}

// circlePath approximates a circle with four cubic curves.
func circlePath(c geometry.Point, r float64) []PathCommand {
	k := r * kappa
	return []PathCommand{
		{"M", c.X + r, c.Y},
		{"C", c.X + r, c.Y + k, c.X + k, c.Y + r, c.X, c.Y + r},
		{"C", c.X - k, c.Y + r, c.X - r, c.Y + k, c.X - r, c.Y},
		{"C", c.X - r, c.Y - k, c.X - k, c.Y - r, c.X, c.Y - r},
		{"C", c.X + k, c.Y - r, c.X + r, c.Y - k, c.X + r, c.Y},
		{"Z"},
	}
}
