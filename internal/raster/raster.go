// Package raster turns rendered frames into images for thumbnails and
// animated exports.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/geometry"
)

// curveSteps is how many line segments a cubic is flattened into for strokes.
const curveSteps = 16

// ParseColor reads #rgb or #rrggbb. Anything else is an error.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

func mustColor(hex string) color.RGBA {
	c, err := ParseColor(hex)
	if err != nil {
		slog.Warn("drawing unknown color as black", "color", hex)
		return color.RGBA{A: 0xff}
	}
	return c
}

// Rasterize draws f onto a transparent square image of f.Size pixels.
func Rasterize(f engine.Frame) *image.RGBA {
	size := int(math.Ceil(f.Size))
	if size <= 0 {
		size = int(geometry.PreviewSize)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	r := &renderer{dst: img, ras: vector.NewRasterizer(size, size)}
	for _, cmd := range f.Commands {
		r.draw(cmd)
	}
	return img
}

// EncodePNG rasterizes f and writes it as a PNG.
func EncodePNG(w io.Writer, f engine.Frame) error {
	return png.Encode(w, Rasterize(f))
}

type renderer struct {
	dst *image.RGBA
	ras *vector.Rasterizer
}

func (r *renderer) draw(cmd engine.DrawCommand) {
	if cmd.Op != "path" || len(cmd.Path) == 0 {
		return
	}
	m := geometry.Identity()
	if len(cmd.Transform) == 6 {
		copy(m[:], cmd.Transform)
	}

	if cmd.Fill != "" {
		r.reset()
		r.fill(cmd.Path, m)
		r.paint(mustColor(cmd.Fill))
	}
	if cmd.Stroke != "" && cmd.StrokeWidth > 0 {
		r.reset()
		for _, line := range flatten(cmd.Path, m) {
			strokePolyline(r.ras, line, cmd.StrokeWidth)
		}
		r.paint(mustColor(cmd.Stroke))
	}
}

func (r *renderer) reset() {
	b := r.dst.Bounds()
	r.ras.Reset(b.Dx(), b.Dy())
	r.ras.DrawOp = draw.Over
}

func (r *renderer) paint(c color.RGBA) {
	r.ras.Draw(r.dst, r.dst.Bounds(), image.NewUniform(c), image.Point{})
}

func (r *renderer) fill(path []engine.PathCommand, m geometry.Matrix2D) {
	open := false
	for _, cmd := range path {
		pts, op := points(cmd, m)
		switch op {
		case "M":
			if open {
				r.ras.ClosePath()
			}
			r.ras.MoveTo(pts[0].x, pts[0].y)
			open = true
		case "L":
			r.ras.LineTo(pts[0].x, pts[0].y)
		case "C":
			r.ras.CubeTo(pts[0].x, pts[0].y, pts[1].x, pts[1].y, pts[2].x, pts[2].y)
		case "Z":
			r.ras.ClosePath()
			open = false
		}
	}
	if open {
		r.ras.ClosePath()
	}
}

type pt32 struct{ x, y float32 }

// points decodes the coordinates of one path command through m.
func points(cmd engine.PathCommand, m geometry.Matrix2D) ([]pt32, string) {
	if len(cmd) == 0 {
		return nil, ""
	}
	op, _ := cmd[0].(string)
	want := map[string]int{"M": 1, "L": 1, "C": 3, "Z": 0}[op]
	if len(cmd) < 1+2*want {
		return nil, ""
	}
	out := make([]pt32, want)
	for i := 0; i < want; i++ {
		x, _ := cmd[1+2*i].(float64)
		y, _ := cmd[2+2*i].(float64)
		p := m.Apply(geometry.Point{X: x, Y: y})
		out[i] = pt32{float32(p.X), float32(p.Y)}
	}
	return out, op
}

// flatten converts a path into polylines, one per subpath.
func flatten(path []engine.PathCommand, m geometry.Matrix2D) [][]pt32 {
	var lines [][]pt32
	var cur []pt32
	for _, cmd := range path {
		pts, op := points(cmd, m)
		switch op {
		case "M":
			if len(cur) > 1 {
				lines = append(lines, cur)
			}
			cur = []pt32{pts[0]}
		case "L":
			cur = append(cur, pts[0])
		case "C":
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= curveSteps; i++ {
				cur = append(cur, cubicAt(p0, pts[0], pts[1], pts[2], float32(i)/curveSteps))
			}
		case "Z":
			if len(cur) > 1 {
				cur = append(cur, cur[0])
			}
		}
	}
	if len(cur) > 1 {
		lines = append(lines, cur)
	}
	return lines
}

func cubicAt(p0, p1, p2, p3 pt32, t float32) pt32 {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return pt32{
		x: a*p0.x + b*p1.x + c*p2.x + d*p3.x,
		y: a*p0.y + b*p1.y + c*p2.y + d*p3.y,
	}
}

// strokePolyline adds one quad per segment. All quads wind the same way, so
// the nonzero rule fills their union.
func strokePolyline(ras *vector.Rasterizer, line []pt32, width float64) {
	half := float32(width / 2)
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		dx, dy := b.x-a.x, b.y-a.y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		ras.MoveTo(a.x+nx, a.y+ny)
		ras.LineTo(b.x+nx, b.y+ny)
		ras.LineTo(b.x-nx, b.y-ny)
		ras.LineTo(a.x-nx, a.y-ny)
		ras.ClosePath()
	}
}
