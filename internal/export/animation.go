package export

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/raster"
)

const (
	DefaultFPS    = 24
	DefaultFrames = 60
	MaxFrames     = 600
	MaxFPS        = 120
)

// Options control an animated export. Zero values fall back to defaults.
type Options struct {
	Frames int
	FPS    int
	Size   float64
}

func (o Options) normalized() Options {
	if o.FPS <= 0 || o.FPS > MaxFPS {
		o.FPS = DefaultFPS
	}
	if o.Frames <= 0 {
		o.Frames = DefaultFrames
	}
	if o.Frames > MaxFrames {
		o.Frames = MaxFrames
	}
	if o.Size <= 0 {
		o.Size = 400
	}
	return o
}

// Frames renders the design frame by frame, advancing the rotation exactly as
// the live preview does.
func Frames(d document.Design, opts Options) []engine.Frame {
	opts = opts.normalized()
	frames := make([]engine.Frame, opts.Frames)
	rotation := 0.0
	for i := range frames {
		frames[i] = engine.RenderFrame(d, engine.RenderOptions{Size: opts.Size, Rotation: rotation})
		rotation += float64(d.AnimationSpeed) * engine.RotationStep
	}
	return frames
}

// gifPalette is web-safe colors plus full transparency at index 0, so the
// area outside the disc stays clear.
var gifPalette = append(color.Palette{color.Transparent}, palette.WebSafe...)

// EncodeGIF writes frames as a looping GIF.
func EncodeGIF(w io.Writer, frames []engine.Frame, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	delay := int(math.Round(100 / float64(fps)))
	if delay < 1 {
		delay = 1
	}

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		src := raster.Rasterize(f)
		dst := image.NewPaletted(src.Bounds(), gifPalette)
		draw.FloydSteinberg.Draw(dst, src.Bounds(), src, image.Point{})
		anim.Image = append(anim.Image, dst)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
