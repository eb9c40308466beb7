package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/raster"
)

type Format string

const (
	FormatGIF  Format = "gif"
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
)

var (
	ErrUnknownFormat = errors.New("unknown export format: must be gif, mp4 or webm")
	ErrNoFrames      = errors.New("no frames to export")
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatGIF, FormatMP4, FormatWebM:
		return f, nil
	}
	return "", ErrUnknownFormat
}

func (f Format) ContentType() string {
	switch f {
	case FormatMP4:
		return "video/mp4"
	case FormatWebM:
		return "video/webm"
	}
	return "image/gif"
}

// Encoder turns rendered frames into a file. GIFs are encoded in process;
// video goes through ffmpeg.
type Encoder struct {
	ffmpegPath string
}

func NewEncoder(ffmpegPath string) *Encoder {
	return &Encoder{ffmpegPath: ffmpegPath}
}

// Encode writes frames to w in the given format.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, format Format, frames []engine.Frame, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if format == FormatGIF {
		return EncodeGIF(w, frames, fps)
	}

	tempDir, err := os.MkdirTemp("", "sharingan-export-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	for i, f := range frames {
		if err := writeFrame(filepath.Join(tempDir, fmt.Sprintf("frame_%04d.png", i)), f); err != nil {
			return err
		}
	}

	slog.Info("export started", "format", format, "frames", len(frames), "fps", fps)

	outputFile := filepath.Join(tempDir, "output."+string(format))
	input := filepath.Join(tempDir, "frame_%04d.png")
	var args []string
	switch format {
	case FormatMP4:
		args = []string{
			"-framerate", strconv.Itoa(fps),
			"-i", input,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			outputFile,
		}
	case FormatWebM:
		args = []string{
			"-framerate", strconv.Itoa(fps),
			"-i", input,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
			outputFile,
		}
	default:
		return ErrUnknownFormat
	}
	if err := e.runFfmpeg(ctx, args...); err != nil {
		return err
	}

	out, err := os.Open(outputFile)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer out.Close()
	n, err := io.Copy(w, out)
	if err != nil {
		return fmt.Errorf("copy output: %w", err)
	}
	slog.Info("export complete", "format", format, "size", n)
	return nil
}

func writeFrame(path string, f engine.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	if err := raster.EncodePNG(out, f); err != nil {
		out.Close()
		return fmt.Errorf("write frame file: %w", err)
	}
	return out.Close()
}

func (e *Encoder) runFfmpeg(ctx context.Context, args ...string) error {
	// -y overwrites output without prompting
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
	}
	return nil
}
