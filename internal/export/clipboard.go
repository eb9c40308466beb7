package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/onlyil/sharingan-design/internal/document"
)

// Config is the clipboard form of a design. bezierPaths mirrors the bezier
// shapes for tools that only read the old schema.
type Config struct {
	BezierPaths      []document.BezierPath     `json:"bezierPaths"`
	Shapes           []document.Shape          `json:"shapes"`
	SymmetrySettings document.SymmetrySettings `json:"symmetrySettings"`
	AnimationSpeed   document.Speed            `json:"animationSpeed"`
	ColorSettings    document.ColorSettings    `json:"colorSettings"`
	Timestamp        int64                     `json:"timestamp"`
}

func NewConfig(d document.Design, now time.Time) Config {
	snap := d.Clone()
	paths := document.LegacyPaths(snap.Shapes)
	if paths == nil {
		paths = []document.BezierPath{}
	}
	shapes := snap.Shapes
	if shapes == nil {
		shapes = []document.Shape{}
	}
	return Config{
		BezierPaths:      paths,
		Shapes:           shapes,
		SymmetrySettings: snap.SymmetrySettings,
		AnimationSpeed:   snap.AnimationSpeed,
		ColorSettings:    snap.ColorSettings,
		Timestamp:        now.UnixMilli(),
	}
}

// ClipboardJSON renders d as the pretty-printed text copied to the clipboard.
func ClipboardJSON(d document.Design, now time.Time) (string, error) {
	data, err := json.MarshalIndent(NewConfig(d, now), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode clipboard config: %w", err)
	}
	return string(data), nil
}
