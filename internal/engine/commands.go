package engine

import (
	"encoding/json"
)

// PathCommand is one path segment in Canvas2D form: ["M", x, y],
// ["L", x, y], ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []interface{}

type Layer string

const (
	LayerBackground Layer = "background"
	LayerShape      Layer = "shape"
	LayerPupil      Layer = "pupil"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// Path coordinates are relative to the preview center; Transform moves them
// onto the canvas.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path"
	Layer       Layer         `json:"layer"`                 // background, shape or pupil
	ObjectID    string        `json:"objectId,omitempty"`    // shape id, for hit correlation
	Axis        int           `json:"axis"`                  // symmetry copy index
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // path data
	Fill        string        `json:"fill,omitempty"`        // fill color
	Stroke      string        `json:"stroke,omitempty"`      // stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // stroke width
}

// Frame is one rendered preview image in painter's order.
type Frame struct {
	Size     float64       `json:"size"`
	Rotation float64       `json:"rotation"`
	Commands []DrawCommand `json:"commands"`
}

// FrameToJSON serializes a frame, falling back to an empty frame.
func FrameToJSON(f Frame) string {
	if f.Commands == nil {
		f.Commands = []DrawCommand{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return `{"commands":[]}`
	}
	return string(data)
}
