// Package geometry holds the editor and preview coordinate systems and the
// planar math shared by the editing session and the renderer.
//
// The editor canvas and the preview canvas must agree on CenterX, CenterY and
// ReferenceRadius: a point on the editor's reference circle lands exactly on
// the preview's background disc after EditorToPreview.
package geometry

// Editor canvas.
const (
	EditorWidth  = 300.0
	EditorHeight = 300.0

	// CenterX, CenterY is the editor point that maps to the preview origin.
	CenterX = 100.0
	CenterY = 150.0

	// ReferenceRadius is the editor-space radius of the background disc.
	ReferenceRadius = 200.0
)

// Preview canvas.
const (
	PreviewSize        = 400.0
	PreviewRadiusRatio = 0.4
)

// PreviewRadius returns the background disc radius for a preview canvas of
// the given size.
func PreviewRadius(size float64) float64 {
	return size * PreviewRadiusRatio
}

// PreviewScale returns the editor to preview scale factor for a background
// disc of previewRadius.
func PreviewScale(previewRadius float64) float64 {
	return previewRadius / ReferenceRadius
}

// EditorToPreview maps an editor coordinate to preview space, centered on the
// preview origin.
func EditorToPreview(x, y, scale float64) (float64, float64) {
	return (x - CenterX) * scale, (y - CenterY) * scale
}

// EditorToPreviewMatrix is EditorToPreview as an affine matrix, so it can be
// composed with the per-axis rotation.
func EditorToPreviewMatrix(scale float64) Matrix2D {
	return Scale(scale, scale).Multiply(Translate(-CenterX, -CenterY))
}

// EditorBounds is the rectangle pointer drags are clamped to.
func EditorBounds() Rect {
	return NewRect(Point{}, Point{X: EditorWidth, Y: EditorHeight})
}

// Circle is a center and radius in a single coordinate space.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// ReferenceCircle is the editor-space outline of the background disc.
func ReferenceCircle() Circle {
	return Circle{Center: Point{X: CenterX, Y: CenterY}, Radius: ReferenceRadius}
}

// PupilCircle is the editor-space outline of the pupil for pupilSize.
func PupilCircle(pupilSize float64) Circle {
	return Circle{Center: Point{X: CenterX, Y: CenterY}, Radius: ReferenceRadius * pupilSize}
}
