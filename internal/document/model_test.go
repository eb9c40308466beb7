package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyil/sharingan-design/internal/geometry"
)

func sampleDesign() Design {
	return Design{
		Shapes: []Shape{
			{
				ID:    "shape_a",
				Type:  ShapeBezier,
				Color: "#111111",
				Points: []BezierPoint{
					{X: 10, Y: 20, CP2X: Float64(15), CP2Y: Float64(25)},
					{X: 30, Y: 40, CP1X: Float64(25), CP1Y: Float64(35)},
				},
			},
			{ID: "shape_b", Type: ShapeCircle, Color: "#222222", Center: geometry.Point{X: 200, Y: 150}, Radius: 50},
			{ID: "shape_c", Type: ShapeLine, Color: "#333333", Start: geometry.Point{X: 1, Y: 2}, End: geometry.Point{X: 3, Y: 4}},
		},
		SymmetrySettings: SymmetrySettings{Axes: 5},
		ColorSettings:    ColorSettings{PupilColor: "#abcdef", PupilSize: 0.2},
		AnimationSpeed:   0.7,
	}
}

func TestShapeMarshalEmitsVariantFieldsOnly(t *testing.T) {
	d := sampleDesign()

	tests := []struct {
		name  string
		shape Shape
		want  string
	}{
		{
			name:  "bezier",
			shape: d.Shapes[0],
			want:  `{"id":"shape_a","type":"bezier","color":"#111111","points":[{"x":10,"y":20,"cp2x":15,"cp2y":25},{"x":30,"y":40,"cp1x":25,"cp1y":35}]}`,
		},
		{
			name:  "circle",
			shape: d.Shapes[1],
			want:  `{"id":"shape_b","type":"circle","color":"#222222","center":{"x":200,"y":150},"radius":50}`,
		},
		{
			name:  "line",
			shape: d.Shapes[2],
			want:  `{"id":"shape_c","type":"line","color":"#333333","start":{"x":1,"y":2},"end":{"x":3,"y":4}}`,
		},
		{
			name:  "bezier without points",
			shape: Shape{ID: "s", Type: ShapeBezier, Color: "#000000"},
			want:  `{"id":"s","type":"bezier","color":"#000000","points":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.shape)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestShapeMarshalUnknownType(t *testing.T) {
	_, err := json.Marshal(Shape{ID: "x", Type: "star"})
	assert.ErrorIs(t, err, ErrUnknownShapeType)
}

func TestShapeUnmarshal(t *testing.T) {
	var s Shape
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","type":"circle","color":"#fff","center":{"x":1,"y":2},"radius":3}`), &s))
	assert.Equal(t, Shape{ID: "c", Type: ShapeCircle, Color: "#fff", Center: geometry.Point{X: 1, Y: 2}, Radius: 3}, s)

	err := json.Unmarshal([]byte(`{"id":"x","type":"star"}`), &s)
	assert.ErrorIs(t, err, ErrUnknownShapeType)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"l","type":"line","start":{"x":1,"y":2}}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"b","type":"bezier"}`), &s))
}

func TestParseShapeType(t *testing.T) {
	got, err := ParseShapeType("line")
	require.NoError(t, err)
	assert.Equal(t, ShapeLine, got)

	_, err = ParseShapeType("triangle")
	assert.ErrorIs(t, err, ErrUnknownShapeType)
}

func TestSpeedJSON(t *testing.T) {
	out, err := json.Marshal(Speed(0.2))
	require.NoError(t, err)
	assert.Equal(t, `[0.2]`, string(out))

	var s Speed
	require.NoError(t, json.Unmarshal([]byte(`[-0.5, 3]`), &s))
	assert.Equal(t, Speed(-0.5), s)

	require.NoError(t, json.Unmarshal([]byte(`1.5`), &s))
	assert.Equal(t, Speed(1.5), s)

	assert.Error(t, json.Unmarshal([]byte(`[]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`"fast"`), &s))
}

func TestDesignCloneIsIndependent(t *testing.T) {
	d := sampleDesign()
	c := d.Clone()

	before, err := json.Marshal(d)
	require.NoError(t, err)
	cloned, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(cloned))

	*c.Shapes[0].Points[0].CP2X = 999
	c.Shapes[0].Points[1].X = 999
	c.Shapes[1].Radius = 1
	c.Shapes = append(c.Shapes, NewLineShape())

	after, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestShapeCloneCopiesControlPoints(t *testing.T) {
	s := sampleDesign().Shapes[0]
	c := s.Clone()
	*c.Points[0].CP2Y = -1
	assert.Equal(t, 25.0, *s.Points[0].CP2Y)
}

func TestBezierPointControls(t *testing.T) {
	p := BezierPoint{X: 1, Y: 2, CP1X: Float64(3)}
	assert.False(t, p.HasCP1())
	assert.Equal(t, p.Main(), p.CP1())

	p.CP1Y = Float64(4)
	assert.True(t, p.HasCP1())
	assert.Equal(t, geometry.Point{X: 3, Y: 4}, p.CP1())
	assert.False(t, p.HasCP2())
}

func TestShapeToBezierPath(t *testing.T) {
	d := sampleDesign()

	path, ok := ShapeToBezierPath(d.Shapes[0])
	require.True(t, ok)
	assert.Equal(t, "#111111", path.Color)
	assert.Len(t, path.Points, 2)

	_, ok = ShapeToBezierPath(d.Shapes[1])
	assert.False(t, ok)

	assert.Len(t, LegacyPaths(d.Shapes), 1)
}

func TestNewSavedDesign(t *testing.T) {
	d := sampleDesign()

	plain := NewSavedDesign("mine", d, 1700000000000, SaveOptions{})
	raw, err := json.Marshal(plain)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "shapes")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "timestamp")
	assert.NotContains(t, fields, "bezierPaths")

	mirrored := NewSavedDesign("mine", d, 1700000000000, SaveOptions{LegacyMirror: true})
	require.Len(t, mirrored.BezierPaths, 1)

	mirrored.Shapes[0].Points[0].X = -100
	assert.Equal(t, 10.0, d.Shapes[0].Points[0].X)
}
