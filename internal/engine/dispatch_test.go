package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyil/sharingan-design/internal/document"
)

func TestApplyCommands(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Apply(Command{Op: OpAddShape, ShapeType: "circle"})
	require.NoError(t, err)
	require.NotNil(t, res.Shape)
	assert.Equal(t, document.ShapeCircle, res.Shape.Type)
	assert.Equal(t, 1, e.CurrentIndex())

	res, err = e.Apply(Command{Op: OpPointerDown, X: 200, Y: 150})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	_, err = e.Apply(Command{Op: OpPointerMove, X: 210, Y: 160})
	require.NoError(t, err)
	_, err = e.Apply(Command{Op: OpPointerUp})
	require.NoError(t, err)
	assert.Equal(t, 210.0, e.Design().Shapes[1].Center.X)

	res, err = e.Apply(Command{Op: OpPointerDown, X: 5, Y: 295})
	require.NoError(t, err)
	assert.False(t, res.Handled)

	_, err = e.Apply(Command{Op: OpSetSymmetry, Axes: 5})
	require.NoError(t, err)
	_, err = e.Apply(Command{Op: OpSetColorSettings, PupilColor: "#00ff00", PupilSize: 0.3})
	require.NoError(t, err)
	_, err = e.Apply(Command{Op: OpSetAnimationSpeed, Speed: 1.5})
	require.NoError(t, err)

	d := e.Design()
	assert.Equal(t, 5, d.SymmetrySettings.Axes)
	assert.Equal(t, document.ColorSettings{PupilColor: "#00ff00", PupilSize: 0.3}, d.ColorSettings)
	assert.Equal(t, document.Speed(1.5), d.AnimationSpeed)
}

func TestApplyRejectsInvalidEdits(t *testing.T) {
	e := newTestEngine(t)
	before := e.Design()

	tests := []struct {
		cmd  Command
		want error
	}{
		{Command{Op: OpSetSymmetry, Axes: 0}, ErrInvalidAxes},
		{Command{Op: OpSetColorSettings, PupilColor: "#fff", PupilSize: 1}, ErrInvalidPupilSize},
		{Command{Op: OpDeleteShape, Index: 0}, ErrLastShape},
		{Command{Op: OpSelectShape, Index: 4}, ErrShapeIndex},
		{Command{Op: OpAddShape, ShapeType: "star"}, document.ErrUnknownShapeType},
		{Command{Op: OpLoadDesign, Design: json.RawMessage(`[]`)}, document.ErrMalformedRecord},
		{Command{Op: "explode"}, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Op, func(t *testing.T) {
			_, err := e.Apply(tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, before.SymmetrySettings, e.Design().SymmetrySettings)
	assert.Len(t, e.Design().Shapes, len(before.Shapes))
}

func TestApplyLoadDesignAndPreset(t *testing.T) {
	e := newTestEngine(t)

	raw := json.RawMessage(`{"bezierPath":[{"x":10,"y":10},{"x":50,"y":50}],"symmetrySettings":{"axes":6}}`)
	_, err := e.Apply(Command{Op: OpLoadDesign, Design: raw})
	require.NoError(t, err)
	assert.Equal(t, 6, e.Design().SymmetrySettings.Axes)
	assert.Empty(t, e.PresetName())

	_, err = e.Apply(Command{Op: OpLoadPreset, Name: "Shisui"})
	require.NoError(t, err)
	assert.Equal(t, "Shisui", e.PresetName())

	_, err = e.Apply(Command{Op: OpReset})
	require.NoError(t, err)
	assert.Equal(t, "Itachi", e.PresetName())
}
