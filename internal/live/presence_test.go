package live

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursors(t *testing.T) {
	c := NewCursors()
	assert.Nil(t, c.State(), "no state message for an empty room")

	out := c.Move("a", PresencePayload{Cursor: &CursorPos{X: 420, Y: -3}})
	require.NotNil(t, out.Cursor)
	assert.Equal(t, CursorPos{X: 300, Y: 0}, *out.Cursor)
	c.Move("b", PresencePayload{Cursor: &CursorPos{X: 10, Y: 20}})

	msg := c.State()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)
	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Presences, 2)
	assert.Equal(t, CursorPos{X: 10, Y: 20}, *state.Presences["b"].Cursor)

	assert.Nil(t, c.Move("b", PresencePayload{}).Cursor)
	c.Remove("a")
	assert.Nil(t, c.State())
}
