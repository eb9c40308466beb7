package live

import (
	"sync"

	"github.com/onlyil/sharingan-design/internal/geometry"
)

// Cursors holds the editor pointer of every client in a room. A client whose
// pointer left the canvas has no entry.
type Cursors struct {
	mu  sync.Mutex
	pos map[string]CursorPos // clientID -> editor position
}

func NewCursors() *Cursors {
	return &Cursors{pos: make(map[string]CursorPos)}
}

// Move records a presence update and returns it as other clients should see
// it. Positions are pinned to the editor canvas; a nil cursor clears it.
func (c *Cursors) Move(clientID string, p PresencePayload) PresencePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Cursor == nil {
		delete(c.pos, clientID)
		return p
	}
	pt := geometry.EditorBounds().Clamp(geometry.Point{X: p.Cursor.X, Y: p.Cursor.Y})
	pos := CursorPos{X: pt.X, Y: pt.Y}
	c.pos[clientID] = pos
	return PresencePayload{Cursor: &pos}
}

func (c *Cursors) Remove(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pos, clientID)
}

// State is the presence.state message for a joining client, or nil when no
// one is pointing at the canvas.
func (c *Cursors) State() *Message {
	c.mu.Lock()
	state := PresenceStatePayload{Presences: make(map[string]*PresencePayload, len(c.pos))}
	for id, pos := range c.pos {
		pos := pos
		state.Presences[id] = &PresencePayload{Cursor: &pos}
	}
	c.mu.Unlock()

	if len(state.Presences) == 0 {
		return nil
	}
	msg, err := newMessage(TypePresenceState, state)
	if err != nil {
		return nil
	}
	return msg
}
