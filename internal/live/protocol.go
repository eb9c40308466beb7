package live

import (
	"encoding/json"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Preview stream
	TypeFrame = "frame"

	// Editing
	TypeCommand    = "cmd"
	TypeCommandAck = "cmd.ack"
	TypeDesignSync = "design.sync"
)

type WelcomePayload struct {
	ClientID  string           `json:"clientId"`
	RoomID    string           `json:"roomId"`
	Design    document.Design  `json:"design"`
	Overlay   engine.Overlay   `json:"overlay"`
	Selection engine.Selection `json:"selection"`
	Presets   []string         `json:"presets"`
}

// CommandAckPayload answers a cmd message. Seq echoes the client's.
type CommandAckPayload struct {
	Seq    int64         `json:"seq"`
	Result engine.Result `json:"result"`
}

// DesignSyncPayload is broadcast after every change so all editors redraw.
type DesignSyncPayload struct {
	Design    document.Design  `json:"design"`
	Overlay   engine.Overlay   `json:"overlay"`
	Selection engine.Selection `json:"selection"`
}

type ErrorPayload struct {
	Seq     int64  `json:"seq,omitempty"`
	Message string `json:"message"`
}

type PresencePayload struct {
	Cursor *CursorPos `json:"cursor,omitempty"`
}

// CursorPos is in editor coordinates.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

func newMessage(typ string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
