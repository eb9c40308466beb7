package live

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyil/sharingan-design/internal/auth"
	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
	"github.com/onlyil/sharingan-design/internal/preset"
	"github.com/onlyil/sharingan-design/internal/typeid"
)

type memorySaves struct {
	mu    sync.Mutex
	saved map[string]document.Design
}

func (m *memorySaves) load(_ context.Context, owner string) (document.Design, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.saved[owner]
	return d, ok
}

func (m *memorySaves) save(_ context.Context, owner string, d document.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[owner] = d
	return nil
}

func (m *memorySaves) get(owner string) (document.Design, bool) {
	return m.load(context.Background(), owner)
}

type fixture struct {
	hub   *Hub
	auth  *auth.Service
	saves *memorySaves
	url   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	saves := &memorySaves{saved: map[string]document.Design{}}
	hub := NewHub(Options{
		FPS: 50,
		NewEngine: func() *engine.Engine {
			return engine.NewEngine(preset.Builtin(), rand.New(rand.NewPCG(1, 2)))
		},
		Load:   saves.load,
		Save:   saves.save,
		Limits: engine.Limits{MaxSize: 2048, MaxAxes: 64},
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	authSvc := auth.NewService("secret")
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, authSvc, []string{"*"}).Preview))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		hub.Stop()
	})
	return &fixture{hub: hub, auth: authSvc, saves: saves, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, f.url+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", typ)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func sendCommand(t *testing.T, conn *websocket.Conn, seq int64, cmd engine.Command) {
	t.Helper()
	payload, err := json.Marshal(cmd)
	require.NoError(t, err)
	data, err := json.Marshal(Message{Type: TypeCommand, Seq: seq, Payload: payload})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestPreviewEditAndSave(t *testing.T) {
	f := newFixture(t)
	tok, err := f.auth.IssueAnonymous()
	require.NoError(t, err)

	stored := preset.Builtin().Default().Design(0.5)
	stored.SymmetrySettings.Axes = 2
	require.NoError(t, f.saves.save(context.Background(), tok.UserID, stored))

	conn := f.dial(t, "?token="+tok.Token)

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeWelcome).Payload, &welcome))
	assert.Equal(t, 2, welcome.Design.SymmetrySettings.Axes)
	assert.Equal(t, []string{"Itachi", "Shisui"}, welcome.Presets)
	require.NoError(t, typeid.Validate(welcome.RoomID, typeid.PrefixRoom))

	var frame engine.Frame
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeFrame).Payload, &frame))
	assert.NotEmpty(t, frame.Commands)

	sendCommand(t, conn, 7, engine.Command{Op: engine.OpSetSymmetry, Axes: 6})
	ack := readUntil(t, conn, TypeCommandAck)
	assert.Equal(t, int64(7), ack.Seq)

	var state DesignSyncPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeDesignSync).Payload, &state))
	assert.Equal(t, 6, state.Design.SymmetrySettings.Axes)

	sendCommand(t, conn, 8, engine.Command{Op: engine.OpSetSymmetry, Axes: 0})
	errMsg := readUntil(t, conn, TypeError)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(errMsg.Payload, &payload))
	assert.Equal(t, int64(8), payload.Seq)
	assert.Contains(t, payload.Message, "axes")

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool {
		d, ok := f.saves.get(tok.UserID)
		return ok && d.SymmetrySettings.Axes == 6
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPreviewSharedRoom(t *testing.T) {
	f := newFixture(t)
	roomID := typeid.NewRoomID()

	a := f.dial(t, "?room="+roomID)
	readUntil(t, a, TypeWelcome)
	b := f.dial(t, "?room="+roomID)
	readUntil(t, b, TypeWelcome)
	readUntil(t, a, TypePresenceJoin)

	sendCommand(t, a, 1, engine.Command{Op: engine.OpLoadPreset, Name: "Shisui"})
	var state DesignSyncPayload
	require.NoError(t, json.Unmarshal(readUntil(t, b, TypeDesignSync).Payload, &state))
	assert.Equal(t, "Shisui", state.Selection.Preset)

	require.NoError(t, a.Close(websocket.StatusNormalClosure, ""))
	readUntil(t, b, TypePresenceLeave)

	f.saves.mu.Lock()
	assert.Empty(t, f.saves.saved, "anonymous rooms are not saved")
	f.saves.mu.Unlock()
}

func TestPreviewRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, f.url+"?room=design_01h455vb4pex5vsknk084sn02q", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, f.url+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestCommandOverLimit(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	readUntil(t, conn, TypeWelcome)

	sendCommand(t, conn, 3, engine.Command{Op: engine.OpSetSymmetry, Axes: 1_000_000_000_000})
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeError).Payload, &payload))
	assert.Equal(t, int64(3), payload.Seq)
	assert.Contains(t, payload.Message, "over limit")

	sendCommand(t, conn, 4, engine.Command{Op: engine.OpSetPreviewSize, Size: 1e6})
	readUntil(t, conn, TypeError)

	sendCommand(t, conn, 5, engine.Command{Op: engine.OpLoadDesign, Design: json.RawMessage(`{"symmetrySettings":{"axes":100}}`)})
	readUntil(t, conn, TypeError)
}

func TestEditRestartsFrameLoop(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	readUntil(t, conn, TypeWelcome)
	readUntil(t, conn, TypeFrame)

	sendCommand(t, conn, 1, engine.Command{Op: engine.OpSetSymmetry, Axes: 5})
	readUntil(t, conn, TypeDesignSync)

	// The first frame of the fresh loop already draws the new symmetry.
	var frame engine.Frame
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeFrame).Payload, &frame))
	shapes := 0
	for _, c := range frame.Commands {
		if c.Layer == engine.LayerShape {
			shapes++
		}
	}
	assert.Equal(t, 0, shapes%5)
	assert.Positive(t, shapes)
}

func TestRoomRestartAfterStop(t *testing.T) {
	e := engine.NewEngine(preset.Builtin(), rand.New(rand.NewPCG(1, 2)))
	room := newRoom(typeid.NewRoomID(), "", e)
	room.animator = engine.NewAnimator(100, func() engine.Frame { f, _ := room.tick(); return f }, nil)

	room.restart(context.Background())
	assert.True(t, room.animator.Running())

	room.stop()
	room.restart(context.Background())
	assert.False(t, room.animator.Running())
}

func TestUnknownMessageType(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	readUntil(t, conn, TypeWelcome)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"op.submit","payload":{}}`)))
	readUntil(t, conn, TypeError)
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"localhost:5173", "eyes.example", "*"},
		originPatterns([]string{"http://localhost:5173", "https://eyes.example", "*", ""}))
}
