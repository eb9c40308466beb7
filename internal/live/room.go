package live

import (
	"context"
	"sync"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
)

// Room is one shared design with its own engine and frame loop.
type Room struct {
	id      string
	ownerID string // empty for anonymous rooms, which are never saved

	mu      sync.Mutex // guards engine, dirty and version
	engine  *engine.Engine
	dirty   bool
	version uint64

	clients map[string]*Client // clientID -> client, guarded by Hub.mu
	cursors *Cursors

	loopMu   sync.Mutex // guards animator restarts against close
	animator *engine.Animator
	closed   bool

	// read and written only by the animator goroutine
	lastRotation float64
	lastVersion  uint64
	sentAny      bool
}

func newRoom(id, ownerID string, e *engine.Engine) *Room {
	r := &Room{
		id:       id,
		ownerID:  ownerID,
		engine:   e,
		clients:  make(map[string]*Client),
		cursors:  NewCursors(),
	}
	e.OnChange(func(document.Design) {
		r.dirty = true
		r.version++
	})
	return r
}

func (r *Room) ID() string { return r.id }

// tick advances the animation one frame.
func (r *Room) tick() (engine.Frame, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Tick(), r.version
}

// fresh reports whether f differs from the last frame sent, so a still
// design is not streamed over and over.
func (r *Room) fresh(f engine.Frame, version uint64) bool {
	if r.sentAny && f.Rotation == r.lastRotation && version == r.lastVersion {
		return false
	}
	r.sentAny = true
	r.lastRotation = f.Rotation
	r.lastVersion = version
	return true
}

// apply runs cmd and reports the state every editor needs to redraw, and
// whether the design itself changed.
func (r *Room) apply(cmd engine.Command) (engine.Result, *DesignSyncPayload, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.version
	res, err := r.engine.Apply(cmd)
	if err != nil {
		return res, nil, false, err
	}
	changed := r.version != before
	if !changed && !res.Handled {
		return res, nil, false, nil
	}
	return res, r.syncLocked(), changed, nil
}

// restart replaces the frame loop so no frame rendered from the old inputs
// is delivered after the new ones.
func (r *Room) restart(ctx context.Context) {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	if r.closed {
		return
	}
	r.animator.Restart(ctx)
}

func (r *Room) stop() {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	r.closed = true
	r.animator.Stop()
}

func (r *Room) syncLocked() *DesignSyncPayload {
	return &DesignSyncPayload{
		Design:    r.engine.Design(),
		Overlay:   r.engine.Overlay(),
		Selection: r.engine.Selection(),
	}
}

func (r *Room) welcome(clientID string) WelcomePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, p := range r.engine.Presets() {
		names = append(names, p.Name)
	}
	return WelcomePayload{
		ClientID:  clientID,
		RoomID:    r.id,
		Design:    r.engine.Design(),
		Overlay:   r.engine.Overlay(),
		Selection: r.engine.Selection(),
		Presets:   names,
	}
}

// takeDirty returns the design if it changed since the last call.
func (r *Room) takeDirty() (document.Design, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return document.Design{}, false
	}
	r.dirty = false
	return r.engine.Design(), true
}
