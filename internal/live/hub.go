package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/onlyil/sharingan-design/internal/document"
	"github.com/onlyil/sharingan-design/internal/engine"
)

// Loader returns an owner's last design, if any.
type Loader func(ctx context.Context, ownerID string) (document.Design, bool)

// Saver persists an owner's design when their room goes quiet.
type Saver func(ctx context.Context, ownerID string, d document.Design) error

type Options struct {
	FPS       int
	NewEngine func() *engine.Engine
	Load      Loader
	Save      Saver
	Limits    engine.Limits
}

// Hub owns the preview rooms. Membership changes go through Run; messages
// are handled on each client's read goroutine.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // roomID -> room
	register   chan *Client
	unregister chan *Client
	opts       Options

	ctx     context.Context
	quit    chan struct{}
	stopped chan struct{}
}

func NewHub(opts Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		opts:       opts,
		ctx:        context.Background(),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is done or Stop is called, then
// saves every dirty room.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	h.ctx = ctx
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.quit:
			h.shutdown()
			return
		}
	}
}

// Stop ends Run and waits for the final saves.
func (h *Hub) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	<-h.stopped
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Room returns a live room by id.
func (h *Hub) Room(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.RoomID]
	if !ok {
		owner := client.UserID
		if client.Anonymous {
			owner = ""
		}
		room = h.openRoom(client.RoomID, owner)
		h.rooms[client.RoomID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if msg, err := newMessage(TypeWelcome, room.welcome(client.ClientID)); err == nil {
		client.Send(msg)
	}
	if stateMsg := room.cursors.State(); stateMsg != nil {
		client.Send(stateMsg)
	}

	if !ok {
		room.animator.Start(h.ctx)
	}

	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{ClientID: client.ClientID, UserID: client.UserID})
	if err == nil {
		joinMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.RoomID, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "client", client.ClientID, "room", client.RoomID)
}

// openRoom builds a room for its first client, who becomes the owner.
func (h *Hub) openRoom(id, ownerID string) *Room {
	e := h.opts.NewEngine()
	if ownerID != "" && h.opts.Load != nil {
		if d, ok := h.opts.Load(h.ctx, ownerID); ok {
			e.LoadDesign(d)
		}
	}
	room := newRoom(id, ownerID, e)
	room.animator = engine.NewAnimator(h.opts.FPS, func() engine.Frame {
		f, v := room.tick()
		if room.fresh(f, v) {
			h.broadcastFrame(room.id, f)
		}
		return f
	}, nil)
	slog.Info("room opened", "room", id, "owner", ownerID)
	return room
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.RoomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := room.clients[client.ClientID]; !member {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.cursors.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.RoomID)
	}
	h.mu.Unlock()

	slog.Info("client left", "client", client.ClientID, "room", client.RoomID)

	if empty {
		h.closeRoom(room)
		return
	}

	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID})
	if err == nil {
		h.broadcastToRoom(client.RoomID, leaveMsg, "")
	}
}

// closeRoom stops the frame loop and saves the design if it changed.
func (h *Hub) closeRoom(room *Room) {
	room.stop()
	h.save(room)
	slog.Info("room closed", "room", room.id)
}

func (h *Hub) save(room *Room) {
	if room.ownerID == "" || h.opts.Save == nil {
		return
	}
	d, dirty := room.takeDirty()
	if !dirty {
		return
	}
	// The run context may already be cancelled during shutdown.
	if err := h.opts.Save(context.WithoutCancel(h.ctx), room.ownerID, d); err != nil {
		slog.Error("save room design", "room", room.id, "owner", room.ownerID, "error", err)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		rooms = append(rooms, room)
		for _, c := range room.clients {
			c.close()
		}
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	slog.Info("saving all rooms", "count", len(rooms))
	for _, room := range rooms {
		h.closeRoom(room)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeCommand:
		h.handleCommand(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.SendError(msg.Seq, "unknown message type: "+msg.Type)
	}
}

func (h *Hub) handleCommand(sender *Client, msg *Message) {
	room, ok := h.Room(sender.RoomID)
	if !ok {
		return
	}

	var cmd engine.Command
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		sender.SendError(msg.Seq, "invalid command payload")
		return
	}

	if err := h.opts.Limits.CheckCommand(cmd); err != nil {
		sender.SendError(msg.Seq, err.Error())
		return
	}

	res, state, changed, err := room.apply(cmd)
	if err != nil {
		slog.Debug("command rejected", "op", cmd.Op, "client", sender.ClientID, "error", err)
		sender.SendError(msg.Seq, err.Error())
		return
	}

	if ack, err := newMessage(TypeCommandAck, CommandAckPayload{Seq: msg.Seq, Result: res}); err == nil {
		ack.Seq = msg.Seq
		sender.Send(ack)
	}
	// Mid-drag moves are picked up by the running loop on its next frame.
	if changed && cmd.Op != engine.OpPointerMove {
		room.restart(h.ctx)
	}
	if state != nil {
		if out, err := newMessage(TypeDesignSync, state); err == nil {
			out.ClientID = sender.ClientID
			h.broadcastToRoom(sender.RoomID, out, "")
		}
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	room, ok := h.Room(sender.RoomID)
	if !ok {
		return
	}

	outMsg, err := newMessage(TypePresenceUpdate, room.cursors.Move(sender.ClientID, presence))
	if err != nil {
		return
	}
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.RoomID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastFrame(roomID string, f engine.Frame) {
	if f.Commands == nil {
		f.Commands = []engine.DrawCommand{}
	}
	msg, err := newMessage(TypeFrame, f)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	h.broadcastToRoom(roomID, msg, "")
}

func (h *Hub) broadcastToRoom(roomID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	msg.RoomID = roomID
	for _, c := range clients {
		c.Send(msg)
	}
}
