package live

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/onlyil/sharingan-design/internal/auth"
	"github.com/onlyil/sharingan-design/internal/typeid"
)

type Handler struct {
	hub     *Hub
	auth    *auth.Service
	origins []string
}

func NewHandler(hub *Hub, authSvc *auth.Service, origins []string) *Handler {
	return &Handler{hub: hub, auth: authSvc, origins: originPatterns(origins)}
}

// Preview handles GET /ws/preview?room=&token=. Without a room a fresh one
// is opened; without a token the client joins anonymously.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	roomID := q.Get("room")
	if roomID == "" {
		roomID = typeid.NewRoomID()
	} else if err := typeid.Validate(roomID, typeid.PrefixRoom); err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	userID := "anon-" + uuid.New().String()[:8]
	anonymous := true
	if token := q.Get("token"); token != "" {
		id, err := h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, anonymous = id, false
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, userID, roomID, clientID)
	client.Anonymous = anonymous

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns turns allowed origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
