package websocket

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the web client's production host is fixed
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AuthenticatorFunc resolves the connecting user from the handshake
// request, or fails the connection.
type AuthenticatorFunc func(r *http.Request) (userID string, err error)

// MembershipFunc answers whether a user may subscribe to a room.
type MembershipFunc func(ctx context.Context, roomID, userID string) (bool, error)

// WebSocketHandler upgrades HTTP requests into hub subscriptions.
type WebSocketHandler struct {
	Hub           *Hub
	authenticator AuthenticatorFunc
	isMember      MembershipFunc

	MaxConnections int
}

func NewWebSocketHandler(hub *Hub, auth AuthenticatorFunc, isMember MembershipFunc) *WebSocketHandler {
	return &WebSocketHandler{
		Hub:            hub,
		authenticator:  auth,
		isMember:       isMember,
		MaxConnections: 10000,
	}
}

// ServeHTTP subscribes the caller to the room named by the room_id query
// parameter. Auth and membership are resolved before the upgrade so
// failures still produce plain HTTP status codes.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticator(r)
	if err != nil {
		log.Warn().Err(err).Msg("ws: authentication failed")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	member, err := h.isMember(r.Context(), roomID, userID)
	if err != nil {
		http.Error(w, "failed to check membership", http.StatusServiceUnavailable)
		return
	}
	if !member {
		http.Error(w, "not a member of this room", http.StatusForbidden)
		return
	}

	stats := h.Hub.GetHubStats()
	if stats.TotalClients >= h.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	client := newClient(uuid.New().String(), userID, roomID, conn, h.Hub)
	h.Hub.Register(roomID, client)
}
