package handlers

import (
	"net/http"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/relay"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	hub         *relay.Hub
	deps        relay.Deps
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, hub *relay.Hub, deps relay.Deps) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		hub:         hub,
		deps:        deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket authenticates the handshake and hands the connection to
// the relay. The token is verified before the upgrade, so a rejected
// connection never processes an event.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	client := relay.NewClient(h.hub, conn, user, h.deps)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
