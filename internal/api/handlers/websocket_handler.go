package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	ws "github.com/pvillarroel/timetracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades HTTP connections so clients receive live timer
// notifications for their own user.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. Browsers cannot set an
// Authorization header on the handshake, so the token rides in a query
// parameter instead.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing auth token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateJWT(tokenStr)
	if err != nil {
		http.Error(w, "Invalid auth token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register <- client

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		h.hub.Unregister <- client
	}()
}

// handleIncomingWSMessage processes messages received from a client. The
// timer feed is push-only; anything a client sends is rejected.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	log.Warn().Str("user_id", client.UserID).Bytes("message", message).Msg("Unexpected websocket message received")
	client.Send <- ws.NewErrorMessage("This channel is push-only")
}
