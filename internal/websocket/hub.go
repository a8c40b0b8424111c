package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and pushes timer notifications
// to the clients belonging to a given user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of user IDs to the set of that user's connected clients.
	subscriptions map[string]map[*Client]bool

	// Targeted sends, routed through the run loop so subscription maps
	// are only ever touched from one goroutine.
	direct chan directMessage
}

type directMessage struct {
	userID  string
	payload []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		direct:        make(chan directMessage, 16),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				h.send(client, message)
			}
		case msg := <-h.direct:
			for client := range h.subscriptions[msg.userID] {
				h.send(client, msg.payload)
			}
		}
	}
}

// BroadcastTo sends a message to all clients belonging to a user. Safe to
// call from any goroutine; drops the message if the run loop is saturated.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	select {
	case h.direct <- directMessage{userID: userID, payload: message}:
	default:
		log.Warn().Str("user_id", userID).Msg("Dropping websocket notification, hub busy")
	}
}

func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
		h.removeSubscription(client)
	}
}

func (h *Hub) addSubscription(client *Client) {
	if client.UserID == "" {
		return
	}
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
