// Package relay routes real-time events between connected clients: it owns
// the identity->connection registry, per-connection room membership, and all
// fan-out. Registry and membership state live in process memory and are
// rebuilt by clients on reconnect; durable state belongs to the stores.
package relay

import (
	"encoding/json"

	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/pkg/logger"
)

type membership struct {
	client *Client
	room   string
}

type envelope struct {
	data []byte
	// Exactly one of client, room, userID or all selects the audience.
	client *Client
	room   string
	userID int
	all    bool
}

// Hub owns all relay state. Maps are touched only from the Run loop, so no
// locking is needed; everything else talks to the hub through channels.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	fanout     chan envelope

	clients  map[*Client]bool
	registry map[int]*Client
	rooms    map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		fanout:     make(chan envelope, 64),
		clients:    make(map[*Client]bool),
		registry:   make(map[int]*Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			// Last connection wins; an older connection from the same user
			// keeps its rooms until it disconnects but no longer receives
			// direct events.
			h.registry[client.userID] = client
			logger.Info("User %s connected (session %s)", client.username, client.sessionID)

		case client := <-h.unregister:
			h.dropClient(client)

		case m := <-h.join:
			clients, ok := h.rooms[m.room]
			if !ok {
				clients = make(map[*Client]bool)
				h.rooms[m.room] = clients
			}
			clients[m.client] = true
			m.client.rooms[m.room] = true

		case m := <-h.leave:
			h.leaveRoom(m.client, m.room)

		case env := <-h.fanout:
			h.deliver(env)
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.leaveRoom(client, room)
	}
	// Guarded: a newer connection from the same user must not be evicted by
	// the old one's teardown.
	if h.registry[client.userID] == client {
		delete(h.registry, client.userID)
	}
	close(client.send)
	logger.Info("User %s disconnected (session %s)", client.username, client.sessionID)
}

func (h *Hub) leaveRoom(client *Client, room string) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

func (h *Hub) deliver(env envelope) {
	switch {
	case env.client != nil:
		// Skip connections already dropped; their send channel is closed.
		if h.clients[env.client] {
			h.trySend(env.client, env.data)
		}
	case env.all:
		for client := range h.clients {
			h.trySend(client, env.data)
		}
	case env.room != "":
		for client := range h.rooms[env.room] {
			h.trySend(client, env.data)
		}
	default:
		// Direct delivery to an unregistered user is a no-op.
		if client, ok := h.registry[env.userID]; ok {
			h.trySend(client, env.data)
		}
	}
}

func (h *Hub) trySend(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.dropClient(client)
	}
}

// Register and Unregister hand a connection to the hub's run loop.
func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) Join(client *Client, room string)  { h.join <- membership{client: client, room: room} }
func (h *Hub) Leave(client *Client, room string) { h.leave <- membership{client: client, room: room} }

// ToClient delivers an event to a single connection. All sends on a client's
// send channel happen in the run loop, which also owns closing it, so a
// connection dropped for falling behind is skipped instead of raced.
func (h *Hub) ToClient(client *Client, name models.EventName, payload interface{}) {
	if data, ok := marshalEvent(name, payload); ok {
		h.fanout <- envelope{client: client, data: data}
	}
}

// ToRoom broadcasts an event to every connection joined to room.
func (h *Hub) ToRoom(room string, name models.EventName, payload interface{}) {
	if data, ok := marshalEvent(name, payload); ok {
		h.fanout <- envelope{room: room, data: data}
	}
}

// ToUser delivers an event to the user's registered connection, if any.
func (h *Hub) ToUser(userID int, name models.EventName, payload interface{}) {
	if data, ok := marshalEvent(name, payload); ok {
		h.fanout <- envelope{userID: userID, data: data}
	}
}

// ToAll broadcasts an event to every connection.
func (h *Hub) ToAll(name models.EventName, payload interface{}) {
	if data, ok := marshalEvent(name, payload); ok {
		h.fanout <- envelope{all: true, data: data}
	}
}

func marshalEvent(name models.EventName, payload interface{}) ([]byte, bool) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Error marshaling %s payload: %v", name, err)
			return nil, false
		}
		raw = data
	}

	data, err := json.Marshal(models.Event{Name: name, Data: raw})
	if err != nil {
		logger.Error("Error marshaling %s event: %v", name, err)
		return nil, false
	}
	return data, true
}
