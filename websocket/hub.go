package websocket

import (
	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/managers"
)

// Deps are the collaborators the websocket layer queries when a live
// subscription needs a fresh snapshot.
type Deps struct {
	Broker   *livequery.Broker
	Requests *managers.RequestManager
	Chats    *managers.ChatManager
	DMs      *managers.DMManager
}

// Hub maintains the set of active clients. Fan-out is not done here: each
// client owns broker subscriptions that push query snapshots through its
// send channel; the hub's job is client lifecycle, including cancelling a
// client's subscriptions when it goes away.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	deps Deps
}

// NewHub creates a new hub instance
func NewHub(deps Deps) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		deps:       deps,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.clearSubscriptions()
			}
		}
	}
}

// Global hub instance
var hub *Hub

// InitHub initializes the global hub
func InitHub(deps Deps) {
	hub = NewHub(deps)
	go hub.Run()
}
