package ws

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks which clients are attached to which session. Registration
// flows through channels processed by Run; senders read the room maps
// under the read lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Clients returns the session's attached clients at this instant.
func (h *Hub) Clients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[sessionID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast queues the same frame to every client in the session.
func (h *Hub) Broadcast(sessionID string, data []byte) {
	for _, c := range h.Clients(sessionID) {
		c.trySend(data)
	}
}

// SendToSeat queues a frame to every connection bound to one seat.
func (h *Hub) SendToSeat(sessionID, gamePlayerID string, data []byte) {
	for _, c := range h.Clients(sessionID) {
		if c.gamePlayerID == gamePlayerID {
			c.trySend(data)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.sessionID] == nil {
		h.rooms[c.sessionID] = make(map[*Client]bool)
	}
	h.rooms[c.sessionID][c] = true

	h.log.Debug().
		Str("session_id", c.sessionID).
		Str("game_player_id", c.gamePlayerID).
		Int("room_size", len(h.rooms[c.sessionID])).
		Msg("socket registered")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[c.sessionID]; ok {
		if _, exists := room[c]; exists {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.sessionID)
			}
		}
	}
	c.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, room := range h.rooms {
		for c := range room {
			c.close()
		}
		delete(h.rooms, id)
	}
}
