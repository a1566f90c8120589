// Package hub fans room events out to websocket subscribers.
package hub

import (
	"context"
	"log/slog"
	"time"

	"rideshare/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// Encoder renders a room event as a websocket message.
type Encoder func(event domain.RoomEvent) ([]byte, error)

// Hub tracks the clients watching each room and forwards room events to
// them. All state is owned by the Run goroutine.
type Hub struct {
	encode     Encoder
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]struct{}
}

// New creates a new Hub.
func New(encode Encoder) *Hub {
	return &Hub{
		encode:     encode,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Run processes registrations and events until ctx is cancelled. Every
// client's send channel is closed on return.
func (h *Hub) Run(ctx context.Context, events <-chan domain.RoomEvent) {
	defer func() {
		close(h.done)
		for _, clients := range h.rooms {
			for c := range clients {
				close(c.send)
			}
		}
		h.rooms = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients, ok := h.rooms[c.roomID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[c.roomID] = clients
			}
			clients[c] = struct{}{}
			slog.Debug("live client registered", "room_id", c.roomID, "user_id", c.userID, "watchers", len(clients))

		case c := <-h.unregister:
			h.remove(c)

		case event, ok := <-events:
			if !ok {
				slog.Warn("room event stream closed")
				events = nil
				continue
			}
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event domain.RoomEvent) {
	clients := h.rooms[event.RoomID]
	if len(clients) == 0 {
		return
	}

	msg, err := h.encode(event)
	if err != nil {
		slog.Error("failed to encode room event", "room_id", event.RoomID, "error", err)
		return
	}

	for c := range clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("dropping slow live client", "room_id", c.roomID, "user_id", c.userID)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
}

// Register adds c to its room. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c from its room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Encode renders event with the hub's encoder.
func (h *Hub) Encode(event domain.RoomEvent) ([]byte, error) {
	return h.encode(event)
}
