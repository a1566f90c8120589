package hub

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection watching a room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID string
	userID string
	send   chan []byte
}

// NewClient creates a new Client.
func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Run starts the client's read and write pumps. first, when not nil, is
// written before any event the hub has already queued for the client.
func (c *Client) Run(first []byte) {
	go c.writePump(first)
	go c.readPump()
}

// readPump discards incoming messages and keeps the read deadline fresh.
// It unregisters the client when the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("live connection closed unexpectedly", "room_id", c.roomID, "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

// writePump forwards queued messages to the connection and sends pings.
func (c *Client) writePump(first []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if first != nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, first); err != nil {
			slog.Debug("live write failed", "room_id", c.roomID, "user_id", c.userID, "error", err)
			return
		}
	}

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("live write failed", "room_id", c.roomID, "user_id", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
