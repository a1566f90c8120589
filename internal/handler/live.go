package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rideshare/internal/domain"
	"rideshare/internal/hub"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// LiveHandler streams room changes over websockets.
type LiveHandler struct {
	rooms    service.RoomGetter
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler. allowOrigin "*" accepts any
// origin.
func NewLiveHandler(rooms service.RoomGetter, h *hub.Hub, allowOrigin string) *LiveHandler {
	return &LiveHandler{
		rooms: rooms,
		hub:   h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowOrigin == "" || allowOrigin == "*" || origin == "" || origin == allowOrigin
			},
		},
	}
}

// Live handles GET /v1/rooms/:id/live
//
// The first message is a SNAPSHOT read after the client has joined the hub.
// Events that raced the read may repeat its state; compare room versions.
func (h *LiveHandler) Live(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")
	room, err := h.rooms.GetRoom(ctx, roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.Debug("websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}

	client := hub.NewClient(h.hub, conn, room.ID, middleware.UserID(c))
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	if fresh, err := h.rooms.GetRoom(ctx, room.ID); err == nil {
		room = fresh
	} else {
		slog.Warn("live snapshot reread failed", "room_id", room.ID, "error", err)
	}

	snapshot, err := EncodeRoomEvent(domain.RoomEvent{
		Type:       liveSnapshot,
		RoomID:     room.ID,
		OccurredAt: time.Now(),
		Room:       room,
	})
	if err != nil {
		slog.Error("failed to encode live snapshot", "room_id", room.ID, "error", err)
		h.hub.Unregister(client)
		conn.Close()
		return
	}
	client.Run(snapshot)
}
