package domain

import "time"

// RoomEventType identifies what happened to a room.
type RoomEventType string

const (
	RoomEventCreated   RoomEventType = "CREATED"
	RoomEventJoined    RoomEventType = "JOINED"
	RoomEventLeft      RoomEventType = "LEFT"
	RoomEventCompleted RoomEventType = "COMPLETED"
	RoomEventCancelled RoomEventType = "CANCELLED"
	RoomEventExpired   RoomEventType = "EXPIRED"
)

// RoomEvent is published whenever a room's state changes.
type RoomEvent struct {
	Type       RoomEventType
	RoomID     string
	ActorID    string
	OccurredAt time.Time
	Room       *Room
}
