package service

import (
	"context"
	"log/slog"
	"time"

	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
)

// roomEffects applies the side effects that follow a committed room change:
// cache refresh, geo index upkeep, event fan-out and notifications.
// Every collaborator is optional. Failures are logged and never returned.
type roomEffects struct {
	cache     internalRedis.RoomCacheInterface
	locations internalRedis.LocationStoreInterface
	events    EventPublisher
	notifier  *NotificationService
	metrics   *Metrics
}

// refresh writes the committed room into the cache. The cache refuses rows
// older than the one it holds, so a concurrent read-through cannot put a
// stale copy back. When the write fails the entry is dropped instead.
func (e roomEffects) refresh(ctx context.Context, room *domain.Room) {
	if e.cache == nil {
		return
	}
	err := e.cache.SetRoom(ctx, room)
	if err == nil {
		return
	}
	slog.Warn("failed to refresh room cache", "room_id", room.ID, "error", err)
	if err := e.cache.InvalidateRoom(ctx, room.ID); err != nil {
		slog.Warn("failed to invalidate room cache", "room_id", room.ID, "error", err)
	}
}

func (e roomEffects) index(ctx context.Context, room *domain.Room) {
	if e.locations == nil || room.StartCoords == nil {
		return
	}
	if err := e.locations.AddRoom(ctx, room.ID, room.StartCoords.Lat, room.StartCoords.Lng); err != nil {
		slog.Warn("failed to index room location", "room_id", room.ID, "error", err)
	}
}

func (e roomEffects) unindex(ctx context.Context, roomID string) {
	if e.locations == nil {
		return
	}
	if err := e.locations.RemoveRoom(ctx, roomID); err != nil {
		slog.Warn("failed to remove room location", "room_id", roomID, "error", err)
	}
}

func (e roomEffects) publish(ctx context.Context, eventType domain.RoomEventType, room *domain.Room, actorID string, at time.Time) {
	if e.events == nil {
		return
	}
	event := domain.RoomEvent{
		Type:       eventType,
		RoomID:     room.ID,
		ActorID:    actorID,
		OccurredAt: at,
		Room:       room,
	}
	if err := e.events.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish room event", "room_id", room.ID, "type", eventType, "error", err)
	}
}

// closed runs the effects for a room that left the OPEN state.
func (e roomEffects) closed(ctx context.Context, room *domain.Room, eventType domain.RoomEventType, actorID string, at time.Time) {
	e.refresh(ctx, room)
	e.unindex(ctx, room.ID)
	e.publish(ctx, eventType, room, actorID, at)
	e.metrics.roomClosed(string(room.Status))
	if e.notifier != nil {
		e.notifier.NotifyRoomClosed(ctx, room, actorID)
	}
}
