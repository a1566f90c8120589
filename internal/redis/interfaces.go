package redis

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// LocationStoreInterface defines the interface for room geo index operations.
type LocationStoreInterface interface {
	AddRoom(ctx context.Context, roomID string, lat, lng float64) error
	FindNearbyRooms(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]RoomLocation, error)
	RemoveRoom(ctx context.Context, roomID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// RoomCacheInterface defines the interface for room and route caching.
type RoomCacheInterface interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	SetRoom(ctx context.Context, room *domain.Room) error
	InvalidateRoom(ctx context.Context, roomID string) error
	GetRoute(ctx context.Context, roomID string) (*domain.Route, error)
	SetRoute(ctx context.Context, roomID string, route *domain.Route) error
}

// EventBusInterface defines the interface for room event fan-out.
type EventBusInterface interface {
	Publish(ctx context.Context, event domain.RoomEvent) error
	Subscribe(ctx context.Context) (<-chan domain.RoomEvent, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ RoomCacheInterface     = (*CacheStore)(nil)
	_ EventBusInterface      = (*EventBus)(nil)
)
