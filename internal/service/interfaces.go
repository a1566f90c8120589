package service

import (
	"context"

	"rideshare/internal/domain"
)

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.Coordinates, error)
}

// RouteFinder computes a driving route between two points.
type RouteFinder interface {
	Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error)
}

// EventPublisher broadcasts room events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.RoomEvent) error
}

// RoomGetter loads a single room.
type RoomGetter interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
}

// Ensure RoomService implements RoomGetter.
var _ RoomGetter = (*RoomService)(nil)
