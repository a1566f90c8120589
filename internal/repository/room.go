package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// RoomFilter narrows a room listing.
type RoomFilter struct {
	StartPrefix       string
	DestinationPrefix string
	OnlyAvailable     bool      // Exclude rooms at their passenger limit.
	Now               time.Time // Rooms expired before Now are excluded.
	Limit             int
}

// RoomRepository defines the persistence operations for rooms.
type RoomRepository interface {
	// Create persists a new room.
	Create(ctx context.Context, room *domain.Room) error

	// GetByID retrieves a room by ID.
	GetByID(ctx context.Context, id string) (*domain.Room, error)

	// GetByIDs retrieves the rooms with the given IDs, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Room, error)

	// List retrieves open rooms matching the filter, newest first.
	List(ctx context.Context, filter RoomFilter) ([]*domain.Room, error)

	// ListByParticipant retrieves every room the user is part of.
	ListByParticipant(ctx context.Context, userID string) ([]*domain.Room, error)

	// AddParticipant appends userID to the room only if the room is open,
	// unexpired at now, below its passenger limit and userID is not already
	// present. Returns ErrNoChange when the guard rejects the update.
	AddParticipant(ctx context.Context, roomID, userID string, now time.Time) (*domain.Room, error)

	// RemoveParticipant removes userID from an open room only if present
	// and not the owner. Returns ErrNoChange when the guard rejects the update.
	RemoveParticipant(ctx context.Context, roomID, userID string) (*domain.Room, error)

	// UpdateStatus moves an OPEN room to status. Returns ErrNoChange when
	// the room is not open.
	UpdateStatus(ctx context.Context, roomID string, status domain.RoomStatus, at time.Time) (*domain.Room, error)

	// ExpireDue marks every open room whose expiry is at or before now as
	// EXPIRED and returns them.
	ExpireDue(ctx context.Context, now time.Time) ([]*domain.Room, error)
}
