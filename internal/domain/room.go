package domain

import (
	"math"
	"time"
)

// RoomStatus represents the lifecycle state of a sharing room.
type RoomStatus string

const (
	RoomStatusOpen      RoomStatus = "OPEN"
	RoomStatusCompleted RoomStatus = "COMPLETED"
	RoomStatusCancelled RoomStatus = "CANCELLED"
	RoomStatusExpired   RoomStatus = "EXPIRED"
)

// Passenger limits accepted for a room, owner included.
const (
	MinPassengerLimit = 2
	MaxPassengerLimit = 4
)

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Room represents a ride listing that other users can join.
type Room struct {
	ID             string
	Name           string
	OwnerID        string
	OwnerName      string
	OwnerAvatarURL string
	ParticipantIDs []string // Owner is always the first entry.
	StartPoint     string
	Destination    string
	StartCoords    *Coordinates
	DestCoords     *Coordinates
	PassengerLimit int
	VehicleSecured bool
	Status         RoomStatus
	ExpiresAt      time.Time // Zero means the room never expires.
	CreatedAt      time.Time
	ClosedAt       time.Time
	Version        int64 // Bumped by every committed change.
}

// Occupancy returns the number of riders currently in the room.
func (r *Room) Occupancy() int {
	return len(r.ParticipantIDs)
}

// SeatsLeft returns the number of free seats, never negative.
func (r *Room) SeatsLeft() int {
	left := r.PassengerLimit - len(r.ParticipantIDs)
	if left < 0 {
		return 0
	}
	return left
}

// IsFull reports whether the room has reached its passenger limit.
func (r *Room) IsFull() bool {
	return len(r.ParticipantIDs) >= r.PassengerLimit
}

// IsExpired reports whether the room's expiration time has passed.
func (r *Room) IsExpired(now time.Time) bool {
	if r.Status == RoomStatusExpired {
		return true
	}
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// MinutesRemaining returns the whole minutes until expiry, rounded to the
// nearest minute. Rooms without an expiry report -1.
func (r *Room) MinutesRemaining(now time.Time) int {
	if r.ExpiresAt.IsZero() {
		return -1
	}
	remaining := r.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Round(remaining.Minutes()))
}

// HasParticipant reports whether userID is in the room.
func (r *Room) HasParticipant(userID string) bool {
	for _, id := range r.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsJoinable reports whether a new rider could join right now.
func (r *Room) IsJoinable(now time.Time) bool {
	return r.Status == RoomStatusOpen && !r.IsExpired(now) && !r.IsFull()
}
