package handler

import (
	"encoding/json"
	"time"

	"rideshare/internal/domain"
)

// CoordinatesResponse is a latitude/longitude pair.
type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoomResponse is the HTTP representation of a room with its derived state.
type RoomResponse struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	OwnerID          string               `json:"owner_id"`
	OwnerName        string               `json:"owner_name"`
	OwnerAvatarURL   string               `json:"owner_avatar_url,omitempty"`
	ParticipantIDs   []string             `json:"participant_ids"`
	StartPoint       string               `json:"start_point"`
	Destination      string               `json:"destination"`
	StartCoords      *CoordinatesResponse `json:"start_coords,omitempty"`
	DestCoords       *CoordinatesResponse `json:"dest_coords,omitempty"`
	PassengerLimit   int                  `json:"passenger_limit"`
	Occupancy        int                  `json:"occupancy"`
	SeatsLeft        int                  `json:"seats_left"`
	IsFull           bool                 `json:"is_full"`
	VehicleSecured   bool                 `json:"vehicle_secured"`
	Status           string               `json:"status"`
	IsExpired        bool                 `json:"is_expired"`
	ExpiresAt        string               `json:"expires_at,omitempty"`
	MinutesRemaining *int                 `json:"minutes_remaining,omitempty"`
	CreatedAt        string               `json:"created_at"`
	ClosedAt         string               `json:"closed_at,omitempty"`
	DistanceKm       *float64             `json:"distance_km,omitempty"`
	Version          int64                `json:"version"`
}

func toRoomResponse(room *domain.Room, now time.Time) RoomResponse {
	resp := RoomResponse{
		ID:             room.ID,
		Name:           room.Name,
		OwnerID:        room.OwnerID,
		OwnerName:      room.OwnerName,
		OwnerAvatarURL: room.OwnerAvatarURL,
		ParticipantIDs: room.ParticipantIDs,
		StartPoint:     room.StartPoint,
		Destination:    room.Destination,
		StartCoords:    toCoordinatesResponse(room.StartCoords),
		DestCoords:     toCoordinatesResponse(room.DestCoords),
		PassengerLimit: room.PassengerLimit,
		Occupancy:      room.Occupancy(),
		SeatsLeft:      room.SeatsLeft(),
		IsFull:         room.IsFull(),
		VehicleSecured: room.VehicleSecured,
		Status:         string(room.Status),
		IsExpired:      room.IsExpired(now),
		CreatedAt:      formatTime(room.CreatedAt),
		ClosedAt:       formatTime(room.ClosedAt),
		Version:        room.Version,
	}
	if resp.ParticipantIDs == nil {
		resp.ParticipantIDs = []string{}
	}
	if !room.ExpiresAt.IsZero() {
		resp.ExpiresAt = formatTime(room.ExpiresAt)
		minutes := room.MinutesRemaining(now)
		resp.MinutesRemaining = &minutes
	}
	return resp
}

func toRoomResponses(rooms []*domain.Room, now time.Time) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r, now))
	}
	return out
}

func toCoordinatesResponse(c *domain.Coordinates) *CoordinatesResponse {
	if c == nil {
		return nil
	}
	return &CoordinatesResponse{Lat: c.Lat, Lng: c.Lng}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// UserResponse is the public HTTP representation of a user.
type UserResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Initials    string `json:"initials"`
	College     string `json:"college,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ProfileResponse is the caller's own profile.
type ProfileResponse struct {
	UserResponse
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		Initials:    u.Initials(),
		College:     u.College,
		AvatarURL:   u.AvatarURL,
	}
}

func toProfileResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		UserResponse:  toUserResponse(u),
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     formatTime(u.CreatedAt),
	}
}

// Live message types besides the RoomEventType values.
const liveSnapshot = "SNAPSHOT"

// LiveMessage is one websocket message on /v1/rooms/:id/live.
type LiveMessage struct {
	Type       string        `json:"type"`
	RoomID     string        `json:"room_id"`
	ActorID    string        `json:"actor_id,omitempty"`
	OccurredAt string        `json:"occurred_at"`
	Room       *RoomResponse `json:"room,omitempty"`
}

// EncodeRoomEvent renders a room event as a live message.
func EncodeRoomEvent(event domain.RoomEvent) ([]byte, error) {
	msg := LiveMessage{
		Type:       string(event.Type),
		RoomID:     event.RoomID,
		ActorID:    event.ActorID,
		OccurredAt: formatTime(event.OccurredAt),
	}
	if event.Room != nil {
		room := toRoomResponse(event.Room, time.Now())
		msg.Room = &room
	}
	return json.Marshal(msg)
}
