package redis

import (
	"time"

	"rideshare/internal/domain"
)

// roomRecord is the JSON form of a room stored in cache entries and events.
type roomRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"owner_id"`
	OwnerName      string    `json:"owner_name"`
	OwnerAvatarURL string    `json:"owner_avatar_url,omitempty"`
	ParticipantIDs []string  `json:"participant_ids"`
	StartPoint     string    `json:"start_point"`
	Destination    string    `json:"destination"`
	StartLat       *float64  `json:"start_lat,omitempty"`
	StartLng       *float64  `json:"start_lng,omitempty"`
	DestLat        *float64  `json:"dest_lat,omitempty"`
	DestLng        *float64  `json:"dest_lng,omitempty"`
	PassengerLimit int       `json:"passenger_limit"`
	VehicleSecured bool      `json:"vehicle_secured"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	ClosedAt       time.Time `json:"closed_at"`
	Version        int64     `json:"version"`
}

func toRoomRecord(room *domain.Room) *roomRecord {
	rec := &roomRecord{
		ID:             room.ID,
		Name:           room.Name,
		OwnerID:        room.OwnerID,
		OwnerName:      room.OwnerName,
		OwnerAvatarURL: room.OwnerAvatarURL,
		ParticipantIDs: room.ParticipantIDs,
		StartPoint:     room.StartPoint,
		Destination:    room.Destination,
		PassengerLimit: room.PassengerLimit,
		VehicleSecured: room.VehicleSecured,
		Status:         string(room.Status),
		ExpiresAt:      room.ExpiresAt,
		CreatedAt:      room.CreatedAt,
		ClosedAt:       room.ClosedAt,
		Version:        room.Version,
	}
	if c := room.StartCoords; c != nil {
		rec.StartLat, rec.StartLng = &c.Lat, &c.Lng
	}
	if c := room.DestCoords; c != nil {
		rec.DestLat, rec.DestLng = &c.Lat, &c.Lng
	}
	return rec
}

func (rec *roomRecord) toDomain() *domain.Room {
	room := &domain.Room{
		ID:             rec.ID,
		Name:           rec.Name,
		OwnerID:        rec.OwnerID,
		OwnerName:      rec.OwnerName,
		OwnerAvatarURL: rec.OwnerAvatarURL,
		ParticipantIDs: rec.ParticipantIDs,
		StartPoint:     rec.StartPoint,
		Destination:    rec.Destination,
		PassengerLimit: rec.PassengerLimit,
		VehicleSecured: rec.VehicleSecured,
		Status:         domain.RoomStatus(rec.Status),
		ExpiresAt:      rec.ExpiresAt,
		CreatedAt:      rec.CreatedAt,
		ClosedAt:       rec.ClosedAt,
		Version:        rec.Version,
	}
	if rec.StartLat != nil && rec.StartLng != nil {
		room.StartCoords = &domain.Coordinates{Lat: *rec.StartLat, Lng: *rec.StartLng}
	}
	if rec.DestLat != nil && rec.DestLng != nil {
		room.DestCoords = &domain.Coordinates{Lat: *rec.DestLat, Lng: *rec.DestLng}
	}
	return room
}
