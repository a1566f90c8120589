package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
)

const (
	maxSearchRadiusKm  = 50
	defaultNearbyLimit = 20
)

// DiscoveryService finds rooms a user can join.
type DiscoveryService struct {
	roomRepo        repository.RoomRepository
	locations       internalRedis.LocationStoreInterface
	defaultRadiusKm float64
	now             func() time.Time
}

// NewDiscoveryService creates a new DiscoveryService. locations may be nil,
// in which case nearby search is unavailable.
func NewDiscoveryService(roomRepo repository.RoomRepository, locations internalRedis.LocationStoreInterface, defaultRadiusKm float64) *DiscoveryService {
	return &DiscoveryService{
		roomRepo:        roomRepo,
		locations:       locations,
		defaultRadiusKm: defaultRadiusKm,
		now:             time.Now,
	}
}

// SetClock overrides the service clock.
func (s *DiscoveryService) SetClock(now func() time.Time) {
	s.now = now
}

// SearchRoomsRequest contains the parameters for listing rooms.
type SearchRoomsRequest struct {
	StartPrefix       string
	DestinationPrefix string
	OnlyAvailable     bool
	Limit             int
}

// SearchRooms lists open, unexpired rooms whose start point and destination
// begin with the given prefixes, newest first.
func (s *DiscoveryService) SearchRooms(ctx context.Context, req SearchRoomsRequest) ([]*domain.Room, error) {
	rooms, err := s.roomRepo.List(ctx, repository.RoomFilter{
		StartPrefix:       strings.TrimSpace(req.StartPrefix),
		DestinationPrefix: strings.TrimSpace(req.DestinationPrefix),
		OnlyAvailable:     req.OnlyAvailable,
		Now:               s.now(),
		Limit:             req.Limit,
	})
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []*domain.Room{}
	}
	return rooms, nil
}

// NearbyRoomsRequest contains the parameters for a radius search.
type NearbyRoomsRequest struct {
	Lat           float64
	Lng           float64
	RadiusKm      float64 // 0 uses the configured default.
	OnlyAvailable bool
	Limit         int
}

// NearbyRoom is a room with its start point's distance from the query point.
type NearbyRoom struct {
	Room       *domain.Room
	DistanceKm float64
}

// NearbyRooms finds open rooms whose start point lies within the radius,
// closest first.
func (s *DiscoveryService) NearbyRooms(ctx context.Context, req NearbyRoomsRequest) ([]NearbyRoom, error) {
	if s.locations == nil {
		return nil, ErrNearbyUnavailable
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return nil, ErrInvalidLocation
	}

	radius := req.RadiusKm
	if radius == 0 {
		radius = s.defaultRadiusKm
	}
	if radius <= 0 || radius > maxSearchRadiusKm {
		return nil, ErrInvalidRadius
	}

	limit := req.Limit
	if limit <= 0 || limit > defaultNearbyLimit {
		limit = defaultNearbyLimit
	}

	// Over-fetch so rooms dropped by the filters below do not shrink the page.
	locs, err := s.locations.FindNearbyRooms(ctx, req.Lat, req.Lng, radius, limit*2)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return []NearbyRoom{}, nil
	}

	ids := make([]string, len(locs))
	for i, loc := range locs {
		ids[i] = loc.RoomID
	}
	rooms, err := s.roomRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	now := s.now()
	result := make([]NearbyRoom, 0, limit)
	for _, loc := range locs {
		room, ok := byID[loc.RoomID]
		if !ok || room.Status != domain.RoomStatusOpen || room.IsExpired(now) {
			s.dropStale(ctx, loc.RoomID)
			continue
		}
		if req.OnlyAvailable && room.IsFull() {
			continue
		}
		result = append(result, NearbyRoom{Room: room, DistanceKm: loc.DistanceKm})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *DiscoveryService) dropStale(ctx context.Context, roomID string) {
	if err := s.locations.RemoveRoom(ctx, roomID); err != nil {
		slog.Debug("failed to drop stale room location", "room_id", roomID, "error", err)
	}
}

// MyRooms lists every room the user owns or joined, in any status.
func (s *DiscoveryService) MyRooms(ctx context.Context, userID string) ([]*domain.Room, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	rooms, err := s.roomRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []*domain.Room{}
	}
	return rooms, nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
