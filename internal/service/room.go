package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"rideshare/internal/config"
	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
)

const maxRoomNameLength = 100

// RoomServiceDeps contains the collaborators of RoomService. Only the
// repositories are required.
type RoomServiceDeps struct {
	RoomRepo  repository.RoomRepository
	UserRepo  repository.UserRepository
	Geocoder  Geocoder
	Locations internalRedis.LocationStoreInterface
	Cache     internalRedis.RoomCacheInterface
	Events    EventPublisher
	Notifier  *NotificationService
	Metrics   *Metrics
	Settings  config.RoomsConfig
}

// RoomService handles room creation, lookup, membership and closing.
type RoomService struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	geocoder Geocoder
	cache    internalRedis.RoomCacheInterface
	effects  roomEffects
	settings config.RoomsConfig
	now      func() time.Time
}

// NewRoomService creates a new RoomService.
func NewRoomService(deps RoomServiceDeps) *RoomService {
	return &RoomService{
		roomRepo: deps.RoomRepo,
		userRepo: deps.UserRepo,
		geocoder: deps.Geocoder,
		cache:    deps.Cache,
		effects: roomEffects{
			cache:     deps.Cache,
			locations: deps.Locations,
			events:    deps.Events,
			notifier:  deps.Notifier,
			metrics:   deps.Metrics,
		},
		settings: deps.Settings,
		now:      time.Now,
	}
}

// SetClock overrides the service clock.
func (s *RoomService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateRoomRequest contains the parameters for creating a room.
type CreateRoomRequest struct {
	OwnerID          string
	Name             string
	StartPoint       string
	Destination      string
	PassengerLimit   int
	VehicleSecured   bool
	ExpiresInMinutes int // 0 uses the configured default.
}

// CreateRoom validates the request and stores a new open room owned by the
// caller, who becomes its first participant.
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	expiry, err := s.validateCreateRequest(&req)
	if err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load room owner: %w", err)
	}

	now := s.now()
	room := &domain.Room{
		ID:             uuid.New().String(),
		Name:           req.Name,
		OwnerID:        owner.ID,
		OwnerName:      owner.DisplayName(),
		OwnerAvatarURL: owner.AvatarURL,
		ParticipantIDs: []string{owner.ID},
		StartPoint:     req.StartPoint,
		Destination:    req.Destination,
		PassengerLimit: req.PassengerLimit,
		VehicleSecured: req.VehicleSecured,
		Status:         domain.RoomStatusOpen,
		CreatedAt:      now,
		Version:        1,
	}
	if expiry > 0 {
		room.ExpiresAt = now.Add(expiry)
	}

	if s.geocoder != nil {
		room.StartCoords, room.DestCoords = geocodeBestEffort(ctx, s.geocoder, room.StartPoint, room.Destination)
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.effects.index(ctx, room)
	s.effects.publish(ctx, domain.RoomEventCreated, room, owner.ID, now)
	s.effects.metrics.roomCreated()

	slog.Info("room created",
		"room_id", room.ID,
		"owner_id", room.OwnerID,
		"passenger_limit", room.PassengerLimit,
	)
	return room, nil
}

// validateCreateRequest normalizes req in place and returns the room's
// lifetime.
func (s *RoomService) validateCreateRequest(req *CreateRoomRequest) (time.Duration, error) {
	if req.OwnerID == "" {
		return 0, ErrInvalidUserID
	}

	req.StartPoint = strings.TrimSpace(req.StartPoint)
	req.Destination = strings.TrimSpace(req.Destination)
	req.Name = strings.TrimSpace(req.Name)

	if req.StartPoint == "" {
		return 0, ErrInvalidStartPoint
	}
	if req.Destination == "" {
		return 0, ErrInvalidDestination
	}
	if req.Name == "" {
		req.Name = "Ride to " + req.Destination
	}
	if utf8.RuneCountInString(req.Name) > maxRoomNameLength {
		return 0, ErrInvalidRoomName
	}
	if req.PassengerLimit < domain.MinPassengerLimit || req.PassengerLimit > domain.MaxPassengerLimit {
		return 0, ErrInvalidPassengerLimit
	}

	if req.ExpiresInMinutes < 0 {
		return 0, ErrInvalidExpiry
	}
	expiry := time.Duration(req.ExpiresInMinutes) * time.Minute
	if expiry == 0 {
		expiry = s.settings.DefaultExpiry
	}
	if s.settings.MaxExpiry > 0 && expiry > s.settings.MaxExpiry {
		return 0, ErrInvalidExpiry
	}
	return expiry, nil
}

// GetRoom retrieves a room, reading through the Redis cache.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}

	if s.cache != nil {
		cached, err := s.cache.GetRoom(ctx, roomID)
		if err != nil {
			slog.Debug("room cache read failed", "room_id", roomID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRoom(ctx, room); err != nil {
			slog.Debug("room cache write failed", "room_id", roomID, "error", err)
		}
	}
	return room, nil
}

// ListParticipants returns the profiles of everyone in the room, owner first.
func (s *RoomService) ListParticipants(ctx context.Context, roomID string) ([]*domain.User, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, room.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	ordered := make([]*domain.User, 0, len(users))
	for _, id := range room.ParticipantIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// CompleteRoom marks an open room as completed. Only the owner may do this.
func (s *RoomService) CompleteRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	return s.closeRoom(ctx, roomID, userID, domain.RoomStatusCompleted, domain.RoomEventCompleted)
}

// CancelRoom marks an open room as cancelled. Only the owner may do this.
func (s *RoomService) CancelRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	return s.closeRoom(ctx, roomID, userID, domain.RoomStatusCancelled, domain.RoomEventCancelled)
}

func (s *RoomService) closeRoom(ctx context.Context, roomID, userID string, status domain.RoomStatus, eventType domain.RoomEventType) (*domain.Room, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != userID {
		return nil, ErrNotRoomOwner
	}
	if err := closedStateError(room); err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.roomRepo.UpdateStatus(ctx, roomID, status, now)
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			// Closed concurrently, most likely by the reaper.
			return nil, s.classifyClosed(ctx, roomID)
		}
		return nil, fmt.Errorf("update room status: %w", err)
	}

	s.effects.closed(ctx, updated, eventType, userID, now)
	slog.Info("room closed", "room_id", roomID, "status", updated.Status, "by", userID)
	return updated, nil
}

func (s *RoomService) classifyClosed(ctx context.Context, roomID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if err := closedStateError(room); err != nil {
		return err
	}
	return ErrRoomClosed
}

// closedStateError returns the error for a room that is not OPEN, or nil.
func closedStateError(room *domain.Room) error {
	switch room.Status {
	case domain.RoomStatusOpen:
		return nil
	case domain.RoomStatusExpired:
		return ErrRoomExpired
	default:
		return ErrRoomClosed
	}
}
