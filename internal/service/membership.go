package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// JoinRoom adds userID to the room. The capacity, duplicate, status and
// expiry checks run inside a single conditional update, so concurrent joins
// can never push a room past its passenger limit.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	room, err := s.joinRoom(ctx, roomID, userID)
	s.effects.metrics.joinResult(err)
	return room, err
}

func (s *RoomService) joinRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	now := s.now()
	updated, err := s.roomRepo.AddParticipant(ctx, roomID, userID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return nil, s.classifyJoinFailure(ctx, roomID, userID, now)
		}
		return nil, fmt.Errorf("add participant: %w", err)
	}

	s.effects.refresh(ctx, updated)
	s.effects.publish(ctx, domain.RoomEventJoined, updated, userID, now)
	if s.effects.notifier != nil {
		s.effects.notifier.NotifyParticipantJoined(ctx, updated, s.displayName(ctx, userID))
	}

	slog.Info("participant joined",
		"room_id", roomID,
		"user_id", userID,
		"occupancy", updated.Occupancy(),
		"passenger_limit", updated.PassengerLimit,
	)
	return updated, nil
}

// classifyJoinFailure re-reads a room whose join guard matched no row and
// reports which guard rejected it.
func (s *RoomService) classifyJoinFailure(ctx context.Context, roomID, userID string, now time.Time) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	switch {
	case room.HasParticipant(userID):
		return ErrAlreadyInRoom
	case room.Status != domain.RoomStatusOpen:
		return closedStateError(room)
	case room.IsExpired(now):
		return ErrRoomExpired
	case room.IsFull():
		return ErrRoomFull
	default:
		return ErrJoinRejected
	}
}

// LeaveRoom removes userID from the room. The owner cannot leave.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	room, err := s.leaveRoom(ctx, roomID, userID)
	s.effects.metrics.leaveResult(err)
	return room, err
}

func (s *RoomService) leaveRoom(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	updated, err := s.roomRepo.RemoveParticipant(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return nil, s.classifyLeaveFailure(ctx, roomID, userID)
		}
		return nil, fmt.Errorf("remove participant: %w", err)
	}

	now := s.now()
	s.effects.refresh(ctx, updated)
	s.effects.publish(ctx, domain.RoomEventLeft, updated, userID, now)
	if s.effects.notifier != nil {
		s.effects.notifier.NotifyParticipantLeft(ctx, updated, s.displayName(ctx, userID))
	}

	slog.Info("participant left", "room_id", roomID, "user_id", userID)
	return updated, nil
}

func (s *RoomService) classifyLeaveFailure(ctx context.Context, roomID, userID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	switch {
	case room.OwnerID == userID:
		return ErrOwnerCannotLeave
	case !room.HasParticipant(userID):
		return ErrNotParticipant
	case room.Status != domain.RoomStatusOpen:
		return closedStateError(room)
	default:
		return ErrNotParticipant
	}
}

// displayName returns the user's name for notifications, or the ID when the
// profile cannot be loaded.
func (s *RoomService) displayName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.DisplayName() == "" {
		return userID
	}
	return user.DisplayName()
}
