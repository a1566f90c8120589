package service

import (
	"errors"

	"rideshare/internal/repository"
)

var (
	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRoomID is returned when a room ID is empty.
	ErrInvalidRoomID = errors.New("invalid room id")

	// ErrInvalidRoomName is returned when a room name is too long.
	ErrInvalidRoomName = errors.New("invalid room name")

	// ErrInvalidStartPoint is returned when the start point is blank.
	ErrInvalidStartPoint = errors.New("start point is required")

	// ErrInvalidDestination is returned when the destination is blank.
	ErrInvalidDestination = errors.New("destination is required")

	// ErrInvalidPassengerLimit is returned when the passenger limit is outside 2..4.
	ErrInvalidPassengerLimit = errors.New("passenger limit must be between 2 and 4")

	// ErrInvalidExpiry is returned when the requested expiry is negative or too long.
	ErrInvalidExpiry = errors.New("invalid room expiry")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRadius is returned when a search radius is out of range.
	ErrInvalidRadius = errors.New("invalid search radius")

	// ErrAlreadyInRoom is returned when a user joins a room twice.
	ErrAlreadyInRoom = errors.New("user already in room")

	// ErrRoomFull is returned when a room has reached its passenger limit.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomExpired is returned when a room's expiry has passed.
	ErrRoomExpired = errors.New("room has expired")

	// ErrRoomClosed is returned when a room was completed or cancelled.
	ErrRoomClosed = errors.New("room is no longer open")

	// ErrJoinRejected is returned when a join lost a race with another change.
	ErrJoinRejected = errors.New("room changed, try again")

	// ErrNotParticipant is returned when a user leaves a room they are not in.
	ErrNotParticipant = errors.New("user is not a participant")

	// ErrOwnerCannotLeave is returned when the owner tries to leave their room.
	ErrOwnerCannotLeave = errors.New("room owner cannot leave; complete or cancel the room instead")

	// ErrNotRoomOwner is returned when a non-owner tries to close a room.
	ErrNotRoomOwner = errors.New("only the room owner can do this")

	// ErrInvalidName is returned when the full name is blank.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidAvatarURL is returned when the avatar URL is not http(s).
	ErrInvalidAvatarURL = errors.New("invalid avatar url")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrEmailNotVerified is returned when an unverified user logs in.
	ErrEmailNotVerified = errors.New("email address not verified")

	// ErrEmptyQuery is returned when the assistant receives blank input.
	ErrEmptyQuery = errors.New("query is required")

	// ErrQueryTooLong is returned when the assistant input exceeds the limit.
	ErrQueryTooLong = errors.New("query is too long")

	// ErrAssistantUnavailable is returned when no language model is configured.
	ErrAssistantUnavailable = errors.New("assistant unavailable")

	// ErrAssistantFailed is returned when the model call or its output fails.
	ErrAssistantFailed = errors.New("assistant request failed")

	// ErrRouteUnavailable is returned when maps integration is disabled.
	ErrRouteUnavailable = errors.New("route service unavailable")

	// ErrNearbyUnavailable is returned when the geo index is not configured.
	ErrNearbyUnavailable = errors.New("nearby search unavailable")

	// ErrInvalidSubscription is returned for an incomplete push subscription.
	ErrInvalidSubscription = errors.New("invalid push subscription")

	// ErrMailerUnavailable is returned when no SMTP relay is configured.
	ErrMailerUnavailable = errors.New("email delivery not configured")
)

// clientErrors are outcomes caused by the request rather than the service.
var clientErrors = []error{
	repository.ErrNotFound,
	ErrInvalidUserID,
	ErrInvalidRoomID,
	ErrInvalidPassengerLimit,
	ErrAlreadyInRoom,
	ErrRoomFull,
	ErrRoomExpired,
	ErrRoomClosed,
	ErrJoinRejected,
	ErrNotParticipant,
	ErrOwnerCannotLeave,
	ErrNotRoomOwner,
	ErrEmptyQuery,
	ErrQueryTooLong,
	ErrInvalidStartPoint,
	ErrInvalidDestination,
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
