package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/auth"
	"rideshare/internal/maps"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Unexpected errors are attached to the gin context for logging and New
// Relic, and the client gets a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// badRequest sends a 400 with msg.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, maps.ErrLocationNotFound),
		errors.Is(err, maps.ErrNoRoute):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRoomID),
		errors.Is(err, service.ErrInvalidRoomName),
		errors.Is(err, service.ErrInvalidStartPoint),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrInvalidPassengerLimit),
		errors.Is(err, service.ErrInvalidExpiry),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidAvatarURL),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrQueryTooLong),
		errors.Is(err, service.ErrInvalidSubscription),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailDomain):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotRoomOwner),
		errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyInRoom),
		errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrRoomExpired),
		errors.Is(err, service.ErrRoomClosed),
		errors.Is(err, service.ErrJoinRejected),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrOwnerCannotLeave),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict

	// Upstream failures
	case errors.Is(err, service.ErrAssistantFailed):
		return http.StatusBadGateway

	// Service unavailable
	case errors.Is(err, service.ErrAssistantUnavailable),
		errors.Is(err, service.ErrRouteUnavailable),
		errors.Is(err, service.ErrNearbyUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
