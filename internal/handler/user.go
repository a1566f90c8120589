package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	profiles *service.ProfileService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profiles *service.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// UpdateProfileRequest is the HTTP request body for editing a profile.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	College   *string `json:"college"`
	AvatarURL *string `json:"avatar_url"`
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.profiles.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toProfileResponse(user))
}

// UpdateMe handles PATCH /v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.profiles.UpdateProfile(c.Request.Context(), service.UpdateProfileRequest{
		UserID:    middleware.UserID(c),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		College:   req.College,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toProfileResponse(user))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.profiles.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}
