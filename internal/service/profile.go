package service

import (
	"context"
	"net/url"
	"strings"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// ProfileService handles reading and editing user profiles.
type ProfileService struct {
	userRepo repository.UserRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// GetProfile retrieves a user by ID.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfileRequest holds the editable fields. Nil fields are unchanged.
type UpdateProfileRequest struct {
	UserID    string
	FirstName *string
	LastName  *string
	College   *string
	AvatarURL *string
}

// UpdateProfile applies the non-nil fields of req to the user's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		if first == "" {
			return nil, ErrInvalidName
		}
		user.FirstName = first
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.College != nil {
		user.College = strings.TrimSpace(*req.College)
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar != "" && !isHTTPURL(avatar) {
			return nil, ErrInvalidAvatarURL
		}
		user.AvatarURL = avatar
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
