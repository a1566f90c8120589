package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"rideshare/internal/auth"
	"rideshare/internal/config"
	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// AuthService handles sign-up, email verification and login.
type AuthService struct {
	userRepo            repository.UserRepository
	tokens              *auth.JWTManager
	notifier            *NotificationService
	allowedDomain       string
	requireVerification bool
	verifyURL           string
	exposeToken         bool
	now                 func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.JWTManager, notifier *NotificationService, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		userRepo:            userRepo,
		tokens:              tokens,
		notifier:            notifier,
		allowedDomain:       cfg.AllowedEmailDomain,
		requireVerification: cfg.RequireVerification,
		verifyURL:           cfg.VerifyURL,
		exposeToken:         cfg.ExposeVerificationToken,
		now:                 time.Now,
	}
}

// SignUpRequest contains the parameters for creating an account.
type SignUpRequest struct {
	FullName string
	Email    string
	Password string
	College  string
}

// SignUpResult is the outcome of a sign-up. VerificationToken is only set
// when the service is configured to expose it.
type SignUpResult struct {
	User              *domain.User
	VerificationToken string
}

// SignUp creates an unverified account and emails the verification link.
// A failed email does not undo the account.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	first, last := domain.SplitFullName(req.FullName)
	if first == "" {
		return nil, ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := auth.ValidateEmailDomain(email, s.allowedDomain); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		College:      strings.TrimSpace(req.College),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateVerification(user)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyVerification(ctx, user, s.verificationLink(token)); err != nil {
			slog.WarnContext(ctx, "verification email not sent", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("user signed up", "user_id", user.ID)
	result := &SignUpResult{User: user}
	if s.exposeToken {
		result.VerificationToken = token
	}
	return result, nil
}

func (s *AuthService) verificationLink(token string) string {
	if s.verifyURL == "" {
		return token
	}
	return s.verifyURL + "?token=" + url.QueryEscape(token)
}

// VerifyEmail marks the token's user as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateVerification(token)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.MarkVerified(ctx, claims.UserID); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, claims.UserID)
}

// LoginResult contains a session token and the logged-in profile.
type LoginResult struct {
	Token string
	User  *domain.User
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if s.requireVerification && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.tokens.GenerateSession(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}
