package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rideshare/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Token purposes. A verification token is never accepted as a session.
const (
	PurposeSession = "session"
	PurposeVerify  = "verify"
)

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey       []byte
	sessionTTL      time.Duration
	verificationTTL time.Duration
	now             func() time.Time
}

// Claims represents the custom JWT claims for a user token.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secretKey string, sessionTTL, verificationTTL time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secretKey),
		sessionTTL:      sessionTTL,
		verificationTTL: verificationTTL,
		now:             time.Now,
	}
}

// GenerateSession creates a session token for the user.
func (m *JWTManager) GenerateSession(user *domain.User) (string, error) {
	return m.generate(user, PurposeSession, m.sessionTTL)
}

// GenerateVerification creates an email verification token for the user.
func (m *JWTManager) GenerateVerification(user *domain.User) (string, error) {
	return m.generate(user, PurposeVerify, m.verificationTTL)
}

// ValidateSession parses a session token.
func (m *JWTManager) ValidateSession(tokenString string) (*Claims, error) {
	return m.validate(tokenString, PurposeSession)
}

// ValidateVerification parses an email verification token.
func (m *JWTManager) ValidateVerification(tokenString string) (*Claims, error) {
	return m.validate(tokenString, PurposeVerify)
}

func (m *JWTManager) generate(user *domain.User, purpose string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (m *JWTManager) validate(tokenString, purpose string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
