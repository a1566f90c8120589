package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
)

var testUser = &domain.User{ID: "user-1", Email: "riya@ves.ac.in"}

func TestJWTManager_SessionRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateSession(testUser)
	require.NoError(t, err)

	claims, err := m.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "riya@ves.ac.in", claims.Email)
	assert.Equal(t, PurposeSession, claims.Purpose)
}

func TestJWTManager_PurposeIsEnforced(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)

	verify, err := m.GenerateVerification(testUser)
	require.NoError(t, err)
	_, err = m.ValidateSession(verify)
	assert.ErrorIs(t, err, ErrInvalidToken)

	session, err := m.GenerateSession(testUser)
	require.NoError(t, err)
	_, err = m.ValidateVerification(session)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	issued := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateSession(testUser)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour, time.Hour).GenerateSession(testUser)
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", time.Hour, time.Hour).ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	claims := &Claims{UserID: "user-1", Purpose: PurposeSession}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_MissingToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	_, err := m.ValidateSession("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
