package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rideshare/internal/auth"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
)

// RequireAuth validates the session token in the Authorization header and
// stores the caller's identity in the gin context. Websocket upgrades may
// pass the token as the "token" query parameter since browsers cannot set
// headers on them.
func RequireAuth(tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && isWebsocketUpgrade(c.Request) {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}

		claims, err := tokens.ValidateSession(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" before RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// UserEmail returns the authenticated user's email, or "" before RequireAuth.
func UserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
