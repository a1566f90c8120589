package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes annotates the nrgin transaction with the caller's
// identity and reports handler errors. It must run after RequireAuth.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if userID := UserID(c); userID != "" {
			txn.AddAttribute("user_id", userID)
		}
		if roomID := c.Param("id"); roomID != "" {
			txn.AddAttribute("path_id", roomID)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
