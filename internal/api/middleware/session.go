package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/refinery-api/internal/credentials"
	"github.com/Conceptual-Machines/refinery-api/internal/logger"
	"github.com/gin-gonic/gin"
)

const sessionIDKey = "session_id"

// StudioSession resolves the caller's studio session from the session cookie, issuing a new
// one on first contact, and stores its id in the gin context.
func StudioSession(store credentials.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := store.SessionID(c.Writer, c.Request)
		if err != nil {
			logger.Error("Failed to resolve studio session", err, logger.WithContext(c))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      "Failed to establish session",
				"request_id": c.GetString("request_id"),
			})
			c.Abort()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the studio session id set by StudioSession
func GetSessionID(c *gin.Context) (string, bool) {
	id := c.GetString(sessionIDKey)
	return id, id != ""
}
