package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	sessions *studio.Sessions
}

// NewHealthHandler builds the liveness handler; db may be nil when persistence is disabled
func NewHealthHandler(db *gorm.DB, sessions *studio.Sessions) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	status := http.StatusOK
	health := "healthy"

	if h.db != nil {
		dbStatus = "connected"
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			dbStatus = "unreachable"
			health = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"status":   health,
		"database": dbStatus,
		"sessions": h.sessions.Len(),
	})
}
