package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/schoolfee/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping() error
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	reqLog := logger.GetGinLogger(c)
	body := gin.H{
		"status":   "healthy",
		"time":     h.now().Format(time.RFC3339),
		"database": "ok",
	}

	if err := h.db.Ping(); err != nil {
		reqLog.Warn("Health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Ping handles GET /api/v1/ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
