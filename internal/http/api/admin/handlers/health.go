package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/config"
	"gorm.io/gorm"
)

const healthPingTimeout = 5 * time.Second

// HealthHandler reports database reachability and latency.
type HealthHandler struct {
	db            *gorm.DB
	slowThreshold time.Duration
	nowFn         func() time.Time
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB, slowThreshold time.Duration) *HealthHandler {
	if slowThreshold <= 0 {
		slowThreshold = config.DefaultHealthSlowAfter
	}
	return &HealthHandler{db: db, slowThreshold: slowThreshold, nowFn: time.Now}
}

// Healthz answers 200 when the database responds within the threshold and
// 503 otherwise.
func (h *HealthHandler) Healthz(c *gin.Context) {
	start := h.nowFn()
	dbStatus := "connected"
	healthy := true

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	sqlDB, errDB := h.db.DB()
	if errDB != nil {
		dbStatus, healthy = "disconnected", false
	} else if errPing := sqlDB.PingContext(ctx); errPing != nil {
		dbStatus, healthy = "disconnected", false
	}

	elapsed := h.nowFn().Sub(start)
	perfStatus := "good"
	if elapsed > h.slowThreshold {
		perfStatus, healthy = "slow", false
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": start.UTC().Format(time.RFC3339),
		"checks": gin.H{
			"database": dbStatus,
			"performance": gin.H{
				"status":         perfStatus,
				"responseTimeMs": elapsed.Milliseconds(),
				"thresholdMs":    h.slowThreshold.Milliseconds(),
			},
		},
	})
}
