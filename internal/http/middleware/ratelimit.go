package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// RateLimit throttles requests per account, or per client address for
// anonymous diners. Limiter failures let the request through.
func RateLimit(manager *ratelimit.Manager, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}
		var userID uint64
		if user, ok := CurrentUser(c); ok {
			userID = user.ID
		}
		decision, result, errAllow := manager.Check(c.Request.Context(), userID, c.ClientIP())
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit: check failed")
			c.Next()
			return
		}
		if !decision.Enforced() {
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			if m != nil {
				m.RateLimited.WithLabelValues(decision.Scope.String()).Inc()
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
