// Package respond holds the helpers every handler uses to read path
// parameters and render failures.
package respond

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/service"
	log "github.com/sirupsen/logrus"
)

// Error renders err with the status its kind maps to. Internal failures are
// logged and hidden from the caller.
func Error(c *gin.Context, err error) {
	status := service.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"request_id": c.GetString(RequestIDKey),
		}).Error("request failed")
		metrics.Registry().Errors.WithLabelValues("http").Inc()
		c.JSON(status, gin.H{"error": "internal error", "code": service.ErrorCode(err)})
		return
	}
	message := err.Error()
	var domainErr *service.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		message = domainErr.Message
	}
	c.JSON(status, gin.H{"error": message, "code": service.ErrorCode(err)})
}

// InvalidJSON renders the standard bind failure.
func InvalidJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "code": service.KindValidation.String()})
}

// ParseID reads a positive numeric path parameter. On failure it writes a 400
// and returns false.
func ParseID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": service.KindValidation.String()})
		return 0, false
	}
	return id, true
}

// OptionalBool parses a query flag such as ?approved=true. An absent or
// empty value yields nil.
func OptionalBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, errParse := strconv.ParseBool(raw)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": service.KindValidation.String()})
		return nil, false
	}
	return &value, true
}

// Context keys shared with the middleware.
const (
	RequestIDKey = "requestID"
	UserKey      = "user"
)
