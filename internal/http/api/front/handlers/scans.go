package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/service"
	"github.com/menuqr/menuqr/internal/usage"
)

// Headers set by the CDN in front of the service.
const (
	countryHeader = "CF-IPCountry"
	cityHeader    = "CF-IPCity"
)

// ScanHandler records QR scans and serves the menu behind them.
type ScanHandler struct {
	svc     *service.Services
	metrics *metrics.Metrics
}

// NewScanHandler constructs a ScanHandler.
func NewScanHandler(svc *service.Services, m *metrics.Metrics) *ScanHandler {
	return &ScanHandler{svc: svc, metrics: m}
}

// ClientMetadata extracts the scan attribution from the request.
func ClientMetadata(c *gin.Context) usage.ClientMetadata {
	return usage.ClientMetadata{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
		Country:   strings.TrimSpace(c.GetHeader(countryHeader)),
		City:      strings.TrimSpace(c.GetHeader(cityHeader)),
		Language:  c.GetHeader("Accept-Language"),
		Referer:   c.Request.Referer(),
	}
}

type recordScanRequest struct {
	TableNumber string `json:"tableNumber"`
}

// Record logs a scan. The owner's usage is never shown to the diner.
func (h *ScanHandler) Record(c *gin.Context) {
	var body recordScanRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			respond.InvalidJSON(c)
			return
		}
	}
	result, errRecord := h.record(c, body.TableNumber)
	if errRecord != nil {
		respond.Error(c, errRecord)
		return
	}
	out := gin.H{"recorded": true, "table": nil}
	if result.Table != nil {
		out["table"] = gin.H{"id": result.Table.ID, "number": result.Table.Number}
	}
	c.JSON(http.StatusCreated, out)
}

// Open is the target of the printed QR code: it records the scan, then
// returns the menu with the table attached.
func (h *ScanHandler) Open(c *gin.Context) {
	tableNumber := c.Param("number")
	result, errRecord := h.record(c, tableNumber)
	if errRecord != nil {
		respond.Error(c, errRecord)
		return
	}
	menu, errMenu := h.svc.Menu.PublicMenu(c.Request.Context(), result.Restaurant.Slug)
	if errMenu != nil {
		respond.Error(c, errMenu)
		return
	}
	out := views.PublicMenu(menu)
	out["table"] = nil
	if result.Table != nil {
		out["table"] = gin.H{"id": result.Table.ID, "number": result.Table.Number}
	}
	c.JSON(http.StatusOK, out)
}

func (h *ScanHandler) record(c *gin.Context, tableNumber string) (service.ScanResult, error) {
	result, errRecord := h.svc.Scans.Record(c.Request.Context(), c.Param("slug"), tableNumber, ClientMetadata(c))
	if errRecord != nil {
		return service.ScanResult{}, errRecord
	}
	if h.metrics != nil {
		withTable := "no"
		if result.Table != nil {
			withTable = "yes"
		}
		h.metrics.Scans.WithLabelValues(withTable).Inc()
		if result.Limit.ShouldNotify {
			h.metrics.LimitWarnings.WithLabelValues(string(result.Limit.Level)).Inc()
		}
	}
	return result, nil
}
