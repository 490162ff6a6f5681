package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/service"
)

// OrderHandler lets the owner follow and advance table orders.
type OrderHandler struct {
	orders  *service.OrderService
	metrics *metrics.Metrics
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *service.OrderService, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{orders: orders, metrics: m}
}

// List returns orders, newest first, optionally filtered by ?status=.
func (h *OrderHandler) List(c *gin.Context) {
	var status *models.OrderStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed := models.OrderStatus(strings.ToLower(raw))
		if !parsed.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "code": "validation"})
			return
		}
		status = &parsed
	}
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.orders.List(c.Request.Context(), user.ID, status)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": views.Orders(rows)})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	order, errFind := h.orders.Get(c.Request.Context(), user.ID, id)
	if errFind != nil {
		respond.Error(c, errFind)
		return
	}
	c.JSON(http.StatusOK, views.Order(order))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus advances an order along pending -> preparing -> served, or
// cancels a pending one. Other moves answer 422.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body updateOrderStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	next := models.OrderStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	user, _ := middleware.CurrentUser(c)
	order, errUpdate := h.orders.UpdateStatus(c.Request.Context(), user.ID, id, next)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	if h.metrics != nil {
		h.metrics.OrderTransition.WithLabelValues(string(order.Status)).Inc()
	}
	c.JSON(http.StatusOK, views.Order(order))
}

// Stats returns per-status counts and served revenue.
func (h *OrderHandler) Stats(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	stats, errStats := h.orders.Stats(c.Request.Context(), user.ID)
	if errStats != nil {
		respond.Error(c, errStats)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": stats.Counts, "total": stats.Total, "revenue": stats.Revenue})
}
