package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/service"
)

// OrderFrontHandler takes orders from diners at a table.
type OrderFrontHandler struct {
	orders  *service.OrderService
	metrics *metrics.Metrics
}

// NewOrderFrontHandler constructs an OrderFrontHandler.
func NewOrderFrontHandler(orders *service.OrderService, m *metrics.Metrics) *OrderFrontHandler {
	return &OrderFrontHandler{orders: orders, metrics: m}
}

// Create places an order; the total is fixed from current menu prices.
func (h *OrderFrontHandler) Create(c *gin.Context) {
	var body service.CreateOrderInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	order, errCreate := h.orders.Create(c.Request.Context(), c.Param("slug"), body)
	if h.metrics != nil {
		outcome := "created"
		if errCreate != nil {
			outcome = service.ErrorCode(errCreate)
		}
		h.metrics.Orders.WithLabelValues(outcome).Inc()
	}
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.Order(order))
}
