package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// PlanFrontHandler serves the pricing page.
type PlanFrontHandler struct {
	subscriptions *service.SubscriptionService
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(subscriptions *service.SubscriptionService) *PlanFrontHandler {
	return &PlanFrontHandler{subscriptions: subscriptions}
}

// List returns every plan by ascending price.
func (h *PlanFrontHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": views.Plans(h.subscriptions.Plans())})
}
