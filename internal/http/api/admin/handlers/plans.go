package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// PlanHandler serves the plan catalog.
type PlanHandler struct {
	subscriptions *service.SubscriptionService
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(subscriptions *service.SubscriptionService) *PlanHandler {
	return &PlanHandler{subscriptions: subscriptions}
}

// List returns every tier by ascending price.
func (h *PlanHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": views.Plans(h.subscriptions.Plans())})
}
