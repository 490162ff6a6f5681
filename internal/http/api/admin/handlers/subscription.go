package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// SubscriptionHandler exposes the caller's plan and usage.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	sub, _, errGet := h.subscriptions.Get(c.Request.Context(), user.ID)
	if errGet != nil {
		respond.Error(c, errGet)
		return
	}
	c.JSON(http.StatusOK, views.Subscription(sub))
}

// Usage returns soft-limit levels and feature gates for the dashboard banner.
func (h *SubscriptionHandler) Usage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	report, errUsage := h.subscriptions.Usage(c.Request.Context(), user.ID)
	if errUsage != nil {
		respond.Error(c, errUsage)
		return
	}
	c.JSON(http.StatusOK, report)
}

type assignPlanRequest struct {
	Plan string `json:"plan"`
}

// AssignPlan moves a user to another tier. Super admin only.
func (h *SubscriptionHandler) AssignPlan(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body assignPlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	actor, _ := middleware.CurrentUser(c)
	sub, errAssign := h.subscriptions.AssignPlan(c.Request.Context(), actor, id, body.Plan)
	if errAssign != nil {
		respond.Error(c, errAssign)
		return
	}
	c.JSON(http.StatusOK, views.Subscription(sub))
}
