package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/service"
)

// UserHandler lets super admins review signups.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns accounts, optionally filtered by ?status=PENDING|APPROVED|REJECTED.
func (h *UserHandler) List(c *gin.Context) {
	var status *models.ApprovalStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed := models.ApprovalStatus(strings.ToUpper(raw))
		switch parsed {
		case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
			status = &parsed
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "code": "validation"})
			return
		}
	}
	actor, _ := middleware.CurrentUser(c)
	rows, errList := h.users.List(c.Request.Context(), actor, status)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": views.Users(rows)})
}

// Approve grants a pending account dashboard access.
func (h *UserHandler) Approve(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	user, errApprove := h.users.Approve(c.Request.Context(), actor, id)
	if errApprove != nil {
		respond.Error(c, errApprove)
		return
	}
	c.JSON(http.StatusOK, views.User(user))
}

type rejectUserRequest struct {
	Reason string `json:"reason"`
}

// Reject refuses a pending account with a reason shown at its next login.
func (h *UserHandler) Reject(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body rejectUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	actor, _ := middleware.CurrentUser(c)
	user, errReject := h.users.Reject(c.Request.Context(), actor, id, body.Reason)
	if errReject != nil {
		respond.Error(c, errReject)
		return
	}
	c.JSON(http.StatusOK, views.User(user))
}
