package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/service"
)

// FeedbackHandler moderates diner reviews.
type FeedbackHandler struct {
	feedbacks *service.FeedbackService
}

// NewFeedbackHandler constructs a FeedbackHandler.
func NewFeedbackHandler(feedbacks *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbacks: feedbacks}
}

// List returns reviews, optionally filtered by ?approved=true|false.
func (h *FeedbackHandler) List(c *gin.Context) {
	approved, ok := respond.OptionalBool(c, "approved")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.feedbacks.List(c.Request.Context(), user.ID, approved)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedbacks": views.Feedbacks(rows)})
}

func (h *FeedbackHandler) Approve(c *gin.Context) {
	h.moderate(c, h.feedbacks.Approve)
}

func (h *FeedbackHandler) Reject(c *gin.Context) {
	h.moderate(c, h.feedbacks.Reject)
}

func (h *FeedbackHandler) moderate(c *gin.Context, apply func(ctx context.Context, ownerID, feedbackID uint64) (models.Feedback, error)) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	feedback, errApply := apply(c.Request.Context(), user.ID, id)
	if errApply != nil {
		respond.Error(c, errApply)
		return
	}
	c.JSON(http.StatusOK, views.Feedback(feedback))
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.feedbacks.Delete(c.Request.Context(), user.ID, id); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Summary averages approved ratings.
func (h *FeedbackHandler) Summary(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	summary, errSummary := h.feedbacks.Summary(c.Request.Context(), user.ID)
	if errSummary != nil {
		respond.Error(c, errSummary)
		return
	}
	c.JSON(http.StatusOK, views.RatingSummary(summary))
}
