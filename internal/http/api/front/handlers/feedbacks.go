package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// FeedbackFrontHandler collects and shows diner reviews.
type FeedbackFrontHandler struct {
	feedbacks *service.FeedbackService
}

// NewFeedbackFrontHandler constructs a FeedbackFrontHandler.
func NewFeedbackFrontHandler(feedbacks *service.FeedbackService) *FeedbackFrontHandler {
	return &FeedbackFrontHandler{feedbacks: feedbacks}
}

// List returns approved reviews when the restaurant shows them.
func (h *FeedbackFrontHandler) List(c *gin.Context) {
	rows, errList := h.feedbacks.ListPublic(c.Request.Context(), c.Param("slug"))
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		item := views.Feedback(row)
		delete(item, "isApproved")
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"feedbacks": out})
}

// Create stores a review; it stays hidden until the owner approves it.
func (h *FeedbackFrontHandler) Create(c *gin.Context) {
	var body service.CreateFeedbackInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	feedback, errCreate := h.feedbacks.Create(c.Request.Context(), c.Param("slug"), body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": feedback.ID, "isApproved": feedback.IsApproved})
}
