package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// DemoHandler seeds and clears the Pizza Roma demo.
type DemoHandler struct {
	demo *service.DemoService
}

// NewDemoHandler constructs a DemoHandler.
func NewDemoHandler(demo *service.DemoService) *DemoHandler {
	return &DemoHandler{demo: demo}
}

func (h *DemoHandler) Seed(c *gin.Context) {
	result, errSeed := h.demo.Seed(c.Request.Context())
	if errSeed != nil {
		respond.Error(c, errSeed)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"restaurant": views.Restaurant(result.Restaurant),
		"table":      views.Table(result.Table),
		"items":      result.Items,
	})
}

func (h *DemoHandler) Reset(c *gin.Context) {
	removed, errReset := h.demo.Reset(c.Request.Context())
	if errReset != nil {
		respond.Error(c, errReset)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "removed": removed})
}
