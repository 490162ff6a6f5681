package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// HomepageHandler edits the restaurant mini-site.
type HomepageHandler struct {
	homepage *service.HomepageService
}

// NewHomepageHandler constructs a HomepageHandler.
func NewHomepageHandler(homepage *service.HomepageService) *HomepageHandler {
	return &HomepageHandler{homepage: homepage}
}

// Get returns the homepage; a restaurant without one gets the default.
func (h *HomepageHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	homepage, origin, errGet := h.homepage.Get(c.Request.Context(), user.ID)
	if errGet != nil {
		respond.Error(c, errGet)
		return
	}
	out := views.Homepage(homepage)
	out["origin"] = origin.String()
	c.JSON(http.StatusOK, out)
}

func (h *HomepageHandler) Update(c *gin.Context) {
	var body service.UpdateHomepageInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	homepage, errUpdate := h.homepage.Update(c.Request.Context(), user.ID, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Homepage(homepage))
}
