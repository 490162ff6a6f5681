package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// SettingHandler manages branding and diner-facing toggles.
type SettingHandler struct {
	settings *service.SettingsService
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(settings *service.SettingsService) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// Get returns the settings, materializing the defaults on first read.
func (h *SettingHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	settings, origin, errGet := h.settings.Get(c.Request.Context(), user.ID)
	if errGet != nil {
		respond.Error(c, errGet)
		return
	}
	out := views.Settings(settings)
	out["origin"] = origin.String()
	c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) Update(c *gin.Context) {
	var body service.UpdateSettingsInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	settings, errUpdate := h.settings.Update(c.Request.Context(), user.ID, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Settings(settings))
}
