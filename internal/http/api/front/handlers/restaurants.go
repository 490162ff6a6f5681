package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// RestaurantFrontHandler serves the diner-facing restaurant pages.
type RestaurantFrontHandler struct {
	svc *service.Services
}

// NewRestaurantFrontHandler constructs a RestaurantFrontHandler.
func NewRestaurantFrontHandler(svc *service.Services) *RestaurantFrontHandler {
	return &RestaurantFrontHandler{svc: svc}
}

// Get returns the restaurant, its public settings and, when the owner shows
// it, the average rating.
func (h *RestaurantFrontHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")
	restaurant, errFind := h.svc.Restaurants.GetBySlug(ctx, slug)
	if errFind != nil {
		respond.Error(c, errFind)
		return
	}
	settings, errSettings := h.svc.Settings.GetPublic(ctx, slug)
	if errSettings != nil {
		respond.Error(c, errSettings)
		return
	}
	out := gin.H{
		"restaurant": views.PublicRestaurant(restaurant),
		"settings":   views.PublicSettings(settings),
		"rating":     nil,
	}
	summary, shown, errSummary := h.svc.Feedbacks.PublicSummary(ctx, slug)
	if errSummary != nil {
		respond.Error(c, errSummary)
		return
	}
	if shown {
		out["rating"] = views.RatingSummary(summary)
	}
	c.JSON(http.StatusOK, out)
}

// Menu returns the orderable menu grouped by category.
func (h *RestaurantFrontHandler) Menu(c *gin.Context) {
	menu, errMenu := h.svc.Menu.PublicMenu(c.Request.Context(), c.Param("slug"))
	if errMenu != nil {
		respond.Error(c, errMenu)
		return
	}
	c.JSON(http.StatusOK, views.PublicMenu(menu))
}

// Homepage returns the mini-site content.
func (h *RestaurantFrontHandler) Homepage(c *gin.Context) {
	restaurant, homepage, errHome := h.svc.Homepage.GetPublic(c.Request.Context(), c.Param("slug"))
	if errHome != nil {
		respond.Error(c, errHome)
		return
	}
	out := views.Homepage(homepage)
	delete(out, "updatedAt")
	out["restaurant"] = views.PublicRestaurant(restaurant)
	c.JSON(http.StatusOK, out)
}

func (h *RestaurantFrontHandler) Settings(c *gin.Context) {
	settings, errSettings := h.svc.Settings.GetPublic(c.Request.Context(), c.Param("slug"))
	if errSettings != nil {
		respond.Error(c, errSettings)
		return
	}
	c.JSON(http.StatusOK, views.PublicSettings(settings))
}

// Table resolves the table printed on a QR code.
func (h *RestaurantFrontHandler) Table(c *gin.Context) {
	resolved, errResolve := h.svc.Tables.ResolveTable(c.Request.Context(), c.Param("slug"), c.Param("number"))
	if errResolve != nil {
		respond.Error(c, errResolve)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant":   views.PublicRestaurant(resolved.Restaurant),
		"table":        gin.H{"id": resolved.Table.ID, "number": resolved.Table.Number},
		"orderingOpen": resolved.Settings.CommandeATable,
		"settings":     views.PublicSettings(resolved.Settings),
	})
}
