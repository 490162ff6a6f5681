package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// RestaurantHandler manages the caller's restaurant.
type RestaurantHandler struct {
	restaurants *service.RestaurantService
}

// NewRestaurantHandler constructs a RestaurantHandler.
func NewRestaurantHandler(restaurants *service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants}
}

// Create opens the caller's restaurant.
func (h *RestaurantHandler) Create(c *gin.Context) {
	var body service.RestaurantInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	restaurant, errCreate := h.restaurants.Create(c.Request.Context(), user.ID, body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.Restaurant(restaurant))
}

// Get returns the caller's restaurant.
func (h *RestaurantHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	restaurant, errFind := h.restaurants.Mine(c.Request.Context(), user.ID)
	if errFind != nil {
		respond.Error(c, errFind)
		return
	}
	c.JSON(http.StatusOK, views.Restaurant(restaurant))
}

// Update edits the caller's restaurant. The slug never changes.
func (h *RestaurantHandler) Update(c *gin.Context) {
	var body service.UpdateRestaurantInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	restaurant, errUpdate := h.restaurants.Update(c.Request.Context(), user.ID, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Restaurant(restaurant))
}

// Delete removes the restaurant and everything under it.
func (h *RestaurantHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.restaurants.Delete(c.Request.Context(), user.ID); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
