package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/service"
)

// ReservationFrontHandler books tables for diners.
type ReservationFrontHandler struct {
	reservations *service.ReservationService
}

// NewReservationFrontHandler constructs a ReservationFrontHandler.
func NewReservationFrontHandler(reservations *service.ReservationService) *ReservationFrontHandler {
	return &ReservationFrontHandler{reservations: reservations}
}

func (h *ReservationFrontHandler) Create(c *gin.Context) {
	var body service.ReservationInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	reservation, errCreate := h.reservations.Create(c.Request.Context(), c.Param("slug"), body)
	if errCreate != nil {
		respond.Error(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, views.Reservation(reservation))
}
