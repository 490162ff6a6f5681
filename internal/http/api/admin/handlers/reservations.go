package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/api/views"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/service"
)

// ReservationHandler manages bookings on the owner side.
type ReservationHandler struct {
	reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// List returns reservations by slot, bounded by optional RFC 3339 ?from= and ?to=.
func (h *ReservationHandler) List(c *gin.Context) {
	var filter service.ReservationFilter
	for name, target := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, errParse := time.Parse(time.RFC3339, raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "validation"})
			return
		}
		*target = parsed
	}
	user, _ := middleware.CurrentUser(c)
	rows, errList := h.reservations.List(c.Request.Context(), user.ID, filter)
	if errList != nil {
		respond.Error(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": views.Reservations(rows)})
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	reservation, errFind := h.reservations.Get(c.Request.Context(), user.ID, id)
	if errFind != nil {
		respond.Error(c, errFind)
		return
	}
	c.JSON(http.StatusOK, views.Reservation(reservation))
}

func (h *ReservationHandler) Update(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	var body service.UpdateReservationInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respond.InvalidJSON(c)
		return
	}
	user, _ := middleware.CurrentUser(c)
	reservation, errUpdate := h.reservations.Update(c.Request.Context(), user.ID, id, body)
	if errUpdate != nil {
		respond.Error(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, views.Reservation(reservation))
}

// Delete cancels a reservation. There is no soft state; the row is gone.
func (h *ReservationHandler) Delete(c *gin.Context) {
	id, ok := respond.ParseID(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if errDelete := h.reservations.Delete(c.Request.Context(), user.ID, id); errDelete != nil {
		respond.Error(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
