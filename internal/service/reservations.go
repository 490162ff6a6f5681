package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

const maxPartySize = 50

// ReservationService implements reservations.*. Reservations are confirmed on
// creation and deletion is final.
type ReservationService struct{ *base }

// ReservationInput books a table.
type ReservationInput struct {
	CustomerName  string    `json:"customerName" binding:"required"`
	CustomerPhone string    `json:"customerPhone" binding:"required"`
	DateTime      time.Time `json:"dateTime" binding:"required"`
	PeopleCount   int       `json:"peopleCount" binding:"required"`
	Notes         string    `json:"notes"`
}

// Validate normalizes and checks the input.
func (in *ReservationInput) Validate() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.CustomerName == "" {
		return validationError("customer name is required")
	}
	if in.CustomerPhone == "" {
		return validationError("customer phone is required")
	}
	if in.DateTime.IsZero() {
		return validationError("dateTime is required")
	}
	if in.PeopleCount < 1 || in.PeopleCount > maxPartySize {
		return validationError("peopleCount must be between 1 and %d", maxPartySize)
	}
	return nil
}

// UpdateReservationInput is a partial update.
type UpdateReservationInput struct {
	CustomerName  *string    `json:"customerName"`
	CustomerPhone *string    `json:"customerPhone"`
	DateTime      *time.Time `json:"dateTime"`
	PeopleCount   *int       `json:"peopleCount"`
	Notes         *string    `json:"notes"`
}

// Create books a table at the restaurant behind slug.
func (s *ReservationService) Create(ctx context.Context, slug string, in ReservationInput) (models.Reservation, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Reservation{}, errValidate
	}
	if in.DateTime.Before(s.now()) {
		return models.Reservation{}, validationError("dateTime must be in the future")
	}
	var reservation models.Reservation
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(tx, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		reservation = models.Reservation{
			RestaurantID:  restaurant.ID,
			CustomerName:  in.CustomerName,
			CustomerPhone: in.CustomerPhone,
			DateTime:      in.DateTime.UTC(),
			PeopleCount:   in.PeopleCount,
			Notes:         in.Notes,
		}
		return tx.Create(&reservation).Error
	})
	return reservation, errTx
}

// ReservationFilter bounds List by slot time; zero values are open.
type ReservationFilter struct {
	From time.Time
	To   time.Time
}

// List returns the caller's reservations by slot.
func (s *ReservationService) List(ctx context.Context, ownerID uint64, filter ReservationFilter) ([]models.Reservation, error) {
	var rows []models.Reservation
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		q := conn.Where("restaurant_id = ?", restaurant.ID)
		if !filter.From.IsZero() {
			q = q.Where("date_time >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			q = q.Where("date_time < ?", filter.To.UTC())
		}
		return q.Order("date_time ASC, id ASC").Find(&rows).Error
	})
	return rows, errRun
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, ownerID, reservationID uint64) (models.Reservation, error) {
	var reservation models.Reservation
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		return takeOwned(conn, &reservation, restaurant.ID, reservationID, "reservation")
	})
	return reservation, errRun
}

// Update edits a reservation.
func (s *ReservationService) Update(ctx context.Context, ownerID, reservationID uint64, in UpdateReservationInput) (models.Reservation, error) {
	var reservation models.Reservation
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &reservation, restaurant.ID, reservationID, "reservation"); errFind != nil {
			return errFind
		}
		next := ReservationInput{
			CustomerName:  reservation.CustomerName,
			CustomerPhone: reservation.CustomerPhone,
			DateTime:      reservation.DateTime,
			PeopleCount:   reservation.PeopleCount,
			Notes:         reservation.Notes,
		}
		if in.CustomerName != nil {
			next.CustomerName = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			next.CustomerPhone = *in.CustomerPhone
		}
		if in.DateTime != nil {
			next.DateTime = *in.DateTime
		}
		if in.PeopleCount != nil {
			next.PeopleCount = *in.PeopleCount
		}
		if in.Notes != nil {
			next.Notes = *in.Notes
		}
		if errValidate := next.Validate(); errValidate != nil {
			return errValidate
		}
		errUpdate := tx.Model(&reservation).Updates(map[string]any{
			"customer_name":  next.CustomerName,
			"customer_phone": next.CustomerPhone,
			"date_time":      next.DateTime.UTC(),
			"people_count":   next.PeopleCount,
			"notes":          next.Notes,
			"updated_at":     s.now(),
		}).Error
		if errUpdate != nil {
			return fmt.Errorf("update reservation: %w", errUpdate)
		}
		return tx.First(&reservation, reservation.ID).Error
	})
	return reservation, errTx
}

// Delete removes a reservation permanently.
func (s *ReservationService) Delete(ctx context.Context, ownerID, reservationID uint64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var reservation models.Reservation
		if errFind := takeOwned(tx, &reservation, restaurant.ID, reservationID, "reservation"); errFind != nil {
			return errFind
		}
		return tx.Delete(&reservation).Error
	})
}
