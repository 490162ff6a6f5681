package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

const maxTableNumberLength = 64

// TableService implements tables.*.
type TableService struct{ *base }

// TableInput names a table.
type TableInput struct {
	Number string `json:"number" binding:"required"`
}

// Validate normalizes and checks the input.
func (in *TableInput) Validate() error {
	in.Number = strings.TrimSpace(in.Number)
	if in.Number == "" {
		return validationError("table number is required")
	}
	if len(in.Number) > maxTableNumberLength {
		return validationError("table number must be at most %d characters", maxTableNumberLength)
	}
	if strings.ContainsAny(in.Number, "/?#") {
		return validationError("table number must not contain '/', '?' or '#'")
	}
	return nil
}

// List returns the caller's tables.
func (s *TableService) List(ctx context.Context, ownerID uint64) ([]models.Table, error) {
	var rows []models.Table
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		return conn.Where("restaurant_id = ?", restaurant.ID).Order("number ASC").Find(&rows).Error
	})
	return rows, errRun
}

func (s *TableService) applyQR(table *models.Table, slug string) error {
	payload, errQR := s.deps.QR.ForTable(slug, table.Number)
	if errQR != nil {
		return fmt.Errorf("render qr: %w", errQR)
	}
	table.QRCodeURL = payload.URL
	table.QRCodeData = payload.Data
	return nil
}

func numberTaken(tx *gorm.DB, restaurantID uint64, number string, exceptID uint64) (bool, error) {
	var count int64
	q := tx.Model(&models.Table{}).Where("restaurant_id = ? AND number = ?", restaurantID, number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if errCount := q.Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("check table number: %w", errCount)
	}
	return count > 0, nil
}

// Create adds a table with its QR payload.
func (s *TableService) Create(ctx context.Context, ownerID uint64, in TableInput) (models.Table, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Table{}, errValidate
	}
	var table models.Table
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		taken, errTaken := numberTaken(tx, restaurant.ID, in.Number, 0)
		if errTaken != nil {
			return errTaken
		}
		if taken {
			return conflictError("table %q already exists", in.Number)
		}
		table = models.Table{RestaurantID: restaurant.ID, Number: in.Number}
		if errQR := s.applyQR(&table, restaurant.Slug); errQR != nil {
			return errQR
		}
		if errCreate := tx.Create(&table).Error; errCreate != nil {
			return conflictOnUnique(errCreate, "table %q already exists", in.Number)
		}
		return nil
	})
	return table, errTx
}

// Update renames a table and regenerates its QR payload in the same
// transaction. Codes printed for the old number stop resolving.
func (s *TableService) Update(ctx context.Context, ownerID, tableID uint64, in TableInput) (models.Table, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Table{}, errValidate
	}
	var table models.Table
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &table, restaurant.ID, tableID, "table"); errFind != nil {
			return errFind
		}
		taken, errTaken := numberTaken(tx, restaurant.ID, in.Number, table.ID)
		if errTaken != nil {
			return errTaken
		}
		if taken {
			return conflictError("table %q already exists", in.Number)
		}
		table.Number = in.Number
		return s.saveQR(tx, &table, restaurant.Slug)
	})
	return table, errTx
}

// RegenerateQR rebuilds the QR payload from the current slug and number,
// e.g. after the public base URL changed.
func (s *TableService) RegenerateQR(ctx context.Context, ownerID, tableID uint64) (models.Table, error) {
	var table models.Table
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &table, restaurant.ID, tableID, "table"); errFind != nil {
			return errFind
		}
		return s.saveQR(tx, &table, restaurant.Slug)
	})
	return table, errTx
}

func (s *TableService) saveQR(tx *gorm.DB, table *models.Table, slug string) error {
	if errQR := s.applyQR(table, slug); errQR != nil {
		return errQR
	}
	table.UpdatedAt = s.now()
	errUpdate := tx.Model(table).Updates(map[string]any{
		"number":       table.Number,
		"qr_code_url":  table.QRCodeURL,
		"qr_code_data": table.QRCodeData,
		"updated_at":   table.UpdatedAt,
	}).Error
	if errUpdate != nil {
		return conflictOnUnique(errUpdate, "table %q already exists", table.Number)
	}
	return nil
}

// Delete removes a table. Orders keep their table number snapshot.
func (s *TableService) Delete(ctx context.Context, ownerID, tableID uint64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var table models.Table
		if errFind := takeOwned(tx, &table, restaurant.ID, tableID, "table"); errFind != nil {
			return errFind
		}
		return tx.Delete(&table).Error
	})
}

// TableResolution is the diner context behind a scanned QR code.
type TableResolution struct {
	Restaurant models.Restaurant
	Table      models.Table
	Settings   models.RestaurantSettings
}

// ResolveTable matches (slug, number) exactly, as printed on the QR code.
func (s *TableService) ResolveTable(ctx context.Context, slug, number string) (TableResolution, error) {
	var out TableResolution
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		table, errTable := tableByNumber(conn, restaurant.ID, number)
		if errTable != nil {
			return errTable
		}
		settings, _, errSettings := settingsFor(ctx, conn, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		out = TableResolution{Restaurant: restaurant, Table: table, Settings: settings}
		return nil
	})
	return out, errRun
}

func tableByNumber(conn *gorm.DB, restaurantID uint64, number string) (models.Table, error) {
	var table models.Table
	errFind := conn.Where("restaurant_id = ? AND number = ?", restaurantID, strings.TrimSpace(number)).Take(&table).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Table{}, notFoundError("table %q not found", number)
		}
		return models.Table{}, fmt.Errorf("load table: %w", errFind)
	}
	return table, nil
}
