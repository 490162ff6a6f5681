package service

import (
	"context"
	"fmt"
	"strings"

	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

// SettingsService implements settings.*.
type SettingsService struct{ *base }

// UpdateSettingsInput is a partial settings update.
type UpdateSettingsInput struct {
	LogoURL        *string          `json:"logoUrl"`
	PrimaryColor   *string          `json:"primaryColor"`
	CommandeATable *bool            `json:"commandeATable"`
	ShowRating     *bool            `json:"showRating"`
	ShowReviews    *bool            `json:"showReviews"`
	Currency       *models.Currency `json:"currency"`
}

// Get returns the caller's settings, creating defaults on first read.
func (s *SettingsService) Get(ctx context.Context, ownerID uint64) (models.RestaurantSettings, dbutil.Origin, error) {
	var (
		settings models.RestaurantSettings
		origin   dbutil.Origin
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var errSettings error
		settings, origin, errSettings = settingsFor(ctx, conn, restaurant.ID)
		return errSettings
	})
	return settings, origin, errRun
}

// GetPublic returns the display settings behind slug.
func (s *SettingsService) GetPublic(ctx context.Context, slug string) (models.RestaurantSettings, error) {
	var settings models.RestaurantSettings
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		var errSettings error
		settings, _, errSettings = settingsFor(ctx, conn, restaurant.ID)
		return errSettings
	})
	return settings, errRun
}

// Update edits the caller's settings.
func (s *SettingsService) Update(ctx context.Context, ownerID uint64, in UpdateSettingsInput) (models.RestaurantSettings, error) {
	var settings models.RestaurantSettings
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var errSettings error
		settings, _, errSettings = settingsFor(ctx, tx, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		if in.LogoURL != nil {
			settings.LogoURL = strings.TrimSpace(*in.LogoURL)
		}
		if in.PrimaryColor != nil {
			settings.PrimaryColor = strings.TrimSpace(*in.PrimaryColor)
		}
		if in.CommandeATable != nil {
			settings.CommandeATable = *in.CommandeATable
		}
		if in.ShowRating != nil {
			settings.ShowRating = *in.ShowRating
		}
		if in.ShowReviews != nil {
			settings.ShowReviews = *in.ShowReviews
		}
		if in.Currency != nil {
			settings.Currency = models.Currency(strings.ToUpper(strings.TrimSpace(string(*in.Currency))))
		}
		if errValidate := settings.Validate(); errValidate != nil {
			return validationError("%v", errValidate)
		}
		settings.UpdatedAt = s.now()
		if errSave := tx.Save(&settings).Error; errSave != nil {
			return fmt.Errorf("save settings: %w", errSave)
		}
		return nil
	})
	return settings, errTx
}
