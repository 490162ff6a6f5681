package service

import (
	"context"
	"fmt"
	"strings"

	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

// HomepageService implements homepage.*.
type HomepageService struct{ *base }

// UpdateHomepageInput replaces the provided sections.
type UpdateHomepageInput struct {
	Presentation       *string              `json:"presentation"`
	ReservationBtnText *string              `json:"reservationBtnText"`
	Sliders            *models.Sliders      `json:"sliders"`
	Testimonials       *models.Testimonials `json:"testimonials"`
	SocialLinks        *models.SocialLinks  `json:"socialLinks"`
}

// Get returns the caller's homepage, creating the default on first read.
func (s *HomepageService) Get(ctx context.Context, ownerID uint64) (models.Homepage, dbutil.Origin, error) {
	var (
		homepage models.Homepage
		origin   dbutil.Origin
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var errHome error
		homepage, origin, errHome = homepageFor(ctx, conn, restaurant.ID)
		return errHome
	})
	return homepage, origin, errRun
}

// GetPublic returns the homepage behind slug.
func (s *HomepageService) GetPublic(ctx context.Context, slug string) (models.Restaurant, models.Homepage, error) {
	var (
		restaurant models.Restaurant
		homepage   models.Homepage
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errLoad error
		restaurant, errLoad = restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		homepage, _, errLoad = homepageFor(ctx, conn, restaurant.ID)
		return errLoad
	})
	return restaurant, homepage, errRun
}

// Update writes the provided sections after validating the whole document.
func (s *HomepageService) Update(ctx context.Context, ownerID uint64, in UpdateHomepageInput) (models.Homepage, error) {
	var homepage models.Homepage
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var errHome error
		homepage, _, errHome = homepageFor(ctx, tx, restaurant.ID)
		if errHome != nil {
			return errHome
		}
		if in.Presentation != nil {
			homepage.Presentation = strings.TrimSpace(*in.Presentation)
		}
		if in.ReservationBtnText != nil {
			homepage.ReservationBtnText = strings.TrimSpace(*in.ReservationBtnText)
		}
		if in.Sliders != nil {
			homepage.Sliders = in.Sliders.Normalize()
		}
		if in.Testimonials != nil {
			homepage.Testimonials = in.Testimonials.Normalize()
		}
		if in.SocialLinks != nil {
			homepage.SocialLinks = *in.SocialLinks
		}
		if errValidate := homepage.Validate(); errValidate != nil {
			return validationError("%v", errValidate)
		}
		homepage.UpdatedAt = s.now()
		if errSave := tx.Save(&homepage).Error; errSave != nil {
			return fmt.Errorf("save homepage: %w", errSave)
		}
		return nil
	})
	return homepage, errTx
}
