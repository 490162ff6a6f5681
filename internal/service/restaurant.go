package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/menuqr/menuqr/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	maxRestaurantNameLength = 120
	maxSlugProbes           = 1000
	fallbackSlug            = "restaurant"
)

// RestaurantService implements restaurant.*.
type RestaurantService struct{ *base }

// RestaurantInput is the create request.
type RestaurantInput struct {
	Name         string              `json:"name" binding:"required"`
	Description  string              `json:"description"`
	Address      string              `json:"address"`
	Phone        string              `json:"phone"`
	Email        string              `json:"email"`
	OpeningHours models.OpeningHours `json:"openingHours"`
}

// Validate normalizes and checks the input.
func (in *RestaurantInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" {
		return validationError("name is required")
	}
	if len(in.Name) > maxRestaurantNameLength {
		return validationError("name must be at most %d characters", maxRestaurantNameLength)
	}
	if in.Email != "" {
		if errEmail := validateEmail(in.Email); errEmail != nil {
			return errEmail
		}
	}
	if errHours := in.OpeningHours.Validate(); errHours != nil {
		return validationError("opening hours: %v", errHours)
	}
	return nil
}

// UpdateRestaurantInput is a partial update; nil fields are left unchanged.
type UpdateRestaurantInput struct {
	Name         *string              `json:"name"`
	Description  *string              `json:"description"`
	Address      *string              `json:"address"`
	Phone        *string              `json:"phone"`
	Email        *string              `json:"email"`
	OpeningHours *models.OpeningHours `json:"openingHours"`
}

var slugFolding = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases name, folds accents, and joins alphanumeric runs with
// hyphens.
func Slugify(name string) string {
	folded, _, errFold := transform.String(slugFolding, name)
	if errFold != nil {
		folded = name
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}

// uniqueSlug probes base, base-1, base-2, ... until one is free.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxSlugProbes; i++ {
		var count int64
		if errCount := tx.Model(&models.Restaurant{}).Where("slug = ?", candidate).Count(&count).Error; errCount != nil {
			return "", fmt.Errorf("probe slug: %w", errCount)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", conflictError("no free slug for %q", base)
}

func createRestaurant(ctx context.Context, tx *gorm.DB, b *base, ownerID uint64, in RestaurantInput) (models.Restaurant, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Restaurant{}, errValidate
	}
	var owned int64
	if errCount := tx.Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Count(&owned).Error; errCount != nil {
		return models.Restaurant{}, fmt.Errorf("count restaurants: %w", errCount)
	}
	if owned > 0 {
		return models.Restaurant{}, conflictError("you already own a restaurant")
	}
	slug, errSlug := uniqueSlug(tx, Slugify(in.Name))
	if errSlug != nil {
		return models.Restaurant{}, errSlug
	}
	restaurant := models.Restaurant{
		OwnerID:      ownerID,
		Name:         in.Name,
		Slug:         slug,
		Description:  strings.TrimSpace(in.Description),
		Address:      strings.TrimSpace(in.Address),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        in.Email,
		OpeningHours: in.OpeningHours,
	}
	if errCreate := tx.Create(&restaurant).Error; errCreate != nil {
		return models.Restaurant{}, conflictOnUnique(errCreate, "restaurant already exists for this owner or slug")
	}
	if errSync := b.deps.Meter.SyncRestaurantCount(ctx, tx, ownerID); errSync != nil {
		return models.Restaurant{}, errSync
	}
	return restaurant, nil
}

// Create creates the caller's restaurant. An owner has at most one.
func (s *RestaurantService) Create(ctx context.Context, ownerID uint64, in RestaurantInput) (models.Restaurant, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Restaurant{}, errValidate
	}
	var restaurant models.Restaurant
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		var errCreate error
		restaurant, errCreate = createRestaurant(ctx, tx, s.base, ownerID, in)
		return errCreate
	})
	if errTx != nil {
		return models.Restaurant{}, errTx
	}
	log.Infof("restaurant: created %q (slug %s) for user %d", restaurant.Name, restaurant.Slug, ownerID)
	return restaurant, nil
}

// Mine returns the caller's restaurant.
func (s *RestaurantService) Mine(ctx context.Context, ownerID uint64) (models.Restaurant, error) {
	var restaurant models.Restaurant
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errLoad error
		restaurant, errLoad = ownedRestaurant(conn, ownerID)
		return errLoad
	})
	return restaurant, errRun
}

// GetBySlug returns a restaurant for the public menu.
func (s *RestaurantService) GetBySlug(ctx context.Context, slug string) (models.Restaurant, error) {
	var restaurant models.Restaurant
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errLoad error
		restaurant, errLoad = restaurantBySlug(conn, strings.TrimSpace(slug))
		return errLoad
	})
	return restaurant, errRun
}

// Update edits the caller's restaurant. The slug is kept so printed QR codes
// stay valid.
func (s *RestaurantService) Update(ctx context.Context, ownerID uint64, in UpdateRestaurantInput) (models.Restaurant, error) {
	var restaurant models.Restaurant
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		current, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		next := RestaurantInput{
			Name:         current.Name,
			Description:  current.Description,
			Address:      current.Address,
			Phone:        current.Phone,
			Email:        current.Email,
			OpeningHours: current.OpeningHours,
		}
		if in.Name != nil {
			next.Name = *in.Name
		}
		if in.Description != nil {
			next.Description = strings.TrimSpace(*in.Description)
		}
		if in.Address != nil {
			next.Address = strings.TrimSpace(*in.Address)
		}
		if in.Phone != nil {
			next.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Email != nil {
			next.Email = *in.Email
		}
		if in.OpeningHours != nil {
			next.OpeningHours = *in.OpeningHours
		}
		if errValidate := next.Validate(); errValidate != nil {
			return errValidate
		}

		current.Name = next.Name
		current.Description = next.Description
		current.Address = next.Address
		current.Phone = next.Phone
		current.Email = next.Email
		current.OpeningHours = next.OpeningHours
		current.UpdatedAt = s.now()
		if errSave := tx.Save(&current).Error; errSave != nil {
			return fmt.Errorf("update restaurant: %w", errSave)
		}
		restaurant = current
		return nil
	})
	return restaurant, errTx
}

// Delete removes the caller's restaurant and everything hanging off it.
func (s *RestaurantService) Delete(ctx context.Context, ownerID uint64) error {
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errPurge := purgeRestaurant(tx, restaurant.ID); errPurge != nil {
			return errPurge
		}
		return s.deps.Meter.SyncRestaurantCount(ctx, tx, ownerID)
	})
	if errTx != nil {
		return errTx
	}
	log.Infof("restaurant: deleted restaurant of user %d", ownerID)
	return nil
}

// purgeRestaurant deletes a restaurant with all dependent rows, children
// first.
func purgeRestaurant(tx *gorm.DB, restaurantID uint64) error {
	orderIDs := tx.Model(&models.Order{}).Select("id").Where("restaurant_id = ?", restaurantID)
	feedbackIDs := tx.Model(&models.Feedback{}).Select("id").Where("restaurant_id = ?", restaurantID)
	steps := []struct {
		label string
		run   func() error
	}{
		{"order items", func() error { return tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}).Error }},
		{"orders", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Order{}).Error }},
		{"feedback items", func() error {
			return tx.Where("feedback_id IN (?)", feedbackIDs).Delete(&models.FeedbackItem{}).Error
		}},
		{"feedbacks", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Feedback{}).Error }},
		{"menu items", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.MenuItem{}).Error }},
		{"categories", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Category{}).Error }},
		{"tables", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Table{}).Error }},
		{"reservations", func() error {
			return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Reservation{}).Error
		}},
		{"homepage", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Homepage{}).Error }},
		{"settings", func() error {
			return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.RestaurantSettings{}).Error
		}},
		{"qr scans", func() error { return tx.Where("restaurant_id = ?", restaurantID).Delete(&models.QRScan{}).Error }},
		{"restaurant", func() error { return tx.Delete(&models.Restaurant{}, restaurantID).Error }},
	}
	for _, step := range steps {
		if errStep := step.run(); errStep != nil {
			return fmt.Errorf("delete %s: %w", step.label, errStep)
		}
	}
	return nil
}
