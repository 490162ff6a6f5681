package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
	"github.com/menuqr/menuqr/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Demo fixtures.
const (
	DemoSlug        = "pizza-roma-demo"
	DemoTableNumber = "A1"
	DemoOwnerEmail  = "demo@menuqr.app"
	demoName        = "Pizza Roma"
)

// DemoService implements demo.*.
type DemoService struct{ *base }

// DemoResult describes the seeded data.
type DemoResult struct {
	Owner      models.User
	Restaurant models.Restaurant
	Table      models.Table
	Items      int
}

type demoItem struct {
	name        string
	description string
	price       float64
}

var demoMenu = []struct {
	category string
	emoji    string
	items    []demoItem
}{
	{"Pizzas", "🍕", []demoItem{
		{"Margherita", "Tomato, mozzarella, basil", 10.00},
		{"Regina", "Tomato, mozzarella, ham, mushrooms", 12.50},
		{"Quattro Formaggi", "Mozzarella, gorgonzola, parmesan, goat cheese", 13.90},
	}},
	{"Drinks", "🥤", []demoItem{
		{"San Pellegrino", "50 cl", 3.50},
		{"Limonata", "Homemade lemonade", 5.50},
	}},
	{"Desserts", "🍰", []demoItem{
		{"Tiramisu", "Mascarpone, coffee, cocoa", 6.50},
		{"Panna Cotta", "Red berry coulis", 6.00},
	}},
}

// Seed recreates the Pizza Roma demo restaurant from scratch.
func (s *DemoService) Seed(ctx context.Context) (DemoResult, error) {
	if _, errReset := s.Reset(ctx); errReset != nil {
		return DemoResult{}, errReset
	}
	password, errRandom := security.GenerateRandomString(16)
	if errRandom != nil {
		return DemoResult{}, errRandom
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return DemoResult{}, errHash
	}

	var result DemoResult
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		owner := models.User{
			Name:           "Pizza Roma",
			Email:          DemoOwnerEmail,
			Password:       hash,
			ApprovalStatus: models.ApprovalApproved,
			Tier:           models.TierAdmin,
			IsApproved:     true,
			ApprovedAt:     &now,
		}
		if errCreate := tx.Create(&owner).Error; errCreate != nil {
			return fmt.Errorf("create demo owner: %w", errCreate)
		}
		if errSub := createSubscription(tx, owner.ID, plans.Freemium); errSub != nil {
			return errSub
		}

		restaurant := models.Restaurant{
			OwnerID:     owner.ID,
			Name:        demoName,
			Slug:        DemoSlug,
			Description: "Authentic wood-fired pizzas in the heart of town.",
			Address:     "12 Via Roma",
			Phone:       "+33 1 23 45 67 89",
			Email:       "contact@pizzaroma.example",
			OpeningHours: models.OpeningHours{
				"monday":    {IsOpen: false},
				"tuesday":   {IsOpen: true, OpenTime: "11:30", CloseTime: "22:30"},
				"wednesday": {IsOpen: true, OpenTime: "11:30", CloseTime: "22:30"},
				"thursday":  {IsOpen: true, OpenTime: "11:30", CloseTime: "22:30"},
				"friday":    {IsOpen: true, OpenTime: "11:30", CloseTime: "23:30"},
				"saturday":  {IsOpen: true, OpenTime: "11:30", CloseTime: "23:30"},
				"sunday":    {IsOpen: true, OpenTime: "12:00", CloseTime: "22:00"},
			},
		}
		if errValidate := restaurant.Validate(); errValidate != nil {
			return errValidate
		}
		if errCreate := tx.Create(&restaurant).Error; errCreate != nil {
			return conflictOnUnique(errCreate, "slug %s is taken", DemoSlug)
		}
		if errSync := s.deps.Meter.SyncRestaurantCount(ctx, tx, owner.ID); errSync != nil {
			return errSync
		}

		table := models.Table{RestaurantID: restaurant.ID, Number: DemoTableNumber}
		payload, errQR := s.deps.QR.ForTable(restaurant.Slug, table.Number)
		if errQR != nil {
			return fmt.Errorf("render demo qr: %w", errQR)
		}
		table.QRCodeURL = payload.URL
		table.QRCodeData = payload.Data
		if errCreate := tx.Create(&table).Error; errCreate != nil {
			return fmt.Errorf("create demo table: %w", errCreate)
		}

		items := 0
		for order, section := range demoMenu {
			category := models.Category{RestaurantID: restaurant.ID, Name: section.category, Emoji: section.emoji, Order: order}
			if errCreate := tx.Create(&category).Error; errCreate != nil {
				return fmt.Errorf("create demo category: %w", errCreate)
			}
			for _, entry := range section.items {
				item := models.MenuItem{
					RestaurantID: restaurant.ID,
					CategoryID:   category.ID,
					Name:         entry.name,
					Description:  entry.description,
					Price:        entry.price,
					Available:    true,
				}
				if errCreate := tx.Create(&item).Error; errCreate != nil {
					return fmt.Errorf("create demo item: %w", errCreate)
				}
				items++
			}
		}

		settings := models.DefaultRestaurantSettings(restaurant.ID)
		settings.PrimaryColor = "#c0392b"
		if errCreate := tx.Create(&settings).Error; errCreate != nil {
			return fmt.Errorf("create demo settings: %w", errCreate)
		}
		homepage := models.DefaultHomepage(restaurant.ID)
		homepage.Presentation = "Since 1998, Pizza Roma bakes Neapolitan pizzas in a wood-fired oven."
		homepage.Testimonials = models.Testimonials{{CustomerName: "Giulia", Rating: 5, Comment: "Best margherita in town!", Order: 1}}.Normalize()
		if errValidate := homepage.Validate(); errValidate != nil {
			return errValidate
		}
		if errCreate := tx.Create(&homepage).Error; errCreate != nil {
			return fmt.Errorf("create demo homepage: %w", errCreate)
		}

		result = DemoResult{Owner: owner, Restaurant: restaurant, Table: table, Items: items}
		return nil
	})
	if errTx != nil {
		return DemoResult{}, errTx
	}
	log.Infof("demo: seeded %s with table %s and %d items", DemoSlug, DemoTableNumber, result.Items)
	return result, nil
}

// Reset deletes the demo restaurant, its scans, and the demo owner. It
// reports whether anything was removed.
func (s *DemoService) Reset(ctx context.Context) (bool, error) {
	removed := false
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		errFind := tx.Where("slug = ?", DemoSlug).Take(&restaurant).Error
		switch {
		case errFind == nil:
			if errPurge := purgeRestaurant(tx, restaurant.ID); errPurge != nil {
				return errPurge
			}
			removed = true
		case !errors.Is(errFind, gorm.ErrRecordNotFound):
			return fmt.Errorf("load demo restaurant: %w", errFind)
		}

		var owner models.User
		errOwner := tx.Where("email = ?", DemoOwnerEmail).Take(&owner).Error
		switch {
		case errOwner == nil:
			for _, model := range []any{&models.Subscription{}, &models.UsageStats{}} {
				if errDelete := tx.Where("user_id = ?", owner.ID).Delete(model).Error; errDelete != nil {
					return fmt.Errorf("delete demo owner data: %w", errDelete)
				}
			}
			if errDelete := tx.Delete(&owner).Error; errDelete != nil {
				return fmt.Errorf("delete demo owner: %w", errDelete)
			}
			removed = true
		case !errors.Is(errOwner, gorm.ErrRecordNotFound):
			return fmt.Errorf("load demo owner: %w", errOwner)
		}
		return nil
	})
	if errTx != nil {
		return false, errTx
	}
	if removed {
		log.Infof("demo: reset %s", DemoSlug)
	}
	return removed, nil
}
