// Package service implements the MenuQR procedures: typed, validated
// operations grouped by resource. Handlers in internal/http call into it and
// map returned errors through HTTPStatus.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/menuqr/menuqr/internal/config"
	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/entitlement"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/qrcode"
	"github.com/menuqr/menuqr/internal/usage"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every procedure group.
type Deps struct {
	DB     *gorm.DB
	JWT    config.JWTConfig
	QR     *qrcode.Generator
	Meter  *usage.Meter
	Policy entitlement.Policy
	Retry  dbutil.RetryPolicy
	Now    func() time.Time
}

// Services bundles the procedure groups.
type Services struct {
	deps Deps

	Auth          *AuthService
	Restaurants   *RestaurantService
	Menu          *MenuService
	Tables        *TableService
	Orders        *OrderService
	Reservations  *ReservationService
	Feedbacks     *FeedbackService
	Homepage      *HomepageService
	Settings      *SettingsService
	Subscriptions *SubscriptionService
	Users         *UserService
	Scans         *ScanService
	Demo          *DemoService
}

// New wires every procedure group over deps. Missing optional collaborators
// get defaults.
func New(deps Deps) *Services {
	if deps.QR == nil {
		deps.QR = qrcode.NewGenerator(config.DefaultPublicBaseURL, qrcode.DefaultSize)
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Meter == nil {
		deps.Meter = usage.NewMeter(deps.DB).WithClock(deps.Now)
	}
	if deps.Retry.Attempts <= 0 {
		deps.Retry = dbutil.DefaultRetryPolicy
	}
	b := &base{deps: deps}
	return &Services{
		deps:          deps,
		Auth:          &AuthService{b},
		Restaurants:   &RestaurantService{b},
		Menu:          &MenuService{b},
		Tables:        &TableService{b},
		Orders:        &OrderService{b},
		Reservations:  &ReservationService{b},
		Feedbacks:     &FeedbackService{b},
		Homepage:      &HomepageService{b},
		Settings:      &SettingsService{b},
		Subscriptions: &SubscriptionService{b},
		Users:         &UserService{b},
		Scans:         &ScanService{b},
		Demo:          &DemoService{b},
	}
}

// Deps returns the resolved collaborators.
func (s *Services) Deps() Deps { return s.deps }

type base struct {
	deps Deps
}

func (b *base) now() time.Time { return b.deps.Now().UTC() }

// run executes fn against the store, retrying transient failures.
func (b *base) run(ctx context.Context, fn func(conn *gorm.DB) error) error {
	return b.deps.Retry.Do(ctx, func(ctx context.Context) error {
		return fn(b.deps.DB.WithContext(ctx))
	})
}

// tx executes fn in one transaction, retrying the whole unit on transient
// failures. fn must only use the tx it is given.
func (b *base) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.deps.Retry.Do(ctx, func(ctx context.Context) error {
		return b.deps.DB.WithContext(ctx).Transaction(fn)
	})
}

// ownedRestaurant loads the restaurant owned by ownerID.
func ownedRestaurant(conn *gorm.DB, ownerID uint64) (models.Restaurant, error) {
	var restaurant models.Restaurant
	errFind := conn.Where("owner_id = ?", ownerID).Take(&restaurant).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Restaurant{}, notFoundError("restaurant not found: create one first")
		}
		return models.Restaurant{}, fmt.Errorf("load restaurant: %w", errFind)
	}
	return restaurant, nil
}

// restaurantBySlug loads a restaurant for the public procedures.
func restaurantBySlug(conn *gorm.DB, slug string) (models.Restaurant, error) {
	var restaurant models.Restaurant
	errFind := conn.Where("slug = ?", slug).Take(&restaurant).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Restaurant{}, notFoundError("restaurant %q not found", slug)
		}
		return models.Restaurant{}, fmt.Errorf("load restaurant: %w", errFind)
	}
	return restaurant, nil
}

// takeOwned loads the row with id that belongs to restaurantID into dest.
func takeOwned(conn *gorm.DB, dest any, restaurantID, id uint64, label string) error {
	errFind := conn.Where("id = ? AND restaurant_id = ?", id, restaurantID).Take(dest).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return notFoundError("%s not found", label)
		}
		return fmt.Errorf("load %s: %w", label, errFind)
	}
	return nil
}

func loadUser(conn *gorm.DB, id uint64) (models.User, error) {
	var user models.User
	if errFind := conn.First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.User{}, notFoundError("user not found")
		}
		return models.User{}, fmt.Errorf("load user: %w", errFind)
	}
	return user, nil
}

func settingsFor(ctx context.Context, conn *gorm.DB, restaurantID uint64) (models.RestaurantSettings, dbutil.Origin, error) {
	return dbutil.FirstOrSeed(ctx, conn, "restaurant_id", restaurantID, func() (models.RestaurantSettings, error) {
		return models.DefaultRestaurantSettings(restaurantID), nil
	})
}

func homepageFor(ctx context.Context, conn *gorm.DB, restaurantID uint64) (models.Homepage, dbutil.Origin, error) {
	return dbutil.FirstOrSeed(ctx, conn, "restaurant_id", restaurantID, func() (models.Homepage, error) {
		return models.DefaultHomepage(restaurantID), nil
	})
}

// conflictOnUnique turns a unique-constraint violation into a Conflict.
func conflictOnUnique(err error, format string, args ...any) error {
	if err != nil && dbutil.IsUniqueViolation(err) {
		return conflictError(format, args...)
	}
	return err
}
