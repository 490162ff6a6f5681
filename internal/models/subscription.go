package models

import (
	"fmt"
	"time"

	"github.com/menuqr/menuqr/internal/plans"
	"gorm.io/datatypes"
)

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription is the plan assigned to a user. Limits and features are
// copied from the catalog when the plan is assigned and are not kept in
// sync with later catalog edits.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID.

	Plan             plans.Plan         `gorm:"type:varchar(32);not null"` // Plan tier.
	Status           SubscriptionStatus `gorm:"type:varchar(16);not null"` // Billing state.
	MaxRestaurants   int                `gorm:"not null;default:0"`        // Restaurant cap snapshot.
	MaxScansPerMonth int                `gorm:"not null;default:0"`        // Monthly scan cap snapshot.
	Features         FeatureFlags       `gorm:"type:jsonb"`                // Feature flags snapshot.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// NewSubscription builds a subscription snapshotting the catalog entry for p.
func NewSubscription(userID uint64, p plans.Plan) (Subscription, error) {
	detail, ok := plans.Lookup(p)
	if !ok {
		return Subscription{}, fmt.Errorf("unknown plan %q", p)
	}
	return Subscription{
		UserID:           userID,
		Plan:             p,
		Status:           SubscriptionActive,
		MaxRestaurants:   detail.MaxRestaurants,
		MaxScansPerMonth: detail.MaxScansPerMonth,
		Features:         FeatureFlags(detail.FeatureSnapshot()),
	}, nil
}

// Validate checks the plan and the features snapshot.
func (s *Subscription) Validate() error {
	if _, ok := plans.Lookup(s.Plan); !ok {
		return fmt.Errorf("unknown plan %q", s.Plan)
	}
	if s.MaxRestaurants < 0 || s.MaxScansPerMonth < 0 {
		return fmt.Errorf("subscription limits must not be negative")
	}
	return s.Features.Validate()
}

// HasFeature reads the snapshot rather than the live catalog.
func (s Subscription) HasFeature(feature plans.Feature) bool {
	return s.Features[string(feature)]
}

// UsageStats holds the metered counters for one user.
type UsageStats struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID.

	RestaurantCount int        `gorm:"not null;default:0"` // Restaurants owned.
	ScansThisMonth  int64      `gorm:"not null;default:0"` // Scans since ResetAt.
	ScansTotal      int64      `gorm:"not null;default:0"` // Lifetime scans.
	LastScanAt      *time.Time // Most recent scan.
	ResetAt         time.Time  `gorm:"not null"` // When ScansThisMonth was last zeroed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName pins the table name.
func (UsageStats) TableName() string { return "usage_stats" }

// QRScan is an append-only record of one menu scan.
type QRScan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64  `gorm:"not null;index"` // Scanned restaurant ID.
	TableID      *uint64 `gorm:"index"`          // Scanned table ID, when known.

	UserAgent string            `gorm:"type:text"`         // Client user agent.
	IPAddress string            `gorm:"type:varchar(64)"`  // Client IP.
	Country   string            `gorm:"type:varchar(64)"`  // Client country, when known.
	City      string            `gorm:"type:varchar(128)"` // Client city, when known.
	Extra     datatypes.JSONMap `gorm:"type:jsonb"`        // Optional client hints such as language and referer.
	ScannedAt time.Time         `gorm:"not null;index"`    // Scan timestamp.
}

// TableName pins the table name.
func (QRScan) TableName() string { return "qr_scans" }
