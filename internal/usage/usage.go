// Package usage meters QR scans and owned restaurants per user.
package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRestaurantNotFound is returned when a scan targets an unknown restaurant.
var ErrRestaurantNotFound = errors.New("usage: restaurant not found")

// ClientMetadata describes the device that scanned a QR code.
type ClientMetadata struct {
	UserAgent string
	IP        string
	Country   string
	City      string
	Language  string // Accept-Language, when sent.
	Referer   string
}

// extra collects the optional hints stored alongside the fixed columns.
func (meta ClientMetadata) extra() datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if language := truncate(meta.Language, 64); language != "" {
		out["language"] = language
	}
	if referer := truncate(meta.Referer, 512); referer != "" {
		out["referer"] = referer
	}
	return out
}

// Meter records scans and maintains UsageStats rows.
type Meter struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewMeter constructs a Meter backed by GORM.
func NewMeter(db *gorm.DB) *Meter {
	return &Meter{db: db, nowFn: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (m *Meter) WithClock(nowFn func() time.Time) *Meter {
	if nowFn != nil {
		m.nowFn = nowFn
	}
	return m
}

func (m *Meter) now() time.Time { return m.nowFn().UTC() }

// RecordScan appends a QRScan and increments the owner's counters in one
// transaction. Duplicate submissions are recorded twice.
func (m *Meter) RecordScan(ctx context.Context, restaurantID uint64, tableID *uint64, meta ClientMetadata) (models.UsageStats, error) {
	if m == nil || m.db == nil {
		return models.UsageStats{}, fmt.Errorf("usage: nil meter")
	}

	var stats models.UsageStats
	errRun := dbutil.WithRetry(ctx, func(ctx context.Context) error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var restaurant models.Restaurant
			if errFind := tx.Select("id", "owner_id").First(&restaurant, restaurantID).Error; errFind != nil {
				if errors.Is(errFind, gorm.ErrRecordNotFound) {
					return ErrRestaurantNotFound
				}
				return fmt.Errorf("usage: load restaurant: %w", errFind)
			}

			now := m.now()
			scan := models.QRScan{
				RestaurantID: restaurant.ID,
				TableID:      tableID,
				UserAgent:    truncate(meta.UserAgent, 512),
				IPAddress:    truncate(meta.IP, 64),
				Country:      truncate(meta.Country, 64),
				City:         truncate(meta.City, 128),
				Extra:        meta.extra(),
				ScannedAt:    now,
			}
			if errCreate := tx.Create(&scan).Error; errCreate != nil {
				return fmt.Errorf("usage: append scan: %w", errCreate)
			}

			restaurantCount, errCount := countRestaurants(tx, restaurant.OwnerID)
			if errCount != nil {
				return errCount
			}
			row := models.UsageStats{
				UserID:          restaurant.OwnerID,
				RestaurantCount: restaurantCount,
				ScansThisMonth:  1,
				ScansTotal:      1,
				LastScanAt:      &now,
				ResetAt:         now,
			}
			if errUpsert := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"scans_this_month": gorm.Expr("usage_stats.scans_this_month + 1"),
					"scans_total":      gorm.Expr("usage_stats.scans_total + 1"),
					"last_scan_at":     now,
					"updated_at":       now,
				}),
			}).Create(&row).Error; errUpsert != nil {
				return fmt.Errorf("usage: increment stats: %w", errUpsert)
			}

			return tx.Where("user_id = ?", restaurant.OwnerID).Take(&stats).Error
		})
	})
	if errRun != nil {
		return models.UsageStats{}, errRun
	}
	return stats, nil
}

// ResetMonthlyStats zeroes scansThisMonth for rows not reset since the start
// of the current calendar month. Running it again within the month is a
// no-op. It returns the number of rows reset.
func (m *Meter) ResetMonthlyStats(ctx context.Context) (int64, error) {
	if m == nil || m.db == nil {
		return 0, fmt.Errorf("usage: nil meter")
	}
	now := m.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var affected int64
	errRun := dbutil.WithRetry(ctx, func(ctx context.Context) error {
		res := m.db.WithContext(ctx).Model(&models.UsageStats{}).
			Where("reset_at < ?", monthStart).
			Updates(map[string]any{
				"scans_this_month": 0,
				"reset_at":         now,
				"updated_at":       now,
			})
		if res.Error != nil {
			return fmt.Errorf("usage: reset monthly stats: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if errRun != nil {
		return 0, errRun
	}
	log.Infof("usage: monthly reset zeroed %d row(s) before %s", affected, monthStart.Format("2006-01-02"))
	return affected, nil
}

// GetUsageStats returns the user's counters, materializing a zeroed row
// seeded with the real restaurant count on first read.
func (m *Meter) GetUsageStats(ctx context.Context, userID uint64) (models.UsageStats, dbutil.Origin, error) {
	if m == nil || m.db == nil {
		return models.UsageStats{}, dbutil.OriginExisting, fmt.Errorf("usage: nil meter")
	}
	return dbutil.FirstOrSeed(ctx, m.db, "user_id", userID, func() (models.UsageStats, error) {
		count, errCount := countRestaurants(m.db.WithContext(ctx), userID)
		if errCount != nil {
			return models.UsageStats{}, errCount
		}
		return models.UsageStats{
			UserID:          userID,
			RestaurantCount: count,
			ResetAt:         m.now(),
		}, nil
	})
}

// SyncRestaurantCount rewrites restaurantCount from the restaurants table.
// Pass the transaction that created or deleted the restaurant.
func (m *Meter) SyncRestaurantCount(ctx context.Context, tx *gorm.DB, userID uint64) error {
	if m == nil {
		return fmt.Errorf("usage: nil meter")
	}
	if tx == nil {
		tx = m.db
	}
	if tx == nil {
		return fmt.Errorf("usage: nil db")
	}
	tx = tx.WithContext(ctx)
	count, errCount := countRestaurants(tx, userID)
	if errCount != nil {
		return errCount
	}
	now := m.now()
	row := models.UsageStats{UserID: userID, RestaurantCount: count, ResetAt: now}
	if errUpsert := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"restaurant_count": count,
			"updated_at":       now,
		}),
	}).Create(&row).Error; errUpsert != nil {
		return fmt.Errorf("usage: sync restaurant count: %w", errUpsert)
	}
	return nil
}

func countRestaurants(tx *gorm.DB, ownerID uint64) (int, error) {
	var count int64
	if errCount := tx.Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("usage: count restaurants: %w", errCount)
	}
	return int(count), nil
}

// truncate trims value to at most max bytes without splitting a rune.
func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return strings.ToValidUTF8(value[:cut], "")
}
