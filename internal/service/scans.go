package service

import (
	"context"
	"errors"
	"strings"

	"github.com/menuqr/menuqr/internal/entitlement"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/usage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScanService implements scan.record.
type ScanService struct{ *base }

// ScanResult is what the recording produced. Stats and Limit describe the
// owner and are not meant for the diner.
type ScanResult struct {
	Restaurant models.Restaurant
	Table      *models.Table
	Stats      models.UsageStats
	Limit      entitlement.Limit
}

// Record logs a scan of the restaurant behind slug. An empty tableNumber
// records a scan of the menu without a table. Scans are never refused for
// being over the plan limit.
func (s *ScanService) Record(ctx context.Context, slug, tableNumber string, meta usage.ClientMetadata) (ScanResult, error) {
	var (
		result ScanResult
		sub    models.Subscription
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		result = ScanResult{Restaurant: restaurant}
		if number := strings.TrimSpace(tableNumber); number != "" {
			table, errTable := tableByNumber(conn, restaurant.ID, number)
			if errTable != nil {
				return errTable
			}
			result.Table = &table
		}
		var errSub error
		sub, _, errSub = subscriptionFor(ctx, conn, restaurant.OwnerID)
		return errSub
	})
	if errRun != nil {
		return ScanResult{}, errRun
	}

	var tableID *uint64
	if result.Table != nil {
		tableID = &result.Table.ID
	}
	stats, errRecord := s.deps.Meter.RecordScan(ctx, result.Restaurant.ID, tableID, meta)
	if errRecord != nil {
		if errors.Is(errRecord, usage.ErrRestaurantNotFound) {
			return ScanResult{}, notFoundError("restaurant %q not found", slug)
		}
		return ScanResult{}, errRecord
	}
	result.Stats = stats
	result.Limit = entitlement.SoftLimitStatus(stats.ScansThisMonth, int64(sub.MaxScansPerMonth), s.deps.Policy.IsGrandfathered(sub))
	if result.Limit.ShouldNotify {
		log.WithFields(log.Fields{
			"restaurant": result.Restaurant.Slug,
			"scans":      stats.ScansThisMonth,
			"limit":      sub.MaxScansPerMonth,
			"level":      result.Limit.Level,
		}).Info("scan: owner is near the monthly scan limit")
	}
	return result, nil
}
