package usage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/entitlement"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "usage-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedRestaurant(t *testing.T, conn *gorm.DB, slug string) models.Restaurant {
	t.Helper()
	user := models.User{
		Name:           "Owner " + slug,
		Email:          slug + "@example.com",
		Password:       "hash",
		ApprovalStatus: models.ApprovalApproved,
		Tier:           models.TierAdmin,
		IsApproved:     true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	restaurant := models.Restaurant{OwnerID: user.ID, Name: slug, Slug: slug}
	if errCreate := conn.Create(&restaurant).Error; errCreate != nil {
		t.Fatalf("create restaurant: %v", errCreate)
	}
	return restaurant
}

func TestRecordScanIncrementsCounters(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "bistrot")
	meter := NewMeter(conn)
	ctx := context.Background()

	meta := ClientMetadata{UserAgent: "Mozilla/5.0", IP: "203.0.113.9", Language: "fr-FR"}
	for i := 0; i < 3; i++ {
		if _, err := meter.RecordScan(ctx, restaurant.ID, nil, meta); err != nil {
			t.Fatalf("record scan %d: %v", i, err)
		}
	}
	stats, err := meter.RecordScan(ctx, restaurant.ID, nil, meta)
	if err != nil {
		t.Fatalf("record scan: %v", err)
	}
	if stats.ScansThisMonth != 4 || stats.ScansTotal != 4 {
		t.Fatalf("expected 4/4 scans, got %d/%d", stats.ScansThisMonth, stats.ScansTotal)
	}
	if stats.LastScanAt == nil || stats.RestaurantCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var scans int64
	if errCount := conn.Model(&models.QRScan{}).Where("restaurant_id = ?", restaurant.ID).Count(&scans).Error; errCount != nil {
		t.Fatalf("count scans: %v", errCount)
	}
	if scans != 4 {
		t.Fatalf("expected 4 scan rows, got %d", scans)
	}

	var last models.QRScan
	if errFind := conn.Where("restaurant_id = ?", restaurant.ID).Order("id desc").Take(&last).Error; errFind != nil {
		t.Fatalf("load scan: %v", errFind)
	}
	if last.IPAddress != "203.0.113.9" || last.Extra["language"] != "fr-FR" {
		t.Fatalf("unexpected scan metadata: ip=%q extra=%v", last.IPAddress, last.Extra)
	}
	if _, ok := last.Extra["referer"]; ok {
		t.Fatalf("expected empty referer to be omitted, got %v", last.Extra)
	}
}

func TestRecordScanUnknownRestaurant(t *testing.T) {
	conn := openTestDB(t)
	if _, err := NewMeter(conn).RecordScan(context.Background(), 999, nil, ClientMetadata{}); !errors.Is(err, ErrRestaurantNotFound) {
		t.Fatalf("expected ErrRestaurantNotFound, got %v", err)
	}
}

func TestRecordScanConcurrentNoLostUpdates(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "busy-place")
	meter := NewMeter(conn)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := meter.RecordScan(context.Background(), restaurant.ID, nil, ClientMetadata{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent scan: %v", err)
	}

	stats, _, err := meter.GetUsageStats(context.Background(), restaurant.OwnerID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.ScansThisMonth != workers {
		t.Fatalf("expected %d scans, got %d", workers, stats.ScansThisMonth)
	}
}

func TestResetMonthlyStatsIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "reset-me")
	ctx := context.Background()

	september := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	meter := NewMeter(conn).WithClock(func() time.Time { return september })
	for i := 0; i < 5; i++ {
		if _, err := meter.RecordScan(ctx, restaurant.ID, nil, ClientMetadata{}); err != nil {
			t.Fatalf("record scan: %v", err)
		}
	}

	october := time.Date(2026, 10, 2, 3, 0, 0, 0, time.UTC)
	meter.WithClock(func() time.Time { return october })
	reset, err := meter.ResetMonthlyStats(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 row reset, got %d", reset)
	}

	if _, errScan := meter.RecordScan(ctx, restaurant.ID, nil, ClientMetadata{}); errScan != nil {
		t.Fatalf("record scan: %v", errScan)
	}

	meter.WithClock(func() time.Time { return october.Add(48 * time.Hour) })
	again, err := meter.ResetMonthlyStats(ctx)
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected second reset to be a no-op, got %d", again)
	}

	stats, _, err := meter.GetUsageStats(ctx, restaurant.OwnerID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.ScansThisMonth != 1 || stats.ScansTotal != 6 {
		t.Fatalf("expected 1 this month and 6 total, got %d/%d", stats.ScansThisMonth, stats.ScansTotal)
	}
}

func TestGetUsageStatsMaterializesWithRestaurantCount(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "lazy")
	meter := NewMeter(conn)

	stats, origin, err := meter.GetUsageStats(context.Background(), restaurant.OwnerID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if origin != db.OriginDefault {
		t.Fatalf("expected default origin, got %s", origin)
	}
	if stats.RestaurantCount != 1 || stats.ScansThisMonth != 0 {
		t.Fatalf("unexpected materialized stats: %+v", stats)
	}

	_, origin, err = meter.GetUsageStats(context.Background(), restaurant.OwnerID)
	if err != nil || origin != db.OriginExisting {
		t.Fatalf("expected existing on second read, got %s (%v)", origin, err)
	}
}

func TestSyncRestaurantCount(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "sync")
	meter := NewMeter(conn)
	ctx := context.Background()

	if err := meter.SyncRestaurantCount(ctx, nil, restaurant.OwnerID); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if errDelete := conn.Delete(&models.Restaurant{}, restaurant.ID).Error; errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if err := meter.SyncRestaurantCount(ctx, nil, restaurant.OwnerID); err != nil {
		t.Fatalf("sync after delete: %v", err)
	}
	stats, _, err := meter.GetUsageStats(ctx, restaurant.OwnerID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.RestaurantCount != 0 {
		t.Fatalf("expected 0 restaurants, got %d", stats.RestaurantCount)
	}
}

func TestPizzaRomaFiftiethScanIsCriticalButRecorded(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "pizza-roma-demo")
	table := models.Table{RestaurantID: restaurant.ID, Number: "A1", QRCodeURL: "http://localhost/menu/pizza-roma-demo/A1"}
	if errCreate := conn.Create(&table).Error; errCreate != nil {
		t.Fatalf("create table: %v", errCreate)
	}
	meter := NewMeter(conn)
	limit := int64(plans.Details[plans.Freemium].MaxScansPerMonth)
	ctx := context.Background()

	var stats models.UsageStats
	for i := 1; i <= 49; i++ {
		var err error
		stats, err = meter.RecordScan(ctx, restaurant.ID, &table.ID, ClientMetadata{})
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	if got := entitlement.SoftLimitStatus(stats.ScansThisMonth, limit, false).Level; got != entitlement.LevelWarning {
		t.Fatalf("after 49 scans expected warning, got %s", got)
	}

	stats, err := meter.RecordScan(ctx, restaurant.ID, &table.ID, ClientMetadata{})
	if err != nil {
		t.Fatalf("50th scan must still be recorded: %v", err)
	}
	status := entitlement.SoftLimitStatus(stats.ScansThisMonth, limit, false)
	if stats.ScansThisMonth != 50 || status.Level != entitlement.LevelCritical || status.ShouldBlock {
		t.Fatalf("expected 50 scans at critical without blocking, got %d %+v", stats.ScansThisMonth, status)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	if got := truncate("  Zürich  ", 64); got != "Zürich" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	// "ü" spans bytes 1-2; a 2-byte cut must not keep half of it.
	if got := truncate("Zürich", 2); got != "Z" {
		t.Fatalf("expected cut before the split rune, got %q", got)
	}
	long := strings.Repeat("é", 300)
	got := truncate(long, 511)
	if !utf8.ValidString(got) || len(got) != 510 {
		t.Fatalf("expected 255 whole runes, got %d bytes valid=%v", len(got), utf8.ValidString(got))
	}
}

func TestRecordScanStoresMultibyteMetadata(t *testing.T) {
	conn := openTestDB(t)
	restaurant := seedRestaurant(t, conn, "sushi-zen")
	meta := ClientMetadata{UserAgent: strings.Repeat("日本", 200), City: strings.Repeat("Ö", 100)}
	if _, err := NewMeter(conn).RecordScan(context.Background(), restaurant.ID, nil, meta); err != nil {
		t.Fatalf("record scan: %v", err)
	}
	var scan models.QRScan
	if err := conn.Where("restaurant_id = ?", restaurant.ID).Take(&scan).Error; err != nil {
		t.Fatalf("load scan: %v", err)
	}
	if !utf8.ValidString(scan.UserAgent) || len(scan.UserAgent) > 512 {
		t.Fatalf("expected valid user agent within 512 bytes, got %d bytes", len(scan.UserAgent))
	}
	if !utf8.ValidString(scan.City) || len(scan.City) > 128 {
		t.Fatalf("expected valid city within 128 bytes, got %d bytes", len(scan.City))
	}
}
