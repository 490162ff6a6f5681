package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "menuqr-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
}

func TestMigrateSplitsLegacyRoleColumn(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "menuqr-legacy.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	legacy := []string{
		`CREATE TABLE users (
			id integer PRIMARY KEY AUTOINCREMENT,
			name text,
			email text NOT NULL,
			password text NOT NULL,
			role text NOT NULL,
			created_at datetime NOT NULL,
			updated_at datetime NOT NULL
		)`,
		`INSERT INTO users (name, email, password, role, created_at, updated_at) VALUES
			('Root', 'root@example.com', 'x', 'SUPER_ADMIN', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP),
			('Owner', 'owner@example.com', 'x', 'ADMIN', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP),
			('Waiting', 'pending@example.com', 'x', 'PENDING', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP),
			('Refused', 'rejected@example.com', 'x', 'REJECTED', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	}
	for _, stmt := range legacy {
		if errExec := conn.Exec(stmt).Error; errExec != nil {
			t.Fatalf("create legacy schema: %v", errExec)
		}
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate legacy table: %v", errMigrate)
	}
	if conn.Migrator().HasColumn(&models.User{}, "role") {
		t.Fatalf("expected legacy role column to be dropped")
	}

	var users []models.User
	if errFind := conn.Order("id ASC").Find(&users).Error; errFind != nil {
		t.Fatalf("load users: %v", errFind)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	want := []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RolePending, models.RoleRejected}
	for i, u := range users {
		if u.Role() != want[i] {
			t.Fatalf("user %s: expected role %s, got %s (%s/%s)", u.Email, want[i], u.Role(), u.ApprovalStatus, u.Tier)
		}
		if u.IsApproved != (want[i] == models.RoleAdmin || want[i] == models.RoleSuperAdmin) {
			t.Fatalf("user %s: unexpected isApproved %v", u.Email, u.IsApproved)
		}
	}

	dup := models.User{Email: "owner@example.com", Password: "x", ApprovalStatus: models.ApprovalPending, Tier: models.TierAdmin}
	if errDup := conn.Create(&dup).Error; !IsUniqueViolation(errDup) {
		t.Fatalf("expected email index to survive the migration, got %v", errDup)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
}

func TestCategoryNamesAreUniquePerRestaurant(t *testing.T) {
	conn := openTestDB(t)
	if errCreate := conn.Create(&models.Category{RestaurantID: 1, Name: "Pizzas"}).Error; errCreate != nil {
		t.Fatalf("create category: %v", errCreate)
	}
	errDup := conn.Create(&models.Category{RestaurantID: 1, Name: "pizzas"}).Error
	if !IsUniqueViolation(errDup) {
		t.Fatalf("expected unique violation for a case-insensitive duplicate, got %v", errDup)
	}
	if errOther := conn.Create(&models.Category{RestaurantID: 2, Name: "Pizzas"}).Error; errOther != nil {
		t.Fatalf("same name in another restaurant: %v", errOther)
	}
}

func TestFirstOrSeedMaterializesOnce(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	seedCalls := 0
	seed := func() (models.RestaurantSettings, error) {
		seedCalls++
		return models.DefaultRestaurantSettings(7), nil
	}

	first, origin, err := FirstOrSeed(ctx, conn, "restaurant_id", uint64(7), seed)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if origin != OriginDefault {
		t.Fatalf("expected default origin, got %s", origin)
	}
	if first.ID == 0 || first.PrimaryColor != models.DefaultPrimaryColor {
		t.Fatalf("unexpected seeded row: %+v", first)
	}

	second, origin, err := FirstOrSeed(ctx, conn, "restaurant_id", uint64(7), seed)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if origin != OriginExisting || second.ID != first.ID {
		t.Fatalf("expected existing row %d, got %d (%s)", first.ID, second.ID, origin)
	}
	if seedCalls != 1 {
		t.Fatalf("expected seed to run once, ran %d times", seedCalls)
	}

	var count int64
	if errCount := conn.Model(&models.RestaurantSettings{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestFirstOrSeedRejectsInvalidDefaults(t *testing.T) {
	conn := openTestDB(t)
	_, _, err := FirstOrSeed(context.Background(), conn, "restaurant_id", uint64(9), func() (models.RestaurantSettings, error) {
		s := models.DefaultRestaurantSettings(9)
		s.PrimaryColor = "nope"
		return s, nil
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestJSONColumnsPersistEnvelope(t *testing.T) {
	conn := openTestDB(t)
	home := models.DefaultHomepage(3)
	home.Sliders = models.Sliders{{ID: "s1", Title: "Welcome", Order: 1}}
	if errCreate := conn.Create(&home).Error; errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	var raw string
	if errRaw := conn.Raw("SELECT sliders FROM homepages WHERE id = ?", home.ID).Scan(&raw).Error; errRaw != nil {
		t.Fatalf("raw: %v", errRaw)
	}
	if raw != `{"version":1,"items":[{"id":"s1","title":"Welcome","imageUrl":"","order":1}]}` {
		t.Fatalf("unexpected stored json: %s", raw)
	}

	var loaded models.Homepage
	if errFind := conn.First(&loaded, home.ID).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(loaded.Sliders) != 1 || loaded.Sliders[0].Title != "Welcome" {
		t.Fatalf("unexpected sliders: %+v", loaded.Sliders)
	}
}

func TestWithRetryRetriesTransientOnly(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("query: %w", driver.ErrBadConn)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got calls=%d err=%v", calls, err)
	}

	calls = 0
	errBusiness := errors.New("record not found")
	err = policy.Do(context.Background(), func(context.Context) error {
		calls++
		return errBusiness
	})
	if !errors.Is(err, errBusiness) || calls != 1 {
		t.Fatalf("expected single attempt for business error, got calls=%d err=%v", calls, err)
	}

	calls = 0
	errConn := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	err = policy.Do(context.Background(), func(context.Context) error {
		calls++
		return errConn
	})
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "08006" {
		t.Fatalf("expected original error after exhaustion, got %v", err)
	}
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := policy.Do(ctx, func(context.Context) error {
		calls++
		return fmt.Errorf("query: %w", driver.ErrBadConn)
	})
	if calls != 1 {
		t.Fatalf("expected a single attempt once cancelled, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	calls = 0
	errBusiness := errors.New("record not found")
	err = RetryPolicy{Attempts: 1}.Do(context.Background(), func(context.Context) error {
		calls++
		return errBusiness
	})
	if err != errBusiness || calls != 1 {
		t.Fatalf("expected the unwrapped business error, got calls=%d err=%v", calls, err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected pg unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")) {
		t.Fatalf("expected sqlite unique violation")
	}
	if IsUniqueViolation(errors.New("syntax error")) {
		t.Fatalf("unexpected unique violation")
	}
}
