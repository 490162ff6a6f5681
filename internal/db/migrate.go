package db

import (
	"fmt"

	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

// allModels lists every persisted model in dependency order.
func allModels() []any {
	return []any{
		&models.User{},
		&models.Restaurant{},
		&models.Category{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Reservation{},
		&models.Feedback{},
		&models.FeedbackItem{},
		&models.Homepage{},
		&models.RestaurantSettings{},
		&models.Subscription{},
		&models.UsageStats{},
		&models.QRScan{},
	}
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(allModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errLegacy := migrateLegacyUserRoles(conn); errLegacy != nil {
		return errLegacy
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_orders_restaurant_status_created",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_orders_restaurant_status_created
				ON orders (restaurant_id, status, created_at DESC)
			`,
		},
		{
			name: "idx_feedbacks_restaurant_approved",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_feedbacks_restaurant_approved
				ON feedbacks (restaurant_id, created_at DESC)
				WHERE is_approved = true
			`,
		},
		{
			name: "uidx_categories_restaurant_name",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS uidx_categories_restaurant_name
				ON categories (restaurant_id, LOWER(name))
			`,
		},
		{
			name: "idx_qr_scans_restaurant_scanned",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_qr_scans_restaurant_scanned
				ON qr_scans (restaurant_id, scanned_at DESC)
			`,
		},
		{
			name: "idx_usage_stats_reset_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_usage_stats_reset_at
				ON usage_stats (reset_at)
			`,
		},
		{
			name: "chk_order_items_quantity",
			sql: `
				DO $$
				BEGIN
					IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_order_items_quantity') THEN
						ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity >= 1);
					END IF;
				END $$;
			`,
		},
	}
	for _, stmt := range ddls {
		if errExec := conn.Exec(stmt.sql).Error; errExec != nil {
			return fmt.Errorf("db: apply %s: %w", stmt.name, errExec)
		}
	}
	return nil
}

// migrateSQLite applies SQLite schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(allModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errLegacy := migrateLegacyUserRoles(conn); errLegacy != nil {
		return errLegacy
	}

	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_restaurant_status_created ON orders (restaurant_id, status, created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_categories_restaurant_name ON categories (restaurant_id, LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_qr_scans_restaurant_scanned ON qr_scans (restaurant_id, scanned_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_stats_reset_at ON usage_stats (reset_at)`,
	}
	for _, stmt := range stmts {
		if errExec := conn.Exec(stmt).Error; errExec != nil {
			return fmt.Errorf("db: apply index: %w", errExec)
		}
	}
	return nil
}

// migrateLegacyUserRoles backfills approval status and tier from the single
// role column used by older schemas, then drops it. AutoMigrate has already
// added both columns with their defaults, so every row is rewritten.
func migrateLegacyUserRoles(conn *gorm.DB) error {
	if !conn.Migrator().HasColumn(&models.User{}, "role") {
		return nil
	}
	if errBackfill := conn.Exec(`
		UPDATE users
		SET approval_status = CASE role
				WHEN 'PENDING' THEN 'PENDING'
				WHEN 'REJECTED' THEN 'REJECTED'
				ELSE 'APPROVED'
			END,
			tier = CASE role
				WHEN 'SUPER_ADMIN' THEN 'SUPER_ADMIN'
				ELSE 'ADMIN'
			END,
			is_approved = CASE WHEN role IN ('ADMIN', 'SUPER_ADMIN') THEN true ELSE false END
	`).Error; errBackfill != nil {
		return fmt.Errorf("db: backfill user roles: %w", errBackfill)
	}
	if errDrop := conn.Migrator().DropColumn(&models.User{}, "role"); errDrop != nil {
		return fmt.Errorf("db: drop legacy role column: %w", errDrop)
	}
	// SQLite drops a column by rebuilding the table, which loses its indexes.
	if errIndexes := conn.AutoMigrate(&models.User{}); errIndexes != nil {
		return fmt.Errorf("db: restore user indexes: %w", errIndexes)
	}
	return nil
}
