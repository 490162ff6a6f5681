package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menuqr/menuqr/internal/config"
	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
)

func TestCreateSuperAdminWithConn_ApprovedEnterprise(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "menuqr-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if errCreate := CreateSuperAdminWithConn(context.Background(), conn, "Root", "Root@Example.com", "supersecret"); errCreate != nil {
		t.Fatalf("CreateSuperAdminWithConn: %v", errCreate)
	}

	var admin models.User
	if errFind := conn.First(&admin).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if admin.Tier != models.TierSuperAdmin {
		t.Fatalf("expected SUPER_ADMIN tier, got %q", admin.Tier)
	}
	if admin.ApprovalStatus != models.ApprovalApproved || !admin.IsApproved {
		t.Fatalf("expected approved super admin, got %q", admin.ApprovalStatus)
	}

	var sub models.Subscription
	if errFind := conn.Where("user_id = ?", admin.ID).Take(&sub).Error; errFind != nil {
		t.Fatalf("find subscription: %v", errFind)
	}
	if sub.Plan != plans.Enterprise {
		t.Fatalf("expected ENTERPRISE subscription, got %q", sub.Plan)
	}

	if errDup := CreateSuperAdminWithConn(context.Background(), conn, "Root", "root@example.com", "supersecret"); errDup == nil {
		t.Fatalf("expected duplicate email to fail")
	}
}

func TestValidateInitRequest(t *testing.T) {
	req := InitRequest{AdminName: " Root ", AdminEmail: " Root@Example.com ", AdminPassword: "supersecret"}
	if err := validateInitRequest(&req); err != nil {
		t.Fatalf("validateInitRequest: %v", err)
	}
	if req.DatabaseType != "sqlite" || req.DatabasePath != defaultSQLitePath {
		t.Fatalf("expected sqlite defaults, got %q %q", req.DatabaseType, req.DatabasePath)
	}
	if req.AdminEmail != "root@example.com" || req.AdminName != "Root" {
		t.Fatalf("expected normalized admin, got %q %q", req.AdminName, req.AdminEmail)
	}

	short := InitRequest{AdminName: "Root", AdminEmail: "root@example.com", AdminPassword: "short"}
	if err := validateInitRequest(&short); err == nil {
		t.Fatalf("expected short password to fail")
	}

	pg := InitRequest{DatabaseType: "postgres", AdminName: "Root", AdminEmail: "root@example.com", AdminPassword: "supersecret"}
	if err := validateInitRequest(&pg); err == nil {
		t.Fatalf("expected postgres without host to fail")
	}
}

func TestWriteConfigFileIsLoadable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conf", "config.yaml")
	dsn := buildSQLiteDSN(filepath.Join(t.TempDir(), "menuqr.db"))
	if err := WriteConfigFile(configPath, dsn, 9000, ""); err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 config, got %v", info.Mode().Perm())
	}

	loadedDSN, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if loadedDSN != dsn {
		t.Fatalf("expected dsn %q, got %q", dsn, loadedDSN)
	}
	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if len(jwtCfg.Secret) < 32 {
		t.Fatalf("expected generated jwt secret, got %q", jwtCfg.Secret)
	}
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if serverCfg.Port != 9000 || serverCfg.PublicBaseURL != "http://localhost:9000" {
		t.Fatalf("unexpected server config: port=%d base=%q", serverCfg.Port, serverCfg.PublicBaseURL)
	}
	if _, errCutoff := serverCfg.GrandfatherCutoff(); errCutoff != nil {
		t.Fatalf("GrandfatherCutoff: %v", errCutoff)
	}
}

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN(InitRequest{DatabaseType: "sqlite", DatabasePath: "data/menuqr.db"})
	if err != nil {
		t.Fatalf("BuildDSN sqlite: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:data/menuqr.db?") {
		t.Fatalf("unexpected sqlite dsn %q", dsn)
	}

	dsn, err = BuildDSN(InitRequest{
		DatabaseType:     "postgres",
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "menuqr",
		DatabasePassword: "secret",
		DatabaseName:     "menuqr",
	})
	if err != nil {
		t.Fatalf("BuildDSN postgres: %v", err)
	}
	if dsn != "postgres://menuqr:secret@db:5432/menuqr?sslmode=disable" {
		t.Fatalf("unexpected postgres dsn %q", dsn)
	}

	if _, errBad := BuildDSN(InitRequest{DatabaseType: "mysql"}); errBad == nil {
		t.Fatalf("expected unsupported type to fail")
	}
}
