package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/service"
)

func TestHasSuperAdmin(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "menuqr-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	initialized, err := HasSuperAdmin(conn)
	if err != nil {
		t.Fatalf("HasSuperAdmin: %v", err)
	}
	if initialized {
		t.Fatalf("expected initialized=false before migrate")
	}

	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	svc := service.New(service.Deps{DB: conn})
	if _, errSignup := svc.Auth.Signup(context.Background(), service.SignupInput{
		Name:     "Owner",
		Email:    "owner@example.com",
		Password: "password123",
	}); errSignup != nil {
		t.Fatalf("signup: %v", errSignup)
	}

	initialized, err = HasSuperAdmin(conn)
	if err != nil {
		t.Fatalf("HasSuperAdmin after signup: %v", err)
	}
	if initialized {
		t.Fatalf("expected an owner account not to count as initialized")
	}

	if errCreate := CreateSuperAdminWithConn(context.Background(), conn, "Root", "root@example.com", "supersecret"); errCreate != nil {
		t.Fatalf("CreateSuperAdminWithConn: %v", errCreate)
	}

	initialized, err = HasSuperAdmin(conn)
	if err != nil {
		t.Fatalf("HasSuperAdmin after seed: %v", err)
	}
	if !initialized {
		t.Fatalf("expected initialized=true after super admin created")
	}
}
