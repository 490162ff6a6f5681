package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePort(t *testing.T) {
	for _, port := range []int{1, 8318, 65535} {
		if err := validatePort(port); err != nil {
			t.Fatalf("port %d: %v", port, err)
		}
	}
	for _, port := range []int{0, -1, 65536} {
		if err := validatePort(port); err == nil {
			t.Fatalf("expected port %d to be rejected", port)
		}
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := run(context.Background(), []string{"-config", configPath, "frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunRejectsBadPort(t *testing.T) {
	if err := run(context.Background(), []string{"-port", "0", "migrate"}); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestRunMigrateWithoutConfigFails(t *testing.T) {
	t.Setenv("DB_CONNECTION", "")
	configPath := filepath.Join(t.TempDir(), "missing.yaml")
	if err := run(context.Background(), []string{"-config", configPath, "migrate"}); err == nil {
		t.Fatalf("expected migrate to fail without a config file")
	}
}

func TestRunMigrateAndSeedDemo(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_CONNECTION", "file:"+filepath.Join(dir, "menuqr.db"))
	configPath := filepath.Join(dir, "config.yaml")
	if err := run(context.Background(), []string{"-config", configPath, "migrate"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := run(context.Background(), []string{"-config", configPath, "seed-demo"}); err != nil {
		t.Fatalf("seed-demo: %v", err)
	}
	if err := run(context.Background(), []string{"-config", configPath, "reset-usage"}); err != nil {
		t.Fatalf("reset-usage: %v", err)
	}
}
