package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/menuqr/menuqr/internal/config"
	log "github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		" WARN ":  log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	logFile := filepath.Join(t.TempDir(), "nested", "menuqr.log")
	closer, errSetup := Setup(config.ServerConfig{LogLevel: "warn", LoggingToFile: true, LogFile: logFile})
	if errSetup != nil {
		t.Fatalf("setup: %v", errSetup)
	}
	log.Warn("scan limit reached")
	if errClose := closer.Close(); errClose != nil {
		t.Fatalf("close: %v", errClose)
	}
	data, errRead := os.ReadFile(logFile)
	if errRead != nil {
		t.Fatalf("read log file: %v", errRead)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
	if log.GetLevel() != log.WarnLevel {
		t.Fatalf("expected warn level, got %v", log.GetLevel())
	}
	log.SetLevel(log.InfoLevel)
}
