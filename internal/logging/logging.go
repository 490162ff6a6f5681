// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/menuqr/menuqr/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB   = 10
	maxLogBackups  = 5
	maxLogAgeDays  = 30
	timestampStyle = "2006-01-02 15:04:05"
)

// ParseLevel maps a config level string to a logrus level, defaulting to info.
func ParseLevel(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Setup applies level, format and output from cfg. When file logging is on,
// the returned closer releases the rotating file.
func Setup(cfg config.ServerConfig) (io.Closer, error) {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: timestampStyle})

	if !cfg.LoggingToFile {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}
	logFile := strings.TrimSpace(cfg.LogFile)
	if logFile == "" {
		logFile = config.DefaultLogFile
	}
	if errMkdir := os.MkdirAll(filepath.Dir(logFile), 0o755); errMkdir != nil {
		return nil, errMkdir
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
