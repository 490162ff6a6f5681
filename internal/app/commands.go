package app

import (
	"context"

	"github.com/menuqr/menuqr/internal/config"
	log "github.com/sirupsen/logrus"
)

// openForCommand loads the config at cfg and opens the runtime for a one-shot
// CLI command.
func openForCommand(cfg config.AppConfig) (*Runtime, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return nil, err
	}
	return Open(configPath, serverCfg)
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	rt, err := openForCommand(cfg)
	if err != nil {
		return err
	}
	rt.Close()
	log.Info("migrations applied")
	return nil
}

// ResetUsage zeroes every owner's monthly scan counter. It is meant to run
// from a scheduler on the first day of the month.
func ResetUsage(ctx context.Context, cfg config.AppConfig) (int64, error) {
	rt, err := openForCommand(cfg)
	if err != nil {
		return 0, err
	}
	defer rt.Close()
	reset, err := rt.Services.Deps().Meter.ResetMonthlyStats(ctx)
	if err != nil {
		return 0, err
	}
	log.Infof("usage: reset monthly scans for %d owners", reset)
	return reset, nil
}

// SeedDemo recreates the demo restaurant. Failures are logged and do not
// fail the command.
func SeedDemo(ctx context.Context, cfg config.AppConfig) {
	rt, err := openForCommand(cfg)
	if err != nil {
		log.WithError(err).Error("demo: open database")
		return
	}
	defer rt.Close()
	result, err := rt.Services.Demo.Seed(ctx)
	if err != nil {
		log.WithError(err).Error("demo: seed failed")
		return
	}
	log.Infof("demo: open %s/menu/%s/%s", rt.Server.PublicBaseURL, result.Restaurant.Slug, result.Table.Number)
}
