package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/menuqr/menuqr/internal/app"
	"github.com/menuqr/menuqr/internal/config"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: menuqr [flags] [command]

commands:
  serve        run the HTTP server (default)
  migrate      apply database migrations
  reset-usage  zero every owner's monthly scan counter
  seed-demo    recreate the Pizza Roma demo restaurant
`

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errEnv := godotenv.Load(); errEnv != nil && !errors.Is(errEnv, os.ErrNotExist) {
		log.WithError(errEnv).Warn("load .env")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, resolves the config path, and dispatches the command.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menuqr", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 8318, "server port (used for init server and initial config)")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}
	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	command := "serve"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}
	switch command {
	case "serve":
		return serve(ctx, appCfg, *port)
	case "migrate":
		return app.Migrate(ctx, appCfg)
	case "reset-usage":
		_, errReset := app.ResetUsage(ctx, appCfg)
		return errReset
	case "seed-demo":
		app.SeedDemo(ctx, appCfg)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// serve starts the init server when no config exists, then the main server.
func serve(ctx context.Context, appCfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	if !app.ConfigExists(configPath) && strings.TrimSpace(os.Getenv(config.EnvDBConnection)) == "" {
		log.Info("config.yaml not found, starting init server...")
		errInit := app.RunInitServer(ctx, appCfg, port)
		if errors.Is(errInit, app.ErrInitCompleted) {
			log.Info("initialization completed, starting main server...")
			return app.RunServer(ctx, appCfg, port)
		}
		return errInit
	}
	return app.RunServer(ctx, appCfg, port)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
