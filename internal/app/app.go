package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/config"
	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/entitlement"
	"github.com/menuqr/menuqr/internal/http/api/admin"
	"github.com/menuqr/menuqr/internal/http/api/front"
	"github.com/menuqr/menuqr/internal/http/api/respond"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/logging"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/qrcode"
	"github.com/menuqr/menuqr/internal/ratelimit"
	"github.com/menuqr/menuqr/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrMissingJWTSecret is returned when the server would start without a
// signing key for sessions.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")

// Runtime is the wired store and procedure layer shared by the server and
// the CLI commands.
type Runtime struct {
	DB       *gorm.DB
	DSN      string
	Server   config.ServerConfig
	Services *service.Services
}

// Open loads the config at configPath, opens and migrates the database, and
// wires the services.
func Open(configPath string, serverCfg config.ServerConfig) (*Runtime, error) {
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return nil, err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return nil, err
	}
	cutoff, err := serverCfg.GrandfatherCutoff()
	if err != nil {
		return nil, err
	}
	svc := service.New(service.Deps{
		DB:     conn,
		JWT:    jwtCfg,
		QR:     qrcode.NewGenerator(serverCfg.PublicBaseURL, qrcode.DefaultSize),
		Policy: entitlement.Policy{GrandfatherCutoff: cutoff},
	})
	return &Runtime{DB: conn, DSN: dsn, Server: serverCfg, Services: svc}, nil
}

// Close releases the database handle.
func (r *Runtime) Close() {
	if r == nil || r.DB == nil {
		return
	}
	sqlDB, errDB := r.DB.DB()
	if errDB != nil {
		return
	}
	if errClose := sqlDB.Close(); errClose != nil {
		log.Errorf("sql db close error: %v", errClose)
	}
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Runtime *Runtime
	Limiter *ratelimit.Manager
	Metrics *metrics.Metrics
}

// NewRouter builds the HTTP engine: shared middleware, health and metrics
// endpoints, the owner API, the diner API, and the setup endpoints.
func NewRouter(opts RouterOptions) *gin.Engine {
	rt := opts.Runtime
	m := opts.Metrics
	if m == nil {
		m = metrics.Registry()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(m))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin.RegisterAdminRoutes(engine, admin.Options{
		DB:            rt.DB,
		Services:      rt.Services,
		Limiter:       opts.Limiter,
		Metrics:       m,
		SlowThreshold: rt.Server.Health.SlowThreshold,
	})
	front.RegisterFrontRoutes(engine, rt.Services, opts.Limiter, m)
	registerSetupRoutes(engine, rt)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": service.KindNotFound.String()})
	})
	return engine
}

// registerSetupRoutes exposes first-run setup on a server whose database came
// from the environment: the first super admin can be created once.
func registerSetupRoutes(engine *gin.Engine, rt *Runtime) {
	var initialized atomic.Bool
	if ok, errInit := HasSuperAdmin(rt.DB); errInit != nil {
		log.WithError(errInit).Warn("init: check super admin")
	} else {
		initialized.Store(ok)
	}

	engine.GET("/v0/init/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, InitStatusResponse{Initialized: initialized.Load()})
	})
	engine.GET("/v0/init/prefill", func(c *gin.Context) {
		summary, errSummary := summarizeDSN(rt.DSN)
		if errSummary != nil {
			c.JSON(http.StatusOK, gin.H{"locked": true})
			return
		}
		c.JSON(http.StatusOK, struct {
			Locked bool `json:"locked"`
			databaseSummary
		}{Locked: true, databaseSummary: summary})
	})
	engine.POST("/v0/init/setup", func(c *gin.Context) {
		if ok, errInit := HasSuperAdmin(rt.DB); errInit != nil {
			respond.Error(c, fmt.Errorf("check super admin: %w", errInit))
			return
		} else if ok {
			initialized.Store(true)
			c.JSON(http.StatusConflict, gin.H{"error": "system already initialized", "code": "already_initialized"})
			return
		}

		var body struct {
			AdminName     string `json:"adminName"`
			AdminEmail    string `json:"adminEmail"`
			AdminPassword string `json:"adminPassword"`
		}
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			respond.InvalidJSON(c)
			return
		}
		if _, errCreate := rt.Services.Auth.CreateSuperAdmin(c.Request.Context(), body.AdminName, body.AdminEmail, body.AdminPassword); errCreate != nil {
			respond.Error(c, errCreate)
			return
		}
		initialized.Store(true)
		c.JSON(http.StatusOK, gin.H{"message": "initialization successful"})
	})
}

// RunServer boots the MenuQR API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(serverCfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := logCloser.Close(); errClose != nil {
			log.Errorf("log file close error: %v", errClose)
		}
	}()

	rt, err := Open(configPath, serverCfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	if strings.TrimSpace(rt.Services.Deps().JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	if summary, errSummary := summarizeDSN(rt.DSN); errSummary == nil {
		log.Infof("database: %s", summary)
	}

	if !serverCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsFromConfig(serverCfg.RateLimit)), time.Now, nil)
	engine := NewRouter(RouterOptions{Runtime: rt, Limiter: limiter, Metrics: metrics.Registry()})

	addr := serverCfg.ListenAddr(defaultPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("menuqr listening on %s (public menus at %s)", addr, serverCfg.PublicBaseURL)
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return errListen
	}
	log.Info("menuqr stopped")
	return nil
}
