package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/config"
	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/security"
	"github.com/menuqr/menuqr/internal/service"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// InitRequest contains parameters for first-run setup.
type InitRequest struct {
	DatabaseType     string `json:"databaseType"`
	DatabaseHost     string `json:"databaseHost"`
	DatabasePort     int    `json:"databasePort"`
	DatabaseUser     string `json:"databaseUser"`
	DatabasePassword string `json:"databasePassword"`
	DatabaseName     string `json:"databaseName"`
	DatabasePath     string `json:"databasePath"`
	DatabaseSSLMode  string `json:"databaseSslMode"`
	PublicBaseURL    string `json:"publicBaseUrl"`
	AdminName        string `json:"adminName" binding:"required"`
	AdminEmail       string `json:"adminEmail" binding:"required"`
	AdminPassword    string `json:"adminPassword" binding:"required"`
}

// InitStatusResponse reports whether initialization is complete.
type InitStatusResponse struct {
	Initialized bool `json:"initialized"`
}

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

const defaultSQLitePath = "menuqr.db"

// BuildDSN builds a database DSN from the init request.
func BuildDSN(req InitRequest) (string, error) {
	switch strings.ToLower(strings.TrimSpace(req.DatabaseType)) {
	case "", "sqlite":
		return buildSQLiteDSN(req.DatabasePath), nil
	case "postgres":
		sslMode := req.DatabaseSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			req.DatabaseUser, req.DatabasePassword, req.DatabaseHost, req.DatabasePort, req.DatabaseName, sslMode), nil
	default:
		return "", fmt.Errorf("unsupported database type %q", req.DatabaseType)
	}
}

// buildSQLiteDSN turns a file path into a DSN with the pragmas the server expects.
func buildSQLiteDSN(path string) string {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = defaultSQLitePath
	}
	if !strings.HasPrefix(strings.ToLower(dsn), "file:") {
		dsn = "file:" + dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join([]string{
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	}, "&")
}

// TestDatabaseConnection validates that the DSN can connect and ping.
func TestDatabaseConnection(dsn string) error {
	conn, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	defer func() {
		if errClose := sqlDB.Close(); errClose != nil {
			log.Errorf("sql db close error: %v", errClose)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// validateInitRequest normalizes and validates setup input.
func validateInitRequest(req *InitRequest) error {
	dbType := strings.ToLower(strings.TrimSpace(req.DatabaseType))
	if dbType == "" {
		dbType = "sqlite"
	}
	req.DatabaseType = dbType

	switch dbType {
	case "postgres":
		if strings.TrimSpace(req.DatabaseHost) == "" {
			return fmt.Errorf("database host is required")
		}
		if req.DatabasePort <= 0 {
			req.DatabasePort = 5432
		}
		if strings.TrimSpace(req.DatabaseUser) == "" {
			return fmt.Errorf("database user is required")
		}
		if strings.TrimSpace(req.DatabaseName) == "" {
			return fmt.Errorf("database name is required")
		}
	case "sqlite":
		if strings.TrimSpace(req.DatabasePath) == "" {
			req.DatabasePath = defaultSQLitePath
		}
	default:
		return fmt.Errorf("unsupported database type %q", req.DatabaseType)
	}

	req.AdminName = strings.TrimSpace(req.AdminName)
	req.AdminEmail = strings.ToLower(strings.TrimSpace(req.AdminEmail))
	if req.AdminName == "" || req.AdminEmail == "" {
		return fmt.Errorf("admin name and email are required")
	}
	if len(req.AdminPassword) < service.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
	}
	req.PublicBaseURL = strings.TrimRight(strings.TrimSpace(req.PublicBaseURL), "/")
	return nil
}

// configFile maps YAML fields for the generated config file.
type configFile struct {
	Host          string         `yaml:"host"`
	Port          int            `yaml:"port"`
	DatabaseDSN   string         `yaml:"database-dsn"`
	PublicBaseURL string         `yaml:"public-base-url"`
	Debug         bool           `yaml:"debug"`
	LogLevel      string         `yaml:"log-level"`
	LoggingToFile bool           `yaml:"logging-to-file"`
	JWT           jwtCfg         `yaml:"jwt"`
	RateLimit     rateLimitCfg   `yaml:"rate-limit"`
	Entitlements  entitlementCfg `yaml:"entitlements"`
}

type jwtCfg struct {
	Secret string `yaml:"secret"`
	Expiry string `yaml:"expiry"`
}

type rateLimitCfg struct {
	PerSecond int `yaml:"per-second"`
}

type entitlementCfg struct {
	GrandfatherCutoff string `yaml:"grandfather-cutoff"`
}

// generateJWTSecret creates a random JWT secret string.
func generateJWTSecret() string {
	secret, err := security.GenerateRandomString(32)
	if err != nil {
		return "change-me-to-a-secure-random-string"
	}
	return secret
}

// WriteConfigFile writes the initial config file to disk. New deployments
// grandfather subscriptions created before the setup day.
func WriteConfigFile(configPath string, dsn string, port int, publicBaseURL string) error {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("http://localhost:%d", port)
	}
	cfg := configFile{
		Port:          port,
		DatabaseDSN:   dsn,
		PublicBaseURL: publicBaseURL,
		LogLevel:      config.DefaultLogLevel,
		JWT: jwtCfg{
			Secret: generateJWTSecret(),
			Expiry: "168h",
		},
		RateLimit:    rateLimitCfg{PerSecond: config.DefaultRateLimit},
		Entitlements: entitlementCfg{GrandfatherCutoff: time.Now().UTC().Format("2006-01-02")},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if errMkdir := os.MkdirAll(filepath.Dir(configPath), 0o755); errMkdir != nil {
		return fmt.Errorf("create config dir: %w", errMkdir)
	}
	if errWrite := os.WriteFile(configPath, data, 0o600); errWrite != nil {
		return fmt.Errorf("write config file: %w", errWrite)
	}
	return nil
}

// CreateSuperAdmin opens dsn, migrates it, and creates the first super admin.
func CreateSuperAdmin(ctx context.Context, dsn string, name, email, password string) error {
	conn, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return fmt.Errorf("migrate database: %w", errMigrate)
	}
	return CreateSuperAdminWithConn(ctx, conn, name, email, password)
}

// CreateSuperAdminWithConn creates an approved SUPER_ADMIN on an open connection.
func CreateSuperAdminWithConn(ctx context.Context, conn *gorm.DB, name, email, password string) error {
	if conn == nil {
		return fmt.Errorf("open database: nil connection")
	}
	svc := service.New(service.Deps{DB: conn})
	if _, errCreate := svc.Auth.CreateSuperAdmin(ctx, name, email, password); errCreate != nil {
		return fmt.Errorf("create super admin: %w", errCreate)
	}
	return nil
}

// ErrInitCompleted signals that initialization finished and the server should restart.
var ErrInitCompleted = fmt.Errorf("init completed")

// corsMiddleware enables permissive CORS for the init server.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// newInitEngine builds the setup API served while no config file exists.
// done is closed once setup succeeded.
func newInitEngine(configPath string, port int, done chan<- struct{}) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	engine.GET("/v0/init/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, InitStatusResponse{Initialized: ConfigExists(configPath)})
	})

	engine.POST("/v0/init/setup", func(c *gin.Context) {
		if ConfigExists(configPath) {
			c.JSON(http.StatusConflict, gin.H{"error": "system already initialized", "code": "already_initialized"})
			return
		}
		var req InitRequest
		if errBind := c.ShouldBindJSON(&req); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "code": service.KindValidation.String()})
			return
		}
		if errValidate := validateInitRequest(&req); errValidate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error(), "code": service.KindValidation.String()})
			return
		}
		dsn, errBuild := BuildDSN(req)
		if errBuild != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errBuild.Error(), "code": service.KindValidation.String()})
			return
		}
		if errTest := TestDatabaseConnection(dsn); errTest != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("database connection failed: %v", errTest), "code": "database_unreachable"})
			return
		}
		if errWrite := WriteConfigFile(configPath, dsn, port, req.PublicBaseURL); errWrite != nil {
			log.WithError(errWrite).Error("init: write config")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write config", "code": service.KindInternal.String()})
			return
		}
		if errAdmin := CreateSuperAdmin(c.Request.Context(), dsn, req.AdminName, req.AdminEmail, req.AdminPassword); errAdmin != nil {
			if errRemove := os.Remove(configPath); errRemove != nil {
				log.Errorf("remove config file error: %v", errRemove)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to create admin: %v", errAdmin), "code": service.KindInternal.String()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "initialization successful"})
		go func() {
			time.Sleep(500 * time.Millisecond)
			close(done)
		}()
	})

	engine.NoRoute(func(c *gin.Context) {
		if ConfigExists(configPath) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "system initializing, please restart the server", "code": "initializing"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "system not initialized: POST /v0/init/setup", "code": "not_initialized"})
	})
	return engine
}

// RunInitServer starts the setup server when the config file is missing.
func RunInitServer(ctx context.Context, cfg config.AppConfig, port int) error {
	gin.SetMode(gin.ReleaseMode)
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	initDone := make(chan struct{})
	engine := newInitEngine(configPath, port, initDone)

	addr := fmt.Sprintf(":%d", port)
	log.Infof("starting init server on %s (config not found at %s)", addr, configPath)

	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-initDone:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("init server shutdown error: %v", errShutdown)
		}
	}()

	if errListen := srv.ListenAndServe(); errListen != nil && errListen != http.ErrServerClosed {
		return errListen
	}

	select {
	case <-initDone:
		return ErrInitCompleted
	default:
		return nil
	}
}
