package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menuqr/menuqr/internal/config"
	"github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/qrcode"
	"github.com/menuqr/menuqr/internal/ratelimit"
	"github.com/menuqr/menuqr/internal/service"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := "file:" + filepath.Join(t.TempDir(), "router-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	svc := service.New(service.Deps{
		DB:  conn,
		JWT: config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		QR:  qrcode.NewGenerator("https://menu.example.com", 128),
	})
	return &Runtime{
		DB:  conn,
		DSN: dsn,
		Server: config.ServerConfig{
			PublicBaseURL: "https://menu.example.com",
			Health:        config.HealthConfig{SlowThreshold: time.Second},
		},
		Services: svc,
	}
}

func doJSON(t *testing.T, engine http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func login(t *testing.T, engine http.Handler, email, password string) string {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/v0/admin/login", "", gin.H{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: empty token", email)
	}
	return token
}

func TestRouterHealthz(t *testing.T) {
	engine := NewRouter(RouterOptions{Runtime: newTestRuntime(t)})

	rec := doJSON(t, engine, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Fatalf("expected healthy, got %v", body["status"])
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["database"] != "connected" {
		t.Fatalf("expected database connected, got %v", checks["database"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}

	metricsRec := doJSON(t, engine, http.MethodGet, "/metrics", "", nil)
	if metricsRec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", metricsRec.Code)
	}
	if !strings.Contains(metricsRec.Body.String(), "menuqr_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}

	missing := doJSON(t, engine, http.MethodGet, "/nope", "", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

func TestRouterOwnerApprovalFlow(t *testing.T) {
	rt := newTestRuntime(t)
	engine := NewRouter(RouterOptions{Runtime: rt})

	signup := doJSON(t, engine, http.MethodPost, "/v0/admin/signup", "", gin.H{
		"name":           "Owner",
		"email":          "owner@example.com",
		"password":       "password123",
		"restaurantName": "Chez Test",
	})
	if signup.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", signup.Code, signup.Body.String())
	}
	user, _ := decodeBody(t, signup)["user"].(map[string]any)
	if user["approvalStatus"] != "PENDING" {
		t.Fatalf("expected PENDING signup, got %v", user["approvalStatus"])
	}
	ownerID := uint64(user["id"].(float64))

	dup := doJSON(t, engine, http.MethodPost, "/v0/admin/signup", "", gin.H{
		"name":     "Owner",
		"email":    "owner@example.com",
		"password": "password123",
	})
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected duplicate signup 409, got %d", dup.Code)
	}

	ownerToken := login(t, engine, "owner@example.com", "password123")

	if rec := doJSON(t, engine, http.MethodGet, "/v0/admin/me", ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	pending := doJSON(t, engine, http.MethodGet, "/v0/admin/restaurant", ownerToken, nil)
	if pending.Code != http.StatusForbidden || decodeBody(t, pending)["code"] != "account_pending" {
		t.Fatalf("expected 403 account_pending, got %d %s", pending.Code, pending.Body.String())
	}
	if rec := doJSON(t, engine, http.MethodGet, "/v0/admin/restaurant", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	if _, err := rt.Services.Auth.CreateSuperAdmin(context.Background(), "Root", "root@example.com", "supersecret"); err != nil {
		t.Fatalf("create super admin: %v", err)
	}
	adminToken := login(t, engine, "root@example.com", "supersecret")

	approve := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/v0/admin/users/%d/approve", ownerID), adminToken, nil)
	if approve.Code != http.StatusOK {
		t.Fatalf("approve: status %d body %s", approve.Code, approve.Body.String())
	}
	if got := decodeBody(t, approve)["approvalStatus"]; got != "APPROVED" {
		t.Fatalf("expected APPROVED, got %v", got)
	}

	restaurant := doJSON(t, engine, http.MethodGet, "/v0/admin/restaurant", ownerToken, nil)
	if restaurant.Code != http.StatusOK {
		t.Fatalf("restaurant after approval: status %d body %s", restaurant.Code, restaurant.Body.String())
	}
	if got := decodeBody(t, restaurant)["name"]; got != "Chez Test" {
		t.Fatalf("expected Chez Test, got %v", got)
	}

	forbidden := doJSON(t, engine, http.MethodGet, "/v0/admin/users", ownerToken, nil)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected owner to be refused the user list, got %d", forbidden.Code)
	}

	usage := doJSON(t, engine, http.MethodGet, "/v0/admin/subscription/usage", ownerToken, nil)
	if usage.Code != http.StatusOK {
		t.Fatalf("usage: status %d body %s", usage.Code, usage.Body.String())
	}
}

func TestRouterPublicMenuAndOrder(t *testing.T) {
	rt := newTestRuntime(t)
	engine := NewRouter(RouterOptions{Runtime: rt})
	demo, err := rt.Services.Demo.Seed(context.Background())
	if err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	scan := doJSON(t, engine, http.MethodGet, "/menu/"+service.DemoSlug+"/"+service.DemoTableNumber, "", nil)
	if scan.Code != http.StatusOK {
		t.Fatalf("open menu: status %d body %s", scan.Code, scan.Body.String())
	}
	menu := decodeBody(t, scan)
	table, _ := menu["table"].(map[string]any)
	if table["number"] != service.DemoTableNumber {
		t.Fatalf("expected table %s, got %v", service.DemoTableNumber, menu["table"])
	}
	categories, _ := menu["categories"].([]any)
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}
	first, _ := categories[0].(map[string]any)
	items, _ := first["items"].([]any)
	if len(items) == 0 {
		t.Fatalf("expected items in the first category")
	}
	item, _ := items[0].(map[string]any)
	itemID := item["id"].(float64)
	price := item["price"].(float64)

	stats, _, err := rt.Services.Deps().Meter.GetUsageStats(context.Background(), demo.Owner.ID)
	if err != nil {
		t.Fatalf("usage stats: %v", err)
	}
	if stats.ScansThisMonth != 1 {
		t.Fatalf("expected 1 scan, got %d", stats.ScansThisMonth)
	}

	if rec := doJSON(t, engine, http.MethodGet, "/menu/unknown-place", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown slug 404, got %d", rec.Code)
	}

	order := doJSON(t, engine, http.MethodPost, "/v0/front/restaurants/"+service.DemoSlug+"/orders", "", gin.H{
		"tableNumber": service.DemoTableNumber,
		"items":       []gin.H{{"menuItemId": itemID, "quantity": 2}},
	})
	if order.Code != http.StatusCreated {
		t.Fatalf("order: status %d body %s", order.Code, order.Body.String())
	}
	placed := decodeBody(t, order)
	if placed["status"] != "pending" {
		t.Fatalf("expected pending order, got %v", placed["status"])
	}
	if total := placed["totalAmount"].(float64); total != price*2 {
		t.Fatalf("expected total %.2f, got %.2f", price*2, total)
	}

	badTable := doJSON(t, engine, http.MethodPost, "/v0/front/restaurants/"+service.DemoSlug+"/orders", "", gin.H{
		"tableNumber": "Z9",
		"items":       []gin.H{{"menuItemId": itemID, "quantity": 1}},
	})
	if badTable.Code != http.StatusNotFound {
		t.Fatalf("expected unknown table 404, got %d", badTable.Code)
	}

	invalid := httptest.NewRequest(http.MethodPost, "/v0/front/restaurants/"+service.DemoSlug+"/orders", strings.NewReader("{"))
	invalid.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, invalid)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid json 400, got %d", rec.Code)
	}
}

func TestRouterRateLimitsAnonymousClients(t *testing.T) {
	rt := newTestRuntime(t)
	fixed := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsConfig{Limit: 1}), func() time.Time { return fixed }, nil)
	engine := NewRouter(RouterOptions{Runtime: rt, Limiter: limiter})

	body := gin.H{"email": "nobody@example.com", "password": "password123"}
	first := doJSON(t, engine, http.MethodPost, "/v0/admin/login", "", body)
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("expected first login 401, got %d", first.Code)
	}
	second := doJSON(t, engine, http.MethodPost, "/v0/admin/login", "", body)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if decodeBody(t, second)["code"] != "rate_limited" {
		t.Fatalf("expected rate_limited code")
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header")
	}

	if rec := doJSON(t, engine, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected health checks to bypass the limiter, got %d", rec.Code)
	}
}

func TestRouterSetupCreatesFirstSuperAdminOnce(t *testing.T) {
	rt := newTestRuntime(t)
	engine := NewRouter(RouterOptions{Runtime: rt})

	status := doJSON(t, engine, http.MethodGet, "/v0/init/status", "", nil)
	if decodeBody(t, status)["initialized"] != false {
		t.Fatalf("expected uninitialized status")
	}
	prefill := decodeBody(t, doJSON(t, engine, http.MethodGet, "/v0/init/prefill", "", nil))
	if prefill["locked"] != true || prefill["databaseType"] != "sqlite" {
		t.Fatalf("unexpected prefill %v", prefill)
	}

	setup := gin.H{"adminName": "Root", "adminEmail": "root@example.com", "adminPassword": "supersecret"}
	rec := doJSON(t, engine, http.MethodPost, "/v0/init/setup", "", setup)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: status %d body %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, doJSON(t, engine, http.MethodGet, "/v0/init/status", "", nil))["initialized"] != true {
		t.Fatalf("expected initialized status after setup")
	}
	again := doJSON(t, engine, http.MethodPost, "/v0/init/setup", "", setup)
	if again.Code != http.StatusConflict {
		t.Fatalf("expected second setup 409, got %d", again.Code)
	}
	login(t, engine, "root@example.com", "supersecret")
}

func TestInitEngineWritesConfigAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	done := make(chan struct{})
	engine := newInitEngine(configPath, 8318, done)

	if rec := doJSON(t, engine, http.MethodGet, "/v0/admin/plans", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before setup, got %d", rec.Code)
	}

	rec := doJSON(t, engine, http.MethodPost, "/v0/init/setup", "", gin.H{
		"databaseType":  "sqlite",
		"databasePath":  filepath.Join(dir, "menuqr.db"),
		"publicBaseUrl": "https://menu.example.com/",
		"adminName":     "Root",
		"adminEmail":    "root@example.com",
		"adminPassword": "supersecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: status %d body %s", rec.Code, rec.Body.String())
	}
	if !ConfigExists(configPath) {
		t.Fatalf("expected config file at %s", configPath)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected setup to signal completion")
	}

	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if serverCfg.PublicBaseURL != "https://menu.example.com" {
		t.Fatalf("unexpected public base url %q", serverCfg.PublicBaseURL)
	}
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open written dsn: %v", err)
	}
	ok, err := HasSuperAdmin(conn)
	if err != nil || !ok {
		t.Fatalf("expected super admin in written database, ok=%v err=%v", ok, err)
	}

	again := doJSON(t, engine, http.MethodPost, "/v0/init/setup", "", gin.H{})
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 once configured, got %d", again.Code)
	}
}

func TestOpenRuntimeFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	contents := "database-dsn: " + buildSQLiteDSN(filepath.Join(dir, "menuqr.db")) + "\n" +
		"jwt:\n  secret: file-secret\n" +
		"entitlements:\n  grandfather-cutoff: \"2024-01-01\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	rt, err := Open(configPath, serverCfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	deps := rt.Services.Deps()
	if deps.JWT.Secret != "file-secret" {
		t.Fatalf("expected jwt secret from file, got %q", deps.JWT.Secret)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !deps.Policy.GrandfatherCutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, deps.Policy.GrandfatherCutoff)
	}
	if deps.QR.BaseURL() != config.DefaultPublicBaseURL {
		t.Fatalf("expected default public base url, got %q", deps.QR.BaseURL())
	}
}
