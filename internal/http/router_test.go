package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rental-backend/internal/config"
	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
	"github.com/tbourn/go-rental-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Payment: config.PaymentConfig{
			RequireAccepted:     true,
			DefaultCancelReason: "user_requested",
		},
		IdempotencyTTL: time.Hour,
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	db := newTestDB(t)

	RegisterRoutes(r, db, gateway.NewFake(), testConfig())

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `rental_http_requests_total{method="GET",route="/health",status="200"}`) {
		t.Fatalf("GET /metrics bad: code=%d body=%.200s", w.Code, w.Body.String())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	db := newTestDB(t)

	RegisterRoutes(r, db, gateway.NewFake(), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// Hit all three
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/one", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "one" {
		t.Fatalf("GET /one got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/two", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "two" {
		t.Fatalf("GET /two got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("GET /api/ping got %d %q", rec.Code, rec.Body.String())
	}
}

// Smoke test that a request traverses idempotency + ratelimit + otel + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	cfg.GzipEnabled = true
	db := newTestDB(t)
	RegisterRoutes(r, db, gateway.NewFake(), cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if enc := w.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("expected gzip response, got %q", enc)
	}

	// Oversized caller ids are rejected before any handler runs.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set(middleware.HeaderUserID, "has space")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad caller id -> %d", w.Code)
	}
}

func Test_userRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := userRepoShim{}
	ctx := context.Background()

	u := &domain.User{ID: uuid.NewString(), Username: "shim"}
	if err := shim.CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := shim.GetUser(ctx, db, u.ID)
	if err != nil || got.Username != "shim" {
		t.Fatalf("GetUser: %+v %v", got, err)
	}
	exists, err := shim.UserExists(ctx, db, u.ID)
	if err != nil || !exists {
		t.Fatalf("UserExists: %v %v", exists, err)
	}
	exists, err = shim.UserExists(ctx, db, "missing")
	if err != nil || exists {
		t.Fatalf("UserExists(missing): %v %v", exists, err)
	}
}

// apiClient drives the fully wired router.
type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func (a apiClient) call(method, path, userID, body string, out any) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: json: %v body=%s", method, path, err, w.Body.String())
		}
	}
	return w
}

func (a apiClient) must(method, path, userID, body string, want int, out any) *httptest.ResponseRecorder {
	a.t.Helper()
	w := a.call(method, path, userID, body, out)
	if w.Code != want {
		a.t.Fatalf("%s %s -> %d, want %d; body=%s", method, path, w.Code, want, w.Body.String())
	}
	return w
}

func TestRegisterRoutes_RentalFlowEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gw := gateway.NewFake()
	RegisterRoutes(r, newTestDB(t), gw, testConfig())
	a := apiClient{t: t, r: r}

	var owner, renter domain.User
	a.must(http.MethodPost, "/users", "", `{"username":"owner"}`, http.StatusCreated, &owner)
	a.must(http.MethodPost, "/users", "", `{"username":"renter"}`, http.StatusCreated, &renter)

	var p domain.Product
	a.must(http.MethodPost, "/products", owner.ID, `{"title":"Projector","description":"1080p","category":"Electronics","price_per_day":2000,"deposit":10000,"location":"Seoul"}`, http.StatusCreated, &p)

	var tx domain.Transaction
	a.must(http.MethodPost, "/transactions", renter.ID, fmt.Sprintf(`{"product_id":%q}`, p.ID), http.StatusCreated, &tx)
	a.must(http.MethodPost, "/transactions/"+tx.ID+"/accept", owner.ID, "", http.StatusOK, &tx)

	var pay domain.Payment
	a.must(http.MethodPost, "/payments/prepare", renter.ID, fmt.Sprintf(`{"transaction_id":%q,"rental_days":2}`, tx.ID), http.StatusCreated, &pay)
	if pay.Amount != 2*2000+10000 {
		t.Fatalf("amount=%d", pay.Amount)
	}
	w := a.must(http.MethodPost, "/payments/confirm", renter.ID, fmt.Sprintf(`{"order_id":%q,"payment_key":"pk-1","amount":%d}`, pay.OrderID, pay.Amount), http.StatusOK, &pay)
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("payments Cache-Control=%q", cc)
	}
	if pay.Status != domain.PaymentConfirmed || gw.ConfirmCalls() != 1 {
		t.Fatalf("confirm: status=%s calls=%d", pay.Status, gw.ConfirmCalls())
	}

	a.must(http.MethodPost, "/transactions/"+tx.ID+"/start", renter.ID, `{"start_at":"2026-06-01T10:00:00Z","end_at":"2026-06-03T10:00:00Z"}`, http.StatusOK, &tx)
	a.must(http.MethodGet, "/products/"+p.ID, "", "", http.StatusOK, &p)
	if p.Status != domain.ProductRented {
		t.Fatalf("product status=%s", p.Status)
	}
	w = a.call(http.MethodPost, "/transactions", renter.ID, fmt.Sprintf(`{"product_id":%q}`, p.ID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("rent a rented product -> %d", w.Code)
	}

	a.must(http.MethodPost, "/transactions/"+tx.ID+"/return", owner.ID, "", http.StatusOK, &tx)
	if tx.Status != domain.StatusReturned {
		t.Fatalf("status=%s", tx.Status)
	}
	a.must(http.MethodGet, "/products/"+p.ID, "", "", http.StatusOK, &p)
	if p.Status != domain.ProductAvailable {
		t.Fatalf("product status=%s", p.Status)
	}
}

func TestRegisterRoutes_IdempotencyLookupMarksReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, gateway.NewFake(), testConfig())
	a := apiClient{t: t, r: r}

	var owner, renter domain.User
	a.must(http.MethodPost, "/users", "", `{"username":"owner"}`, http.StatusCreated, &owner)
	a.must(http.MethodPost, "/users", "", `{"username":"renter"}`, http.StatusCreated, &renter)
	var p domain.Product
	a.must(http.MethodPost, "/products", owner.ID, `{"title":"Drill","description":"Cordless","category":"Tools","price_per_day":500,"deposit":0,"location":"Daegu"}`, http.StatusCreated, &p)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewBufferString(fmt.Sprintf(`{"product_id":%q}`, p.ID)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderUserID, renter.ID)
		req.Header.Set(middleware.HeaderIdempotencyKey, "retry-me")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	first, second := send(), send()
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("codes %d/%d", first.Code, second.Code)
	}
	if second.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatal("second request not replayed")
	}
	var n int64
	if err := db.Model(&domain.Transaction{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("transactions=%d err=%v", n, err)
	}
}

func TestRegisterRoutes_IdempotencyCallback_ErrorBranch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	db := newTestDB(t)
	// Wire routes first...
	RegisterRoutes(r, db, gateway.NewFake(), testConfig())

	// ...then force queries to fail by closing the underlying connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	// The idempotency lookup now fails; the request must still be processed.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/health", bytes.NewBufferString("{}"))
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set(middleware.HeaderIdempotencyKey, "force-error")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
