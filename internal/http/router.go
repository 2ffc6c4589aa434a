// Package httpapi mounts the rental API on a Gin engine: the middleware
// pipeline, the service graph built from the database and the payment
// gateway, and the versioned routes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/config"
	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/http/handlers"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/services"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// UserExists proxies repo.UserExists.
func (userRepoShim) UserExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UserExists(ctx, db, id)
}

// corsHeaders are the request headers browsers may send to the API.
var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderUserID, middleware.HeaderIdempotencyKey}

// corsExposed are the response headers readable by browser clients.
var corsExposed = []string{middleware.HeaderRequestID, "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}

// gatewayCallCost is the rate-limit charge for routes that call the payment
// gateway synchronously.
const gatewayCallCost = 2

// RegisterRoutes attaches the middleware pipeline, health, metrics and docs
// endpoints, and the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: correlation id for logs and error envelopes
//  3. Metrics: count requests, including those refused below
//  4. CallerIdentity: resolve X-User-ID before anything logs or limits
//  5. RequestLogger + RedactingLogger: scoped logger and scrubbed access log
//  6. Recovery, then the body size limit
//  7. Idempotency validator, ahead of the limiter so replays bypass it
//  8. Rate limiter (per user/IP, payment settlement weighted)
//  9. CORS, security headers, compression
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw gateway.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	if apiBase == "/" {
		apiBase = ""
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Prometheus metrics, ahead of every middleware that can reject
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4) Caller identity
	r.Use(middleware.CallerIdentity())

	// 5) Structured logging with redaction
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Toss-Secret"},
	}))

	// 6) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 7) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return rec != nil, err
		},
	))

	// 9) Token-bucket rate limiter per user/IP; gateway-backed calls cost more
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Exempt("/health", "/metrics").
		Cost(apiBase+"/payments/confirm", gatewayCallCost).
		Cost(apiBase+"/payments/cancel", gatewayCallCost)
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExposed,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExposed,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Payment responses must never be cached.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStorePaths: []string{apiBase + "/payments"},
		EnablePolicy: true,
		VaryOnCaller: true,
	}))

	// Response compression (metrics scrapers negotiate their own encoding)
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/gateway
	userSvc := services.NewUserService(db, userRepoShim{})
	productSvc := services.NewProductService(db)
	txSvc := services.NewTransactionService(db)
	paySvc := services.NewPaymentService(db, gw)
	paySvc.RequireAccepted = cfg.Payment.RequireAccepted
	if cfg.Payment.DefaultCancelReason != "" {
		paySvc.DefaultCancelReason = cfg.Payment.DefaultCancelReason
	}

	h := handlers.New(userSvc, productSvc, txSvc, paySvc)
	if cfg.IdempotencyTTL > 0 {
		h.IdempotencyTTL = cfg.IdempotencyTTL
	}

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Users
		api.POST("/users", h.CreateUser)
		api.GET("/users/:id", h.GetUser)

		// Products
		api.POST("/products", h.CreateProduct)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.PATCH("/products/:id", h.UpdateProduct)

		// Transactions
		api.POST("/transactions", h.CreateTransaction)
		api.GET("/transactions", h.ListTransactions)
		api.GET("/transactions/:id", h.GetTransaction)
		api.POST("/transactions/:id/accept", h.AcceptTransaction)
		api.POST("/transactions/:id/pay", h.PayTransaction)
		api.POST("/transactions/:id/start", h.StartRental)
		api.POST("/transactions/:id/return", h.ReturnProduct)
		api.POST("/transactions/:id/cancel", h.CancelTransaction)

		// Payments
		api.POST("/payments/prepare", h.PreparePayment)
		api.POST("/payments/confirm", h.ConfirmPayment)
		api.POST("/payments/cancel", h.CancelPayment)
		api.GET("/payments/:orderId", h.GetPayment)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
