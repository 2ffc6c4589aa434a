// Command server runs the rental marketplace HTTP API.
//
// @title                      Rental Marketplace API
// @version                    1.0
// @description                Peer-to-peer rentals: listings, rental transactions, and payment settlement.
// @BasePath                   /api/v1
// @securityDefinitions.apikey CallerID
// @in                         header
// @name                       X-User-ID
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rental-backend/docs"
	"github.com/tbourn/go-rental-backend/internal/config"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	httpapi "github.com/tbourn/go-rental-backend/internal/http"
	"github.com/tbourn/go-rental-backend/internal/observability"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.InstallLogger(sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, observability.Build{Version: version})
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath, cfg.DBBusyTimeout)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	gw := newGateway(cfg.Payment.Gateway)

	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, gw, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("gateway", cfg.Payment.Gateway.Mode).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

// newGateway selects the payment gateway implementation for mode.
func newGateway(gc config.GatewayConfig) gateway.Client {
	if gc.Mode == config.GatewayToss {
		return gateway.NewToss(gc.BaseURL, gc.SecretKey, gc.Timeout)
	}
	log.Warn().Msg("using in-memory payment gateway; payments are not captured")
	return gateway.NewFake()
}
