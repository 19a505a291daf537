// Command server runs the account HTTP API.
//
//	@title          Account API
//	@version        1.0
//	@description    Account registration and login with composed response codes.
//	@BasePath       /
//	@schemes        http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-account-backend/docs"
	"github.com/tbourn/go-account-backend/internal/config"
	httpapi "github.com/tbourn/go-account-backend/internal/http"
	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/observability"
	"github.com/tbourn/go-account-backend/internal/repo"
	"github.com/tbourn/go-account-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	ver := sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), version)

	if err := respcode.Verify(); err != nil {
		return fmt.Errorf("response code registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	dbLog := logger.Silent
	if cfg.LogLevel == "debug" {
		dbLog = logger.Info
	}
	db, err := repo.Open(repo.Options{
		DSN:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConnections,
		Tracing:  cfg.OTEL.Enabled,
		LogLevel: dbLog,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = ver
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
	}
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Str("base_path", cfg.APIBasePath).
			Bool("postgres", repo.IsPostgresDSN(cfg.Database.URL)).
			Msg("HTTP server started")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, starting graceful shutdown")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := srv.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		log.Info().Msg("server shutdown completed")
	}
	return nil
}
