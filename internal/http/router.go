// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, request context and logging with redaction, panic recovery,
// deadlines, metrics, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (context → recovery → limits)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"fmt"
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

	"github.com/tbourn/go-account-backend/internal/config"
	"github.com/tbourn/go-account-backend/internal/domain"
	"github.com/tbourn/go-account-backend/internal/http/handlers"
	"github.com/tbourn/go-account-backend/internal/http/middleware"
	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/repo"
	"github.com/tbourn/go-account-backend/internal/services"
)

// accountRepoShim adapts the repository free functions to the
// services.AccountRepo interface expected by the AccountService.
type accountRepoShim struct{}

// EmailExists proxies repo.EmailExists.
func (accountRepoShim) EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return repo.EmailExists(ctx, db, email)
}

// CreateAccount proxies repo.CreateAccount.
func (accountRepoShim) CreateAccount(ctx context.Context, db *gorm.DB, email, passwordHash string) (*domain.Account, error) {
	return repo.CreateAccount(ctx, db, email, passwordHash)
}

// GetAccountByEmail proxies repo.GetAccountByEmail.
func (accountRepoShim) GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	return repo.GetAccountByEmail(ctx, db, email)
}

// CreateSession proxies repo.CreateSession.
func (accountRepoShim) CreateSession(ctx context.Context, db *gorm.DB, accountID string, now time.Time, ttl time.Duration) (*domain.Session, error) {
	return repo.CreateSession(ctx, db, accountID, now, ttl)
}

// DeleteExpiredSessions proxies repo.DeleteExpiredSessions.
func (accountRepoShim) DeleteExpiredSessions(ctx context.Context, db *gorm.DB, accountID string, now time.Time) (int64, error) {
	return repo.DeleteExpiredSessions(ctx, db, accountID, now)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), the request
// context, deadlines and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the account API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. Gzip: compresses what the request context finally flushes
//  3. Body size cap: bounds what the request context buffers
//  4. Metrics: observes the final status and response code
//  5. RequestContext: trace id, body replay, redacted logs, trace headers
//  6. Recovery: panics render inside the captured response
//  7. Oversized body rejection and per-request deadline
//  8. Rate limiter (per IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Response compression (promhttp negotiates its own)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 3) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 4) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 5) Request context with redacted logging
	r.Use(middleware.RequestContext(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 6) Panic recovery to the generic 500 envelope
	r.Use(middleware.Recovery())

	// 7) Declared-oversize bodies and handler deadline
	r.Use(rejectOversized(cfg.MaxBodyBytes))
	r.Use(middleware.Deadline(cfg.HandlerTimeout, cfg.MaxHandlerTimeout))

	// 8) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderTraceID, middleware.HeaderB3TraceID, middleware.HeaderRequestTimeout,
	}
	exposeHeaders := []string{middleware.HeaderTraceID, middleware.HeaderTimestamp, "Content-Length"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
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
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, respcode.New(http.StatusNotFound, respcode.ScenarioIndex, respcode.CaseGeneral,
			"route not found: "+c.Request.URL.Path, respcode.MessageNotFound))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, respcode.New(http.StatusMethodNotAllowed, respcode.ScenarioIndex, respcode.CaseGeneral,
			"method not allowed: "+c.Request.Method+" "+c.Request.URL.Path, respcode.MessageMethodNotAllowed))
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		handlers.OK(c, respcode.ScenarioIndex, gin.H{"status": "ok"})
	})

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	accSvc := services.NewAccountService(db, accountRepoShim{})
	accSvc.SessionTTL = cfg.SessionTTL
	accSvc.BcryptCost = cfg.BcryptCost
	h := handlers.New(accSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/account/register", h.Register)
		api.POST("/account/login", h.Login)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// rejectOversized answers 413 when the declared Content-Length exceeds
// maxBytes. Bodies without a declared length are still bounded by limitBody.
func rejectOversized(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.ContentLength > maxBytes {
			handlers.Fail(c, respcode.New(http.StatusRequestEntityTooLarge, respcode.ScenarioIndex, respcode.CaseGeneral,
				fmt.Sprintf("content length %d exceeds %d", c.Request.ContentLength, maxBytes),
				respcode.MessageRequestTooLarge))
			return
		}
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
