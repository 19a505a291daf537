// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping: driver selection
// (pure-Go SQLite or PostgreSQL), connection pool sizing, optional query
// tracing, and schema migrations.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-account-backend/internal/domain"
)

// DefaultMaxConns is the pool size used when Options.MaxConns is not positive.
const DefaultMaxConns = 10

// Options describes how to reach the data store.
//
// DSN is either a filesystem path / "file:" URI for SQLite, or a
// "postgres://" / "postgresql://" URL (or key=value DSN containing
// "host=") for PostgreSQL.
type Options struct {
	DSN      string
	MaxConns int
	Tracing  bool
	LogLevel logger.LogLevel
}

// ErrEmptyDSN is returned by Open when no DSN is configured.
var ErrEmptyDSN = errors.New("repo: empty DSN")

// Open connects to the configured store, sizes the pool and, when requested,
// installs the OpenTelemetry GORM plugin so queries show up as child spans of
// the request.
func Open(opts Options) (*gorm.DB, error) {
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	var (
		db  *gorm.DB
		err error
	)
	if IsPostgresDSN(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig(opts))
	} else {
		db, err = openSQLite(dsn, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutQueryVariables())); err != nil {
			return nil, err
		}
	}

	n := opts.MaxConns
	if n <= 0 {
		n = DefaultMaxConns
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(n)
		sqlDB.SetMaxIdleConns(n)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database at path with default
// options.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(Options{DSN: path})
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	low := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(low, "postgres://") ||
		strings.HasPrefix(low, "postgresql://") ||
		strings.Contains(low, "host=")
}

func openSQLite(path string, opts Options) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(opts))
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")
	return db, nil
}

func gormConfig(opts Options) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true}
	if opts.LogLevel != 0 {
		cfg.Logger = logger.Default.LogMode(opts.LogLevel)
	}
	return cfg
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.Session{},
	)
}
