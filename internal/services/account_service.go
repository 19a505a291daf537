// Package services – AccountService
//
// This file implements AccountService, which owns account registration and
// login. It canonicalizes emails, hashes and verifies passwords with bcrypt,
// enforces email uniqueness, and issues sessions on successful login.
//
// Service-level errors (ErrEmailRegistered, ErrInvalidCredentials) are returned
// wrapped with the offending identity so handlers can log the detail while
// showing the user only the generic message.
//
// Observability: public methods are OpenTelemetry-instrumented and log through
// the request-scoped zerolog logger carried by ctx.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-account-backend/internal/domain"
	"github.com/tbourn/go-account-backend/internal/repo"
)

const (
	// DefaultSessionTTL is used when AccountService.SessionTTL is not positive.
	DefaultSessionTTL = 24 * time.Hour
)

// AccountRepo defines the repository contract required by AccountService.
type AccountRepo interface {
	// EmailExists reports whether an account uses email.
	EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error)

	// CreateAccount inserts an account; repo.ErrDuplicate on unique violation.
	CreateAccount(ctx context.Context, db *gorm.DB, email, passwordHash string) (*domain.Account, error)

	// GetAccountByEmail fetches an account; repo.ErrNotFound when missing.
	GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error)

	// CreateSession stores a session for accountID valid for ttl from now.
	CreateSession(ctx context.Context, db *gorm.DB, accountID string, now time.Time, ttl time.Duration) (*domain.Session, error)

	// DeleteExpiredSessions prunes sessions of accountID expired at now.
	DeleteExpiredSessions(ctx context.Context, db *gorm.DB, accountID string, now time.Time) (int64, error)
}

// LoggedIn is the outcome of a successful login.
type LoggedIn struct {
	Email     string
	SessionID string
	ExpiresAt time.Time
}

// AccountService provides registration and login.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the account repository used by this service.
	Repo AccountRepo

	// SessionTTL is the lifetime of sessions issued by Login.
	SessionTTL time.Duration
	// BcryptCost is the work factor for new password hashes.
	BcryptCost int

	// Now returns the current time; overridable in tests.
	Now func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAccountService constructs an AccountService with default TTL and cost.
func NewAccountService(db *gorm.DB, r AccountRepo) *AccountService {
	return &AccountService{
		DB:         db,
		Repo:       r,
		SessionTTL: DefaultSessionTTL,
		BcryptCost: bcrypt.DefaultCost,
		Now:        time.Now,
	}
}

// CanonicalEmail trims surrounding whitespace and case-folds email so that
// lookups and the unique index treat "A@B.com" and "a@b.com" as the same.
func CanonicalEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// Register creates an account for email with the given password.
//
// It returns ErrEmailRegistered when the email is taken, either by the
// existence pre-check or by losing an insert race on the unique index.
func (s *AccountService) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = CanonicalEmail(email)

	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Register",
		trace.WithAttributes(attribute.String("account.email", email)))
	defer span.End()
	lg := zerolog.Ctx(ctx)

	exists, err := s.Repo.EmailExists(ctx, s.DB, email)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("check email %s: %w", email, err))
	}
	if exists {
		lg.Info().Str("email", email).Msg("registration rejected: email exists")
		return nil, fmt.Errorf("%w: %s", ErrEmailRegistered, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %d bytes", ErrPasswordTooLong, len(password))
		}
		return nil, s.fail(span, fmt.Errorf("hash password: %w", err))
	}

	acc, err := s.Repo.CreateAccount(ctx, s.DB, email, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			lg.Info().Str("email", email).Msg("registration rejected: lost insert race")
			return nil, fmt.Errorf("%w: %s", ErrEmailRegistered, email)
		}
		return nil, s.fail(span, fmt.Errorf("create account %s: %w", email, err))
	}

	span.SetAttributes(attribute.String("account.id", acc.ID))
	lg.Info().Str("account_id", acc.ID).Msg("account registered")
	return acc, nil
}

// Login verifies the credentials and issues a session.
//
// An unknown email and a wrong password both yield ErrInvalidCredentials. For
// an unknown email a comparison against a throwaway hash is still performed
// so both paths cost about the same.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoggedIn, error) {
	email = CanonicalEmail(email)

	ctx, span := otel.Tracer("services/AccountService").Start(ctx, "Login",
		trace.WithAttributes(attribute.String("account.email", email)))
	defer span.End()
	lg := zerolog.Ctx(ctx)

	acc, err := s.Repo.GetAccountByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, fmt.Errorf("%w: unknown email %s", ErrInvalidCredentials, email)
		}
		return nil, s.fail(span, fmt.Errorf("load account %s: %w", email, err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("%w: wrong password for %s", ErrInvalidCredentials, email)
		}
		return nil, s.fail(span, fmt.Errorf("verify password for %s: %w", email, err))
	}

	now := s.now()
	if n, err := s.Repo.DeleteExpiredSessions(ctx, s.DB, acc.ID, now); err != nil {
		lg.Warn().Err(err).Str("account_id", acc.ID).Msg("prune expired sessions failed")
	} else if n > 0 {
		lg.Debug().Int64("pruned", n).Str("account_id", acc.ID).Msg("expired sessions pruned")
	}

	sess, err := s.Repo.CreateSession(ctx, s.DB, acc.ID, now, s.ttl())
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("create session for %s: %w", acc.ID, err))
	}

	lg.Info().Str("account_id", acc.ID).Str("session_id", sess.ID).Msg("login succeeded")
	return &LoggedIn{Email: acc.Email, SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *AccountService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *AccountService) cost() int {
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.BcryptCost
}

func (s *AccountService) ttl() time.Duration {
	if s.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return s.SessionTTL
}

func (s *AccountService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// dummy returns a hash at the configured cost used to equalize login timing.
func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost())
	})
	return s.dummyHash
}
