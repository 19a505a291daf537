// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for login sessions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-account-backend/internal/domain"
)

// CreateSession stores a new session for accountID that expires ttl after
// now.
func CreateSession(ctx context.Context, db *gorm.DB, accountID string, now time.Time, ttl time.Duration) (*domain.Session, error) {
	now = now.UTC()
	s := &domain.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteExpiredSessions removes the sessions of accountID that expired at or
// before now and returns how many rows were deleted.
func DeleteExpiredSessions(ctx context.Context, db *gorm.DB, accountID string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("account_id = ? AND expires_at <= ?", accountID, now.UTC()).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
