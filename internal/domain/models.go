// Package domain defines the persistence models for accounts and their login
// sessions. These types are mapped with GORM and form the data layer of the
// account service.
package domain

import (
	"time"
)

// Account is a registered user identity.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: canonical (trimmed, lower-cased) address; unique.
//   - PasswordHash: bcrypt hash of the password. Never serialized.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// The unique index on Email is what makes concurrent registrations of the
// same address safe: the second insert fails and is reported as a duplicate.
type Account struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(320);not null;uniqueIndex:ux_accounts_email"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Session is issued on a successful login.
//
// Fields:
//   - ID: UUID primary key (char(36)); returned to the client as sessionId.
//   - AccountID: owning account (indexed).
//   - ExpiresAt: instant after which the session is no longer valid.
//   - Account: FK association, sessions are removed with their account.
type Session struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string    `json:"account_id" gorm:"type:char(36);not null;index:idx_sessions_account"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }
