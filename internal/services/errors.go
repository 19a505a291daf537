// Package services defines the business logic for account registration and
// login. This file centralizes the service-level error values so that they can
// be returned by service methods and checked by callers with errors.Is.
//
// Translation into user-facing messages and HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrEmailRegistered is returned when an account already exists for the
	// email, whether found by the pre-check or by the unique index on insert.
	ErrEmailRegistered = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike, so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordTooLong is returned when the password exceeds what bcrypt
	// can hash (72 bytes).
	ErrPasswordTooLong = errors.New("password too long")
)
