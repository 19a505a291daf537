// Package handlers maps service-layer errors onto the response taxonomy.
//
// Conventions:
//   - Known domain outcomes (duplicate email, bad credentials, oversize
//     password) become 400s with a case that names the precise reason.
//   - The user-facing text of domain failures is deliberately generic; the
//     wrapped error (which carries the offending identity) goes to ErrorLog.
//   - Everything else, including deadlines and cancellations, is a dependency
//     failure rendered as the generic 500.
package handlers

import (
	"context"
	"errors"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/services"
)

// MessagePasswordTooLong is shown when bcrypt cannot hash the password.
const MessagePasswordTooLong = "Password must be at most 72 bytes"

// serviceError converts err returned by an AccountService method in scenario
// s into the HTTPError to render.
func serviceError(s respcode.Scenario, err error) *respcode.HTTPError {
	switch {
	case errors.Is(err, services.ErrEmailRegistered):
		return respcode.BadRequest(s, respcode.CaseEmailRegistered, err.Error(), respcode.MessageEmailRegistered)
	case errors.Is(err, services.ErrInvalidCredentials):
		return respcode.BadRequest(s, respcode.CaseInvalidCredentials, err.Error(), respcode.MessageInvalidCredentials)
	case errors.Is(err, services.ErrPasswordTooLong):
		return respcode.BadRequest(s, respcode.CaseInvalidPassword, err.Error(), MessagePasswordTooLong)
	case errors.Is(err, context.DeadlineExceeded):
		return respcode.Internal(s, "deadline exceeded: "+err.Error())
	case errors.Is(err, context.Canceled):
		return respcode.Internal(s, "request canceled: "+err.Error())
	default:
		return respcode.Internal(s, err.Error())
	}
}
