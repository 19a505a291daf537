// Account HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /account/register  (scenario 13)
//   - POST /account/login     (scenario 14)
//
// Handlers are transport-thin: binding.SafeJSON extracts and validates the
// payload, the AccountService does the work, and the result or error is
// rendered through the response taxonomy.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-account-backend/internal/domain"
	"github.com/tbourn/go-account-backend/internal/http/binding"
	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/http/validation"
	"github.com/tbourn/go-account-backend/internal/services"
)

//
// Service contract (context-aware)
//

// AccountService defines the account operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor ctx for
// cancellation and deadlines.
type AccountService interface {
	// Register creates an account; services.ErrEmailRegistered when taken.
	Register(ctx context.Context, email, password string) (*domain.Account, error)
	// Login verifies credentials and issues a session;
	// services.ErrInvalidCredentials on mismatch.
	Login(ctx context.Context, email, password string) (*services.LoggedIn, error)
}

//
// Handler wiring
//

// Handlers groups the account endpoints.
type Handlers struct {
	accounts AccountService
}

// New constructs a Handlers bound to svc.
func New(svc AccountService) *Handlers {
	return &Handlers{accounts: svc}
}

//
// DTOs
//

// RegisterRequest is the JSON payload for POST /account/register.
type RegisterRequest struct {
	Email    string `json:"email" example:"a@b.com"`
	Password string `json:"password" example:"Abcde1!"`
}

// MandatoryFields lists the fields that must be present and non-empty.
func (RegisterRequest) MandatoryFields() []string { return []string{"email", "password"} }

// ValidateBusinessLogic checks the email shape and the password policy.
func (r RegisterRequest) ValidateBusinessLogic() *respcode.HTTPError {
	if he := validation.CheckEmail(respcode.ScenarioRegister, r.Email); he != nil {
		return he
	}
	return validation.CheckPassword(respcode.ScenarioRegister, r.Password)
}

// LoginRequest is the JSON payload for POST /account/login.
type LoginRequest struct {
	Email    string `json:"email" example:"a@b.com"`
	Password string `json:"password" example:"Abcde1!"`
}

// MandatoryFields lists the fields that must be present and non-empty.
func (LoginRequest) MandatoryFields() []string { return []string{"email", "password"} }

// ValidateBusinessLogic has no rules beyond presence: a malformed email or a
// weak password simply fails to match and yields the generic credentials
// error.
func (LoginRequest) ValidateBusinessLogic() *respcode.HTTPError { return nil }

// SavedAccount is the public view of a newly registered account.
type SavedAccount struct {
	Email string `json:"email" example:"a@b.com"`
}

// RegisterResult is flattened into the register success envelope.
type RegisterResult struct {
	SavedAccount SavedAccount `json:"savedAccount"`
}

// LoginResult is flattened into the login success envelope.
type LoginResult struct {
	Email             string `json:"email" example:"a@b.com"`
	SessionID         string `json:"sessionId" example:"0b9f5a7e-3c1d-4e0a-9a57-2f4c1e8d9b11"`
	SessionExpireTime string `json:"sessionExpireTime" example:"2024-06-02T08:00:00Z"`
}

// RegisterResponse documents the register success body in OpenAPI.
type RegisterResponse struct {
	ResponseCode    string       `json:"responseCode" example:"2001300"`
	ResponseMessage string       `json:"responseMessage" example:"Successful"`
	SavedAccount    SavedAccount `json:"savedAccount"`
}

// LoginResponse documents the login success body in OpenAPI.
type LoginResponse struct {
	ResponseCode      string `json:"responseCode" example:"2001400"`
	ResponseMessage   string `json:"responseMessage" example:"Successful"`
	Email             string `json:"email" example:"a@b.com"`
	SessionID         string `json:"sessionId" example:"0b9f5a7e-3c1d-4e0a-9a57-2f4c1e8d9b11"`
	SessionExpireTime string `json:"sessionExpireTime" example:"2024-06-02T08:00:00Z"`
}

//
// Handlers
//

// Register godoc
// @ID          registerAccount
// @Summary     Register an account
// @Description Creates an account for the email. The password needs at least 6 characters and 3 of: uppercase, lowercase, digit, symbol.
// @Tags        Account
// @Accept      json
// @Produce     json
//
// @Param       X-Trace-Id         header  string                    false  "Trace id to propagate"
// @Param       X-Request-Timeout  header  string                    false  "Server-side deadline (e.g. 2s or 1500)"
// @Param       body               body    handlers.RegisterRequest  true   "Register payload"
//
// @Success     200  {object}  handlers.RegisterResponse
// @Header      200  {string}  X-Trace-Id   "Trace id"
// @Header      200  {string}  X-Timestamp  "RFC3339 response time"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid request, password policy, or email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /account/register [post]
func (h *Handlers) Register(c *gin.Context) {
	const s = respcode.ScenarioRegister

	req, he := binding.SafeJSON[RegisterRequest](c, s)
	if he != nil {
		fail(c, he)
		return
	}

	acc, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, serviceError(s, err))
		return
	}
	ok(c, s, RegisterResult{SavedAccount: SavedAccount{Email: acc.Email}})
}

// Login godoc
// @ID          loginAccount
// @Summary     Log in
// @Description Verifies the credentials and issues a session. Unknown email and wrong password give the same error.
// @Tags        Account
// @Accept      json
// @Produce     json
//
// @Param       X-Trace-Id         header  string                 false  "Trace id to propagate"
// @Param       X-Request-Timeout  header  string                 false  "Server-side deadline (e.g. 2s or 1500)"
// @Param       body               body    handlers.LoginRequest  true   "Login payload"
//
// @Success     200  {object}  handlers.LoginResponse
// @Header      200  {string}  X-Trace-Id   "Trace id"
// @Header      200  {string}  X-Timestamp  "RFC3339 response time"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid request or invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /account/login [post]
func (h *Handlers) Login(c *gin.Context) {
	const s = respcode.ScenarioLogin

	req, he := binding.SafeJSON[LoginRequest](c, s)
	if he != nil {
		fail(c, he)
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, serviceError(s, err))
		return
	}
	ok(c, s, LoginResult{
		Email:             res.Email,
		SessionID:         res.SessionID,
		SessionExpireTime: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
