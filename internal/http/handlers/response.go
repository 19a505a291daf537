// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities used across all endpoints. Every
// response, success or failure, carries a composed responseCode and a
// responseMessage; success payload fields are flattened next to them.
//
// Conventions:
//   - fail() renders a *respcode.HTTPError and logs its ErrorLog with the
//     request-scoped logger. ErrorLog never reaches the client.
//   - ok() renders the success envelope for a scenario.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "responseCode": "4001303",
//	  "responseMessage": "Email already registered"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{
//	  "responseCode": "2001300",
//	  "responseMessage": "Successful",
//	  "savedAccount": { "email": "a@b.com" }
//	}
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-account-backend/internal/http/middleware"
	"github.com/tbourn/go-account-backend/internal/http/respcode"
)

// ErrorResponse documents the failure envelope in OpenAPI.
type ErrorResponse struct {
	// Composed status(3) + scenario(2) + case(2)
	ResponseCode string `json:"responseCode" example:"4001301"`
	// Human-readable message (safe to show to users)
	ResponseMessage string `json:"responseMessage" example:"Invalid Field Format email"`
}

// fail aborts the request with he rendered as the failure envelope.
//
// The internal diagnostic is logged at warn for 4xx and error for 5xx using
// the request-scoped logger from middleware.
func fail(c *gin.Context, he *respcode.HTTPError) {
	status := he.HTTPStatus()
	lg := middleware.LoggerFrom(c)
	ev := lg.Warn()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.
		Int("status", status).
		Str("response_code", he.Code()).
		Str("scenario", he.Scenario.String()).
		Str("case", he.Case.String()).
		Str("error_log", he.ErrorLog).
		Msg("api error")

	c.AbortWithStatusJSON(status, he)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, he *respcode.HTTPError) { fail(c, he) }

// ok writes the 200 success envelope for scenario s with data flattened into
// it. A data value that cannot be flattened is a programming error and is
// reported as a generic 500.
func ok[T any](c *gin.Context, s respcode.Scenario, data T) {
	body, err := json.Marshal(respcode.Success(s, data))
	if err != nil {
		fail(c, respcode.Internal(s, "render response: "+err.Error()))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// OK is the exported variant of ok() for operational routes wired outside
// this package.
func OK(c *gin.Context, s respcode.Scenario, data any) { ok(c, s, data) }
