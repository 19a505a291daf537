package respcode

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError is the structured failure rendered by the HTTP layer.
//
// ErrorLog is for server-side diagnostics only and is never serialized;
// Output is the only user-visible text besides the composed code.
type HTTPError struct {
	Status   int
	Scenario Scenario
	Case     Case
	ErrorLog string
	Output   string
}

// Error implements error using the internal diagnostic.
func (e *HTTPError) Error() string {
	if e.ErrorLog != "" {
		return e.ErrorLog
	}
	return e.Output
}

// Code returns the composed response code.
func (e *HTTPError) Code() string { return Compose(e.Status, e.Scenario, e.Case) }

// HTTPStatus returns the status to write on the wire.
func (e *HTTPError) HTTPStatus() int { return NormalizeStatus(e.Status) }

// MarshalJSON renders only the public fields.
func (e *HTTPError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorBody{ResponseCode: e.Code(), ResponseMessage: e.Output})
}

// errorBody is the wire shape of every failure.
type errorBody struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
}

// New builds an error with an arbitrary status.
func New(status int, s Scenario, c Case, errorLog, output string) *HTTPError {
	return &HTTPError{Status: status, Scenario: s, Case: c, ErrorLog: errorLog, Output: output}
}

// BadRequest builds a 400 error.
func BadRequest(s Scenario, c Case, errorLog, output string) *HTTPError {
	return &HTTPError{
		Status:   http.StatusBadRequest,
		Scenario: s,
		Case:     c,
		ErrorLog: errorLog,
		Output:   output,
	}
}

// Internal builds a 500 error with the generic user message.
func Internal(s Scenario, errorLog string) *HTTPError {
	return &HTTPError{
		Status:   http.StatusInternalServerError,
		Scenario: s,
		Case:     CaseGeneral,
		ErrorLog: errorLog,
		Output:   MessageInternal,
	}
}

// As extracts an *HTTPError from err's chain.
func As(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// User-facing messages shared across scenarios.
const (
	MessageSuccess            = "Successful"
	MessageInternal           = "Internal server error"
	MessageInvalidFormat      = "Invalid JSON format"
	MessageInvalidBody        = "Invalid request body"
	MessageMissingJSONType    = "Missing Content-Type: application/json header"
	MessageEmailRegistered    = "Email already registered"
	MessageInvalidCredentials = "Invalid email or password"
	MessageNotFound           = "Not found"
	MessageMethodNotAllowed   = "Method not allowed"
	MessageTooManyRequests    = "Too many requests"
	MessageRequestTooLarge    = "Request body too large"
)
