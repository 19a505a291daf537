// Package validation lets request payload types declare their own mandatory
// fields and business rules independently of HTTP wiring.
//
// A payload type implements Validatable with value receivers, so the zero
// value can report its mandatory fields before anything is decoded:
//
//	type RegisterRequest struct { Email, Password string }
//
//	func (RegisterRequest) MandatoryFields() []string { return []string{"email", "password"} }
//	func (r RegisterRequest) ValidateBusinessLogic() *respcode.HTTPError { ... }
//
// Mandatory fields are checked against the generic JSON value; business rules
// run only after the typed value has been decoded.
package validation

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
)

// Validatable is implemented by every request payload handled by
// binding.SafeJSON.
type Validatable interface {
	// MandatoryFields lists the JSON field names that must be present,
	// non-null and non-empty, in the order they are checked.
	MandatoryFields() []string
	// ValidateBusinessLogic checks semantic rules on the decoded value.
	ValidateBusinessLogic() *respcode.HTTPError
}

// ErrNotObject is returned when the payload is not a JSON object.
var ErrNotObject = errors.New("payload must be a JSON object")

// MissingFieldError names the first mandatory field found missing.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Invalid Mandatory Field " + e.Field
}

// CheckMandatoryFields verifies that payload (a value produced by
// encoding/json into an `any`) is an object holding every field in fields
// with a value that is neither null nor the empty string.
//
// Only the first missing field, in the order given, is reported. Callers
// that need the full list must check fields one at a time.
func CheckMandatoryFields(payload any, fields []string) error {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ErrNotObject
	}
	for _, f := range fields {
		v, present := obj[f]
		if !present || v == nil {
			return &MissingFieldError{Field: f}
		}
		if s, isStr := v.(string); isStr && s == "" {
			return &MissingFieldError{Field: f}
		}
	}
	return nil
}

// InvalidFormat builds the 400 returned when a field does not match its
// expected shape.
func InvalidFormat(s respcode.Scenario, field, detail string) *respcode.HTTPError {
	return respcode.BadRequest(s, respcode.CaseInvalidRequest,
		fmt.Sprintf("%s: %s", field, detail),
		"Invalid Field Format "+field)
}
