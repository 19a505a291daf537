// Package binding turns a raw request body into a validated, typed payload
// before any domain logic runs.
//
// SafeJSON performs six ordered steps, each a distinct failure point:
//
//  1. read the whole body (the only read; the body cannot be consumed twice)
//  2. require Content-Type: application/json
//  3. parse the bytes as generic JSON
//  4. check mandatory fields on the generic value
//  5. decode into the typed struct
//  6. run the type's business rules
//
// Presence is checked before type shape, and type shape before business
// rules, so the caller always gets the earliest and most specific error.
// Every failure is a *respcode.HTTPError; parser diagnostics only ever land
// in ErrorLog.
package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/http/validation"
)

// MIMEJSON is the only accepted request media type.
const MIMEJSON = gin.MIMEJSON

// SafeJSON extracts a T from the request held by c.
func SafeJSON[T validation.Validatable](c *gin.Context, s respcode.Scenario) (T, *respcode.HTTPError) {
	var zero T
	if c.Request == nil {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest, "request is nil", respcode.MessageInvalidBody)
	}
	return Extract[T](c.Request, s)
}

// Extract is SafeJSON for a plain *http.Request.
func Extract[T validation.Validatable](r *http.Request, s respcode.Scenario) (T, *respcode.HTTPError) {
	var zero T

	// 1) body
	body, err := readBody(r)
	if err != nil {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest,
			"Failed to read request body: "+err.Error(),
			respcode.MessageInvalidBody)
	}

	// 2) content type
	if !strings.EqualFold(filterFlags(r.Header.Get("Content-Type")), MIMEJSON) {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest,
			respcode.MessageMissingJSONType,
			respcode.MessageMissingJSONType)
	}

	// 3) generic JSON
	if !utf8.Valid(body) {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest,
			"Invalid JSON syntax: invalid UTF-8",
			respcode.MessageInvalidFormat)
	}
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest,
			"Invalid JSON syntax: "+err.Error(),
			respcode.MessageInvalidFormat)
	}

	// 4) mandatory fields
	if err := validation.CheckMandatoryFields(generic, zero.MandatoryFields()); err != nil {
		out := err.Error()
		if errors.Is(err, validation.ErrNotObject) {
			out = "Payload must be a JSON object"
		}
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest, err.Error(), out)
	}

	// 5) typed decode
	var value T
	if err := decodeExact(body, &value); err != nil {
		return zero, respcode.BadRequest(s, respcode.CaseInvalidRequest,
			fmt.Sprintf("Invalid JSON data: %v", err),
			respcode.MessageInvalidFormat)
	}

	// 6) business rules
	if he := value.ValidateBusinessLogic(); he != nil {
		return zero, he
	}
	return value, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// decodeExact decodes body into dst using only the top-level keys that match
// a field name of dst exactly. Keys differing in case are ignored.
func decodeExact(body []byte, dst any) error {
	t := reflect.TypeOf(dst).Elem()
	if t.Kind() != reflect.Struct {
		return json.Unmarshal(body, dst)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}
	known := make(map[string]struct{})
	collectKeys(t, known)
	kept := make(map[string]json.RawMessage, len(known))
	for k, v := range raw {
		if _, ok := known[k]; ok {
			kept[k] = v
		}
	}
	filtered, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return json.Unmarshal(filtered, dst)
}

// collectKeys adds the JSON keys of t's exported fields, following embedded
// structs the way encoding/json does.
func collectKeys(t reflect.Type, into map[string]struct{}) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectKeys(ft, into)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		into[name] = struct{}{}
	}
}

// filterFlags strips media type parameters such as "; charset=utf-8".
func filterFlags(content string) string {
	content = strings.TrimSpace(content)
	for i, ch := range content {
		if ch == ' ' || ch == ';' {
			return content[:i]
		}
	}
	return content
}
