// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the scrubbing rules applied to everything the request
// middleware logs: sensitive headers are fully masked, JSON body fields such
// as "password" are replaced, and common identifiers are redacted from query
// strings.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// RedactOptions configures additional scrub behavior for RequestContext.
//
// MaskHeaders and MaskFields are merged with the built-in sets
// ("Authorization", "Cookie", "Set-Cookie" and "password"). Header matching is
// case-insensitive; field matching is exact.
type RedactOptions struct {
	MaskHeaders []string
	MaskFields  []string
}

var (
	// UUIDs are redacted before phone numbers so the phone pattern does not
	// eat the digit groups of a UUID.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type redactor struct {
	headers map[string]struct{}
	fields  map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{
		headers: map[string]struct{}{
			"authorization": {},
			"cookie":        {},
			"set-cookie":    {},
		},
		fields: map[string]struct{}{
			"password": {},
		},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.headers[h] = struct{}{}
		}
	}
	for _, f := range opts.MaskFields {
		if f = strings.TrimSpace(f); f != "" {
			r.fields[f] = struct{}{}
		}
	}
	return r
}

// headerMap flattens h into a single-valued map with masked values.
func (r *redactor) headerMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = redactedValue
			continue
		}
		out[k] = strings.Join(vv, ", ")
	}
	return out
}

// query scrubs identifiers from a raw query string.
func (r *redactor) query(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	return truncate(s, maxQueryLogLength)
}

func (r *redactor) body(b []byte) string {
	return renderBody(b, r.fields)
}
