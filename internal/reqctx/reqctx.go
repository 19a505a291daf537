// Package reqctx holds the per-request context created by the HTTP
// middleware: the trace identifier, method, path and auxiliary metadata.
//
// A RequestContext is built once per request, stored in the request's
// context.Context and never shared between requests. Only metadata may be
// added after construction.
package reqctx

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MetaTimestamp is the metadata key holding the RFC3339 arrival time.
const MetaTimestamp = "timestamp"

// maxTraceIDLen caps accepted inbound trace identifiers.
const maxTraceIDLen = 64

var (
	traceIDRE     = regexp.MustCompile(`^[A-Za-z0-9._\-]+$`)
	generatedIDRE = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// RequestContext describes one inbound request.
type RequestContext struct {
	RequestID string
	Method    string
	Path      string
	Metadata  map[string]string
}

// New builds a RequestContext with an empty metadata map.
func New(requestID, method, path string) RequestContext {
	return RequestContext{
		RequestID: requestID,
		Method:    method,
		Path:      path,
		Metadata:  make(map[string]string),
	}
}

// WithMetadata returns a copy of rc with key set to value.
func (rc RequestContext) WithMetadata(key, value string) RequestContext {
	md := make(map[string]string, len(rc.Metadata)+1)
	for k, v := range rc.Metadata {
		md[k] = v
	}
	md[key] = value
	rc.Metadata = md
	return rc
}

func (rc RequestContext) String() string {
	return "[" + rc.RequestID + " " + rc.Method + " " + rc.Path + "]"
}

// NewTraceID returns 128 random bits as 32 lowercase hex characters.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsGeneratedTraceID reports whether id has the NewTraceID format.
func IsGeneratedTraceID(id string) bool {
	return generatedIDRE.MatchString(id)
}

// ValidTraceID reports whether an inbound trace id can be propagated as is.
func ValidTraceID(id string) bool {
	return id != "" && len(id) <= maxTraceIDLen && traceIDRE.MatchString(id)
}

// ResolveTraceID returns the first well-formed candidate, or a fresh id.
func ResolveTraceID(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); ValidTraceID(c) {
			return c
		}
	}
	return NewTraceID()
}

type ctxKey struct{}

// WithContext stores rc in ctx.
func WithContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(RequestContext)
	return rc, ok
}

// TraceID returns the trace id stored in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	if rc, ok := FromContext(ctx); ok {
		return rc.RequestID
	}
	return ""
}
