// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request context middleware and the panic-safe
// recovery handler:
//
//   - RequestContext() buffers the one-shot request body and replays it,
//     mints or propagates the trace id, stores a reqctx.RequestContext and a
//     request-scoped zerolog.Logger, logs the incoming request, captures the
//     response, appends X-Timestamp and X-Trace-Id, and logs the outgoing
//     response plus a summary line.
//   - Recovery() converts panics into the generic 500 envelope.
//   - LoggerFrom() retrieves the request-scoped logger inside handlers.
//
// Recommended order:
//  1. RequestContext()
//  2. Recovery()
//
// so that panics are rendered inside the captured response and carry the
// trace headers.
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
	"github.com/tbourn/go-account-backend/internal/reqctx"
)

const (
	// HeaderTraceID carries the per-request correlation id in both directions.
	HeaderTraceID = "X-Trace-Id"
	// HeaderB3TraceID is accepted inbound as an alias of HeaderTraceID.
	HeaderB3TraceID = "X-B3-TraceId"
	// HeaderTimestamp carries the RFC3339 time the response was finalized.
	HeaderTimestamp = "X-Timestamp"

	requestContextKey = "requestContext"
	loggerKey         = "logger"
	responseCodeKey   = "responseCode"

	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestContext wraps every request with tracing metadata, body replay,
// timing and structured entry/exit logs.
//
// The only failure it can produce itself is a generic 500, written when the
// response headers cannot be finalized. Logging problems never affect the
// response.
func RequestContext(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request
		method := req.Method
		path := req.URL.Path

		body, readErr := bufferBody(req)

		traceID := reqctx.ResolveTraceID(req.Header.Get(HeaderTraceID), req.Header.Get(HeaderB3TraceID))
		rc := reqctx.New(traceID, method, path).
			WithMetadata(reqctx.MetaTimestamp, start.UTC().Format(time.RFC3339))

		lg := log.With().
			Str("trace_id", traceID).
			Str("method", method).
			Str("path", path).
			Logger()

		ctx := reqctx.WithContext(req.Context(), rc)
		ctx = lg.WithContext(ctx)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.trace_id", traceID))

		c.Request = req.WithContext(ctx)
		c.Request.Body = replayBody(body, readErr)
		c.Set(requestContextKey, rc)
		c.Set(loggerKey, &lg)

		if readErr != nil {
			lg.Warn().Err(readErr).Msg("failed to read request body")
		}
		lg.Debug().
			Str("query", rd.query(req.URL.RawQuery)).
			Str("remote_ip", c.ClientIP()).
			Interface("headers", rd.headerMap(req.Header)).
			Str("body", rd.body(body)).
			Msg("incoming")

		orig := c.Writer
		bw := newBufferedWriter(orig)
		c.Writer = bw
		func() {
			defer func() { c.Writer = orig }()
			c.Next()
		}()

		status := bw.Status()
		respBody := bw.body.Bytes()
		code := responseCodeOf(respBody)
		c.Set(responseCodeKey, code)

		h := orig.Header()
		if err := setHeader(h, HeaderTimestamp, time.Now().UTC().Format(time.RFC3339)); err != nil {
			writeInternal(c, orig, lg, traceID, err)
			return
		}
		if err := setHeader(h, HeaderTraceID, traceID); err != nil {
			writeInternal(c, orig, lg, traceID, err)
			return
		}

		lg.Debug().
			Int("status", status).
			Interface("headers", rd.headerMap(h)).
			Str("body", rd.body(respBody)).
			Msg("outgoing")

		if err := bw.flushTo(orig); err != nil {
			lg.Warn().Err(err).Msg("failed to write response body")
		}

		elapsed := time.Since(start)
		ev := lg.Info()
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}
		ev.
			Int64("elapsed_ms", elapsed.Milliseconds()).
			Int("status", status).
			Str("response_code", code).
			Str("success", successFlag(status)).
			Msg("request")
	}
}

// setHeader validates value before setting it.
func setHeader(h http.Header, key, value string) error {
	if !httpguts.ValidHeaderFieldValue(value) {
		return &invalidHeaderError{key: key}
	}
	h.Set(key, value)
	return nil
}

type invalidHeaderError struct{ key string }

func (e *invalidHeaderError) Error() string { return "invalid value for header " + e.key }

// writeInternal replaces the captured response with the generic 500.
// Content-Encoding and Vary survive since an outer writer may still be
// compressing the body.
func writeInternal(c *gin.Context, w gin.ResponseWriter, lg zerolog.Logger, traceID string, cause error) {
	lg.Error().Err(cause).Msg("request processing failed")

	he := respcode.Internal(respcode.ScenarioIndex, cause.Error())
	body, _ := json.Marshal(he)
	h := w.Header()
	for k := range h {
		if k == "Content-Encoding" || k == "Vary" {
			continue
		}
		h.Del(k)
	}
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set(HeaderTimestamp, time.Now().UTC().Format(time.RFC3339))
	if httpguts.ValidHeaderFieldValue(traceID) {
		h.Set(HeaderTraceID, traceID)
	}
	c.Set(responseCodeKey, he.Code())
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}

func successFlag(status int) string {
	if status >= 200 && status < 300 {
		return "Y"
	}
	return "N"
}

// Recovery intercepts panics, logs a stack trace, and answers with the
// generic 500 envelope.
//
// When installed after RequestContext, any partial body already written by
// the handler is discarded first.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				lg := LoggerFrom(c)
				lg.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if r, ok := c.Writer.(interface{ Reset() }); ok {
					r.Reset()
				}
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError,
						respcode.Internal(respcode.ScenarioIndex, "panic recovered"))
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If RequestContext did not run, a fallback logger without request fields is
// returned. Callers can use the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// RequestContextFrom returns the reqctx.RequestContext attached by
// RequestContext.
func RequestContextFrom(c *gin.Context) (reqctx.RequestContext, bool) {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(reqctx.RequestContext); ok {
			return rc, true
		}
	}
	return reqctx.RequestContext{}, false
}

// ResponseCodeFrom returns the responseCode captured from the response body.
// It is set once RequestContext has finished.
func ResponseCodeFrom(c *gin.Context) string {
	v, _ := c.Get(responseCodeKey)
	return asString(v)
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
