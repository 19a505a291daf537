package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderRequestTimeout lets a caller shorten the server-side deadline. The
// value is a Go duration ("750ms", "2s") or a bare integer of milliseconds.
const HeaderRequestTimeout = "X-Request-Timeout"

// Deadline bounds the request context so slow store calls are cancelled.
//
// The timeout is taken from X-Request-Timeout when it parses to a positive
// duration, otherwise def is used; the result is clamped to max. A
// non-positive def disables the middleware unless the header is present.
func Deadline(def, max time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		timeout := def
		if d, ok := parseTimeout(c.GetHeader(HeaderRequestTimeout)); ok {
			timeout = d
		}
		if max > 0 && timeout > max {
			timeout = max
		}
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseTimeout(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return 0, false
		}
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
