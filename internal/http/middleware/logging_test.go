package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	return &buf
}

// logLines decodes the JSON log lines written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func findLog(lines []map[string]any, msg string) map[string]any {
	for _, l := range lines {
		if l["message"] == msg {
			return l
		}
	}
	return nil
}

func newContextRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContext(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.Use(Recovery())
	return r
}

func TestRequestContext_GeneratesTraceIDAndTimestamp(t *testing.T) {
	captureLogger(t)
	r := newContextRouter()

	var seen string
	r.GET("/ok", func(c *gin.Context) {
		rc, _ := RequestContextFrom(c)
		seen = rc.RequestID
		c.JSON(http.StatusOK, gin.H{"responseCode": "2000000"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	got := w.Header().Get(HeaderTraceID)
	if !hex32.MatchString(got) {
		t.Fatalf("expected generated 32-hex trace id, got %q", got)
	}
	if seen != got {
		t.Fatalf("handler saw %q, header carries %q", seen, got)
	}
	ts := w.Header().Get(HeaderTimestamp)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("X-Timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestRequestContext_PropagatesTraceID(t *testing.T) {
	captureLogger(t)
	r := newContextRouter()
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	cases := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"primary", HeaderTraceID, "abc-123", "abc-123"},
		{"lowercase", "x-trace-id", "abc-456", "abc-456"},
		{"b3 alias", HeaderB3TraceID, "463ac35c9f6413ad", "463ac35c9f6413ad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(tc.header, tc.value)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if got := w.Header().Get(HeaderTraceID); got != tc.want {
				t.Fatalf("trace id = %q; want %q", got, tc.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderTraceID, "not a valid id!")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderTraceID); !hex32.MatchString(got) {
		t.Fatalf("malformed inbound id should be replaced, got %q", got)
	}
}

func TestRequestContext_ReplaysBody(t *testing.T) {
	captureLogger(t)
	r := newContextRouter()

	const payload = `{"email":"a@b.co","password":"Secret1!"}`
	var got string
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			t.Fatalf("read replayed body: %v", err)
		}
		got = string(b)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(payload)))
	if got != payload {
		t.Fatalf("handler body = %q; want %q", got, payload)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRequestContext_UnreadableBodySurfacesToHandler(t *testing.T) {
	captureLogger(t)
	r := newContextRouter()

	var readErr error
	r.POST("/echo", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", brokenReader{}))
	if readErr == nil || !strings.Contains(readErr.Error(), "connection reset") {
		t.Fatalf("expected read error to reach handler, got %v", readErr)
	}
}

func TestRequestContext_LogsRedactedEntryAndSummary(t *testing.T) {
	buf := captureLogger(t)
	r := newContextRouter()
	r.POST("/account/login", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"responseCode": "4001404", "responseMessage": "Invalid email or password"})
	})

	req := httptest.NewRequest(http.MethodPost, "/account/login?email=a@b.co",
		strings.NewReader(`{"email":"a@b.co","password":"hunter22"}`))
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("X-Api-Key", "k-1")
	req.Header.Set(HeaderTraceID, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	raw := buf.String()
	for _, secret := range []string{"hunter22", "Bearer abc", "k-1"} {
		if strings.Contains(raw, secret) {
			t.Fatalf("log leaked %q: %s", secret, raw)
		}
	}

	lines := logLines(t, buf)
	in := findLog(lines, "incoming")
	if in == nil {
		t.Fatalf("missing incoming line: %s", raw)
	}
	if in["trace_id"] != "trace-1" || in["method"] != "POST" || in["path"] != "/account/login" {
		t.Fatalf("incoming fields wrong: %v", in)
	}
	if q, _ := in["query"].(string); !strings.Contains(q, "[REDACTED:email]") {
		t.Fatalf("query not redacted: %q", q)
	}

	if findLog(lines, "outgoing") == nil {
		t.Fatalf("missing outgoing line: %s", raw)
	}

	sum := findLog(lines, "request")
	if sum == nil {
		t.Fatalf("missing summary line: %s", raw)
	}
	if sum["level"] != "warn" || sum["response_code"] != "4001404" || sum["success"] != "N" {
		t.Fatalf("summary fields wrong: %v", sum)
	}
	if sum["status"] != float64(http.StatusBadRequest) {
		t.Fatalf("summary status = %v", sum["status"])
	}
}

func TestRequestContext_SummaryLevels(t *testing.T) {
	buf := captureLogger(t)
	r := newContextRouter()
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/gin-err", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	for _, p := range []string{"/ok", "/gin-err"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	var levels []string
	for _, l := range logLines(t, buf) {
		if l["message"] == "request" {
			levels = append(levels, l["level"].(string))
		}
	}
	if len(levels) != 2 || levels[0] != "info" || levels[1] != "error" {
		t.Fatalf("summary levels = %v", levels)
	}
}

func TestRecovery_RendersInternalEnvelope(t *testing.T) {
	buf := captureLogger(t)
	r := newContextRouter()
	r.GET("/panic", func(c *gin.Context) {
		c.Writer.WriteString("partial")
		panic("kaboom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderTraceID, "trace-panic")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %q", w.Body.String())
	}
	if body["responseCode"] != "5000000" || body["responseMessage"] != "Internal server error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if w.Header().Get(HeaderTraceID) != "trace-panic" {
		t.Fatalf("trace header missing on panic response")
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged")
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("expected fallback logger")
	}
	if _, ok := RequestContextFrom(c); ok || ResponseCodeFrom(c) != "" {
		t.Fatalf("expected empty values without middleware")
	}
}

func TestWriteInternal_KeepsEncodingAndStampsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h := c.Writer.Header()
	h.Set("Content-Encoding", "gzip")
	h.Set("Vary", "Accept-Encoding")
	h.Set("Content-Length", "42")
	h.Set("X-Custom", "stale")

	writeInternal(c, c.Writer, zerolog.Nop(), "trace-500", errors.New("header rejected"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" || w.Header().Get("Vary") != "Accept-Encoding" {
		t.Fatalf("encoding headers dropped: %v", w.Header())
	}
	if w.Header().Get("Content-Length") != "" || w.Header().Get("X-Custom") != "" {
		t.Fatalf("stale headers kept: %v", w.Header())
	}
	if w.Header().Get(HeaderTraceID) != "trace-500" {
		t.Fatalf("trace header = %q", w.Header().Get(HeaderTraceID))
	}
	if _, err := time.Parse(time.RFC3339, w.Header().Get(HeaderTimestamp)); err != nil {
		t.Fatalf("X-Timestamp missing or invalid: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["responseCode"] != "5000000" || ResponseCodeFrom(c) != "5000000" {
		t.Fatalf("unexpected code: %v / %q", body, ResponseCodeFrom(c))
	}
}

func TestSetHeader_RejectsInvalidValue(t *testing.T) {
	h := http.Header{}
	if err := setHeader(h, HeaderTraceID, "bad\r\nvalue"); err == nil {
		t.Fatalf("expected error for CRLF value")
	}
	if h.Get(HeaderTraceID) != "" {
		t.Fatalf("invalid value must not be set")
	}
	if err := setHeader(h, HeaderTraceID, "ok"); err != nil || h.Get(HeaderTraceID) != "ok" {
		t.Fatalf("valid value not set: %v", err)
	}
}
