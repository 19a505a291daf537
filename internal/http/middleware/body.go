package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const (
	// maxBodyLogLength caps the rendered body written to a log line.
	maxBodyLogLength = 4096
	// binaryBodyPlaceholder replaces bodies that are neither JSON nor UTF-8.
	binaryBodyPlaceholder = "<binary or non-UTF8 content>"
	// redactedValue replaces masked header and field values.
	redactedValue = "[REDACTED]"
)

// bufferBody reads the whole request body once. On a read error the bytes
// received so far are returned along with the error.
func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// replayBody re-attaches buffered bytes as a fresh body. When the original
// read failed, the replayed body fails with the same error after the
// buffered bytes so the extractor still reports an unreadable body.
func replayBody(b []byte, readErr error) io.ReadCloser {
	if readErr != nil {
		return io.NopCloser(io.MultiReader(bytes.NewReader(b), errReader{readErr}))
	}
	if len(b) == 0 {
		return http.NoBody
	}
	return io.NopCloser(bytes.NewReader(b))
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// bufferedWriter holds the status and body written by downstream handlers
// until the request middleware has logged them and added its own headers.
// Headers go straight to the wrapped writer's map, which is not sent until
// flush.
type bufferedWriter struct {
	gin.ResponseWriter
	body    bytes.Buffer
	status  int
	initial int
	written bool
}

// newBufferedWriter starts from w's current status so that statuses preset
// by the engine (404/405 before the fallback chain runs) are preserved.
func newBufferedWriter(w gin.ResponseWriter) *bufferedWriter {
	st := w.Status()
	if st <= 0 {
		st = http.StatusOK
	}
	return &bufferedWriter{ResponseWriter: w, status: st, initial: st}
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.written {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() { w.written = true }

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool { return w.written }

// Flush is a no-op: nothing reaches the client before the middleware is done.
func (w *bufferedWriter) Flush() {}

// Reset discards everything written so far.
func (w *bufferedWriter) Reset() {
	w.body.Reset()
	w.status = w.initial
	w.written = false
}

// flushTo writes the captured status and body to dst.
func (w *bufferedWriter) flushTo(dst gin.ResponseWriter) error {
	dst.WriteHeader(w.status)
	if w.body.Len() == 0 {
		dst.WriteHeaderNow()
		return nil
	}
	_, err := dst.Write(w.body.Bytes())
	return err
}

// renderBody returns a best-effort textual form of b for logs: indented
// JSON with masked fields, UTF-8 text, or a placeholder for binary data.
func renderBody(b []byte, maskFields map[string]struct{}) (out string) {
	defer func() {
		if recover() != nil {
			out = binaryBodyPlaceholder
		}
	}()

	if len(b) == 0 {
		return ""
	}
	if gjson.ValidBytes(b) {
		var v any
		if err := json.Unmarshal(b, &v); err == nil {
			if pretty, err := json.MarshalIndent(maskJSON(v, maskFields), "", "  "); err == nil {
				return truncate(string(pretty), maxBodyLogLength)
			}
		}
	}
	if utf8.Valid(b) {
		return truncate(string(b), maxBodyLogLength)
	}
	return binaryBodyPlaceholder
}

// maskJSON replaces the values of object keys found in fields, recursively.
func maskJSON(v any, fields map[string]struct{}) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			if _, ok := fields[k]; ok {
				t[k] = redactedValue
				continue
			}
			t[k] = maskJSON(vv, fields)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = maskJSON(vv, fields)
		}
		return t
	default:
		return v
	}
}

// responseCodeOf extracts the responseCode field of a JSON response body.
func responseCodeOf(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return gjson.GetBytes(b, "responseCode").String()
}
