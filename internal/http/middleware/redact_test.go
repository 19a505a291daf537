package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactor_HeaderMap(t *testing.T) {
	rd := newRedactor(RedactOptions{MaskHeaders: []string{" X-Api-Key ", ""}})

	h := http.Header{}
	h.Set("Authorization", "Bearer t")
	h.Set("Cookie", "sid=1")
	h.Set("X-Api-Key", "k")
	h.Add("Accept", "application/json")
	h.Add("Accept", "text/plain")

	m := rd.headerMap(h)
	assert.Equal(t, redactedValue, m["Authorization"])
	assert.Equal(t, redactedValue, m["Cookie"])
	assert.Equal(t, redactedValue, m["X-Api-Key"])
	assert.Equal(t, "application/json, text/plain", m["Accept"])
}

func TestRedactor_Query(t *testing.T) {
	rd := newRedactor(RedactOptions{})

	got := rd.query("id=123e4567-e89b-12d3-a456-426614174000&email=jane.doe@example.com&phone=+1 415 555 2671")
	assert.Contains(t, got, "[REDACTED:id]")
	assert.Contains(t, got, "[REDACTED:email]")
	assert.Contains(t, got, "[REDACTED:phone]")
	assert.NotContains(t, got, "jane.doe")

	assert.Equal(t, "", rd.query(""))
	long := rd.query(strings.Repeat("q", maxQueryLogLength+5))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestRedactor_BodyFields(t *testing.T) {
	rd := newRedactor(RedactOptions{MaskFields: []string{"sessionId"}})
	out := rd.body([]byte(`{"email":"a@b.co","sessionId":"s-1","password":"p"}`))
	assert.NotContains(t, out, "s-1")
	assert.NotContains(t, out, `"p"`)
	assert.Contains(t, out, "a@b.co")
}
