package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf, Component: ComponentRemote})

	l.LogError(context.Background(), "fetch failed", errors.New("boom"), OpFetch,
		NewFields().WithCache("daily", "15/03/2024", false))

	out := buf.String()
	assert.Contains(t, out, "component=remote")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "operation=fetch")
	assert.Contains(t, out, "cache_hit=false")
	assert.Equal(t, ComponentRemote, l.Component())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})
	l.Info("hello", FieldCount, 3)
	assert.Contains(t, buf.String(), `"count":3`)
	assert.Contains(t, buf.String(), `"component":"app"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}

func TestToSliceIsOrdered(t *testing.T) {
	f := NewFields().WithOperation(OpList).WithComponent(ComponentHTTP)
	assert.Equal(t, []any{FieldComponent, ComponentHTTP, FieldOperation, OpList}, f.ToSlice())
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).With(FieldRequestID, "r-9").WithComponent(ComponentSession)
	l.Info("x")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="))
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "request_id=r-9")
}
