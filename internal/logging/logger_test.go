package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFields_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, true)

	log.WithFields(map[string]any{"user_id": "u-1", "reason": "expired"}).Warn("authentication failed")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="authentication failed"`)
	assert.Contains(t, out, "reason=expired")
	assert.Contains(t, out, "user_id=u-1")
}

func TestNewLogger_ProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, false)

	log.Debug("hidden")
	log.Info("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestRequestLogger_StoresLoggerAndLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, true)

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusUnauthorized)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	require.NotNil(t, fromCtx)
	assert.NotSame(t, log, fromCtx)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `msg="request completed"`)
	assert.Contains(t, out, "status=401")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/auth/me")
}

func TestRequestLogger_AppendsAnnotations(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, true)

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), "auth_failure", "expired")
		_, _ = w.Write([]byte("nope"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	out := buf.String()
	assert.Contains(t, out, `msg="request completed"`)
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "bytes=4")
	assert.Contains(t, out, "auth_failure=expired")
	assert.Contains(t, out, "level=INFO")
}

func TestAnnotate_OutsideRequestLoggerIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Annotate(context.Background(), "user_id", "u-1")
	})
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))
}
