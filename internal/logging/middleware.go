package logging

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// LoggerContextKey is the key for the logger in the request context
	LoggerContextKey ContextKey = "logger"

	outcomeContextKey ContextKey = "request_outcome"
)

// outcome collects attributes that handlers further down the chain want on
// the "request completed" line, such as the authenticated user or the reason
// a session was refused.
type outcome struct {
	mu    sync.Mutex
	attrs []any
}

func (o *outcome) add(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attrs = append(o.attrs, key, value)
}

func (o *outcome) snapshot() []any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]any(nil), o.attrs...)
}

// Annotate attaches key=value to the completion line of the current request.
// Outside RequestLogger it does nothing.
func Annotate(ctx context.Context, key string, value any) {
	if o, ok := ctx.Value(outcomeContextKey).(*outcome); ok {
		o.add(key, value)
	}
}

// RequestLogger stores a request-scoped logger in the context and writes one
// completion line per request. Attributes passed to Annotate are appended to
// that line.
func RequestLogger(logger *Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi's RequestID middleware runs first and sets this
			reqLogger := logger.WithFields(map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote_ip":  r.RemoteAddr,
				"origin":     r.Header.Get("Origin"),
			})
			reqLogger.Debug("request started")

			out := &outcome{}
			ctx := WithLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, outcomeContextKey, out)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := append([]any{
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			}, out.snapshot()...)
			reqLogger.Log(r.Context(), levelForStatus(status), "request completed", attrs...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// GetLoggerFromContext retrieves the logger from the request context
func GetLoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return defaultLogger
}

var defaultLogger = NewLogger(true)
