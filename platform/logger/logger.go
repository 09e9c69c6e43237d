// Package logger wraps log/slog with the event helpers used across the service.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the X-Request-ID of the current request.
	RequestIDKey contextKey = "request_id"
	// EvaluationIDKey carries the ID assigned to an evaluation result.
	EvaluationIDKey contextKey = "evaluation_id"
)

// contextFields are copied from a context onto log lines, in this order.
var contextFields = []contextKey{RequestIDKey, EvaluationIDKey}

// Logger is a slog.Logger with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// New returns a logger writing to stdout.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter returns a logger writing to w. Development gets readable
// text at debug level; every other environment gets JSON at info.
func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("production", io.Discard)
}

// WithContext attaches the request and evaluation IDs found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	for _, key := range contextFields {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// WithRequestID tags every line with requestID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String(string(RequestIDKey), requestID))}
}

// HTTPRequest records a served request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request", append(requestAttrs(method, path, status, clientIP),
		slog.Float64("latency_ms", latencyMs))...)
}

// HTTPError records the error behind a 5xx response.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error", append(requestAttrs(method, path, status, clientIP),
		slog.String("error", err.Error()))...)
}

// EvaluationCompleted records the headline ratios of an evaluation.
func (l *Logger) EvaluationCompleted(targetRatio, netRatio float64, financed, cached bool) {
	l.Info("evaluation_completed",
		slog.Float64("target_ratio", targetRatio),
		slog.Float64("net_ratio", netRatio),
		slog.Bool("financed", financed),
		slog.Bool("cached", cached),
	)
}

// CacheError records a failed cache operation. The request carries on without the cache.
func (l *Logger) CacheError(operation string, err error) {
	l.Warn("cache_error", slog.String("operation", operation), slog.String("error", err.Error()))
}

// RateLimitExceeded records a throttled client.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded", slog.String("client_ip", clientIP), slog.String("path", path))
}

func requestAttrs(method, path string, status int, clientIP string) []any {
	return []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("client_ip", clientIP),
	}
}
