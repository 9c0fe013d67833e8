// Package logger provides structured logging for the service.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type Logger struct {
	*slog.Logger
}

// New returns a text logger in development and a JSON logger otherwise.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard is used by tests and by components built without a logger.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext attaches the chi request id, when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return &Logger{Logger: l.With(slog.String("request_id", reqID))}
	}
	return l
}

func (l *Logger) WithWorkflow(workflow, dealID string) *Logger {
	return &Logger{Logger: l.With(
		slog.String("workflow", workflow),
		slog.String("deal_id", dealID),
	)}
}

// CRMError logs a failed call to the CRM.
func (l *Logger) CRMError(method string, err error) {
	l.Error("crm_error",
		slog.String("method", method),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) HTTPError(method, path string, status int, err error) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
}
