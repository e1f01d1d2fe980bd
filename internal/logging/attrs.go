package logging

import (
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// Args converts attrs to the variadic any form slog methods expect.
func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

// Standardized structured logging keys.
const (
	// FieldComponent names the pipeline component emitting the record.
	FieldComponent = "component"
	// FieldSessionID carries the monitoring session identifier.
	FieldSessionID = "session_id"
	// FieldSource names the signal source (face, screen, classifier, remote).
	FieldSource = "source"
	// FieldScore carries an attention score value.
	FieldScore = "score"
	// FieldConfidence carries a confidence value.
	FieldConfidence = "confidence"
	// FieldLevel carries the current processing level.
	FieldLevel = "processing_level"
)

// WithComponent returns a logger tagged with the component field.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}
