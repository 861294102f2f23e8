package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// runIDKey is the context key for the batch run ID.
var runIDKey = contextKey{}

// WithRunID returns a new context with the given run ID stored.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunID extracts the run ID from the context.
// Returns an empty string if no run ID is set.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FromContext returns base annotated with the run ID carried by ctx, if any.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := RunID(ctx); id != "" {
		return base.With("run_id", id)
	}
	return base
}
