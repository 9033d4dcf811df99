// Package shared holds the helpers common to all API handlers: context
// keys, and JSON response/error writing.
package shared

import (
	"context"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/domain"
)

// contextKey is a private type for context keys defined in this package.
type contextKey string

const (
	// IdentityContextKey is the context key under which the auth
	// middleware stores the validated session identity.
	IdentityContextKey contextKey = "identity"

	// TraceIDContextKey is the context key for the per-request trace ID.
	TraceIDContextKey contextKey = "trace_id"
)

// SetTraceID attaches a new trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, uuid.New().String())
}

// GetTraceID extracts the trace ID from the context, or "" when unset.
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return id
	}
	return ""
}

// WithIdentity attaches a validated identity to the context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext extracts the validated identity from the context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	return identity, ok
}
