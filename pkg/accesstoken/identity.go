package accesstoken

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Identity is the authenticated caller for the current request scope. It is
// built from rows in the bound tenant database and is never persisted or
// shared across requests.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	Role    string
	TokenID uuid.UUID
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithIdentity adds the authenticated identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}

// MustIdentity retrieves the identity and panics if the request was not
// authenticated. Use only in handlers mounted strictly behind Middleware.
func MustIdentity(ctx context.Context) *Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok || id == nil {
		panic("accesstoken: no identity in context")
	}
	return id
}

// LoggerExtractor returns a logger context extractor that records the
// authenticated user ID on log lines.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IdentityFromContext(ctx); ok && id != nil {
			return slog.String("user_id", id.UserID.String()), true
		}
		return slog.Attr{}, false
	}
}
