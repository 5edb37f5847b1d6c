package accesstoken

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Store looks tokens and their owners up in the currently bound tenant
// database. Implementations read the database handle from the request
// context (see tenantdb.Conn), never from a field — that is what pins every
// lookup to the tenant the request was resolved and bound for.
type Store interface {
	// FindTokenByHash returns the token whose stored hash equals hash.
	FindTokenByHash(ctx context.Context, hash string) (*Token, error)

	// FindUserByID returns the identity of the token's owning user.
	FindUserByID(ctx context.Context, id uuid.UUID) (*Identity, error)
}

// Middleware authenticates requests with a bearer access token looked up in
// the bound tenant database. It must be mounted after tenantdb.Middleware.
//
// Every failure path — absent or malformed header, unknown hash, orphaned
// token, storage error — produces the same generic 401 response. Nothing
// about the failure mode is revealed, and no error can bypass the check.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, store)
			if err != nil {
				unauthenticated(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func authenticate(r *http.Request, store Store) (*Identity, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, ErrUnauthenticated
	}

	_, secret, err := ParseCredential(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	token, err := store.FindTokenByHash(r.Context(), HashSecret(secret))
	if err != nil || token == nil {
		return nil, ErrUnauthenticated
	}

	// An orphaned token (owner row deleted) is an authentication failure,
	// not an internal error.
	identity, err := store.FindUserByID(r.Context(), token.UserID)
	if err != nil || identity == nil {
		return nil, ErrUnauthenticated
	}

	identity.TokenID = token.ID
	return identity, nil
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// RequireRole guards a sub-router so only identities with the given role pass.
// Must be mounted behind Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || id == nil {
				unauthenticated(w)
				return
			}
			if id.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthenticated(w http.ResponseWriter) {
	http.Error(w, "Unauthenticated", http.StatusUnauthorized)
}
