package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/accesstoken"
	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
)

// ErrTokenNotFound is returned when no token matches the hash.
var ErrTokenNotFound = errors.New("access token not found")

// Tokens provides access-token storage on the bound tenant database.
// It implements accesstoken.Store.
type Tokens struct{}

// NewTokens creates the token store.
func NewTokens() *Tokens {
	return &Tokens{}
}

// Issue creates an access token for the user and returns the one-time
// plaintext credential. Only the secret's hash is written to the database.
func (t *Tokens) Issue(ctx context.Context, userID uuid.UUID, label string) (string, *accesstoken.Token, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return "", nil, tenantdb.ErrNoConnInContext
	}

	secret, err := accesstoken.NewSecret()
	if err != nil {
		return "", nil, fmt.Errorf("generate secret: %w", err)
	}

	token := &accesstoken.Token{
		ID:     uuid.New(),
		UserID: userID,
		Label:  label,
		Hash:   accesstoken.HashSecret(secret),
	}
	err = db.QueryRow(ctx,
		`INSERT INTO access_tokens (id, user_id, label, token_hash)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		token.ID, token.UserID, token.Label, token.Hash,
	).Scan(&token.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("insert token: %w", err)
	}

	return accesstoken.Plaintext(token.ID, secret), token, nil
}

// FindTokenByHash looks a token up by the hash of its secret, in the bound
// tenant database only.
func (t *Tokens) FindTokenByHash(ctx context.Context, hash string) (*accesstoken.Token, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	token := &accesstoken.Token{}
	err := db.QueryRow(ctx,
		`SELECT id, user_id, label, token_hash, created_at
		   FROM access_tokens WHERE token_hash = $1`,
		hash,
	).Scan(&token.ID, &token.UserID, &token.Label, &token.Hash, &token.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("select token: %w", err)
	}
	return token, nil
}

// FindUserByID loads the token owner's identity from the bound tenant
// database. Implements accesstoken.Store.
func (t *Tokens) FindUserByID(ctx context.Context, id uuid.UUID) (*accesstoken.Identity, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	identity := &accesstoken.Identity{}
	err := db.QueryRow(ctx,
		`SELECT id, email, role FROM users WHERE id = $1`,
		id,
	).Scan(&identity.UserID, &identity.Email, &identity.Role)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select token owner: %w", err)
	}
	return identity, nil
}

// Revoke deletes a token by ID. Used for logout of the current credential.
func (t *Tokens) Revoke(ctx context.Context, id uuid.UUID) error {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return tenantdb.ErrNoConnInContext
	}

	tag, err := db.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}
