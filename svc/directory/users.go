// Package directory stores tenant-scoped users and access tokens.
//
// The stores hold no database handle of their own: every query runs on the
// pool bound into the request context by tenantdb. A user or token row can
// therefore only ever be read from the database of the tenant the current
// request was resolved for — there is no tenant-ID column to check and no
// way to address another tenant's rows.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
)

// Roles a tenant-scoped user can hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the email is already registered inside
	// this tenant's database.
	ErrEmailTaken = errors.New("email already taken")
)

// User lives entirely inside one tenant's database and has no cross-tenant
// identity.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Users provides user storage on the bound tenant database.
type Users struct{}

// NewUsers creates the user store.
func NewUsers() *Users {
	return &Users{}
}

// CreateUserParams describes a user to insert.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// Create inserts a user. Email uniqueness is per tenant database.
func (u *Users) Create(ctx context.Context, p CreateUserParams) (*User, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	user := &User{
		ID:           uuid.New(),
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		PasswordHash: p.PasswordHash,
	}
	err := db.QueryRow(ctx,
		`INSERT INTO users (id, name, email, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, p.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByID loads a user by ID.
func (u *Users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return u.get(ctx, `WHERE id = $1`, id)
}

// GetByEmail loads a user by email.
func (u *Users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return u.get(ctx, `WHERE email = $1`, email)
}

// List returns all users in the bound tenant database.
func (u *Users) List(ctx context.Context) ([]*User, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	rows, err := db.Query(ctx,
		`SELECT id, name, email, role, password_hash, created_at
		   FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Delete removes a user. Their tokens go with them via cascade.
func (u *Users) Delete(ctx context.Context, id uuid.UUID) error {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return tenantdb.ErrNoConnInContext
	}

	tag, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *Users) get(ctx context.Context, where string, arg any) (*User, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	user := &User{}
	err := db.QueryRow(ctx,
		`SELECT id, name, email, role, password_hash, created_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}
