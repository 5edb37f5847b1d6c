// Package notes implements the notes application surface: token-based
// register/login/logout and note CRUD scoped to the authenticated user,
// all inside the resolved tenant's database.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
)

// ErrNotFound is returned when no note matches the ID for this user.
// A note owned by someone else reads as not found, not forbidden.
var ErrNotFound = errors.New("note not found")

// Note belongs to one user inside one tenant's database.
type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists notes on the bound tenant database. Every operation is
// keyed by both note ID and owner, so users can only ever touch their own
// notes.
type Store struct{}

// NewStore creates the note store.
func NewStore() *Store {
	return &Store{}
}

// Create inserts a note owned by the given user.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, title, content string) (*Note, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	n := &Note{ID: uuid.New(), UserID: userID, Title: title, Content: content}
	err := db.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, content)
		 VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		n.ID, n.UserID, n.Title, n.Content,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// Get loads one of the user's notes.
func (s *Store) Get(ctx context.Context, userID, id uuid.UUID) (*Note, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	n := &Note{}
	err := db.QueryRow(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		   FROM notes WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select note: %w", err)
	}
	return n, nil
}

// List returns all of the user's notes, newest first.
func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]*Note, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	rows, err := db.Query(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		   FROM notes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer rows.Close()

	var list []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// Update rewrites one of the user's notes.
func (s *Store) Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*Note, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	n := &Note{ID: id, UserID: userID, Title: title, Content: content}
	err := db.QueryRow(ctx,
		`UPDATE notes SET title = $3, content = $4, updated_at = now()
		  WHERE id = $1 AND user_id = $2
		  RETURNING created_at, updated_at`,
		id, userID, title, content,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// Delete removes one of the user's notes.
func (s *Store) Delete(ctx context.Context, userID, id uuid.UUID) error {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return tenantdb.ErrNoConnInContext
	}

	tag, err := db.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
