// Package announce implements the tenant-scoped announcements surface of
// the admin panel: CRUD with a draft/published/archived status, where only
// the author or a tenant admin may modify an announcement.
package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/pg"
	"github.com/clearspace-io/tenantry/pkg/tenantdb"
)

// Status of an announcement.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when no announcement matches the ID.
	ErrNotFound = errors.New("announcement not found")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid announcement status")
)

// Announcement lives inside one tenant's database.
type Announcement struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists announcements on the bound tenant database.
type Store struct{}

// NewStore creates the announcement store.
func NewStore() *Store {
	return &Store{}
}

// CreateParams describes a new announcement.
type CreateParams struct {
	UserID  uuid.UUID
	Title   string
	Content string
	Status  Status
}

// UpdateParams describes an announcement update.
type UpdateParams struct {
	Title   string
	Content string
	Status  Status
}

// Create inserts an announcement authored by the given user.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Announcement, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}
	if !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	a := &Announcement{
		ID:      uuid.New(),
		UserID:  p.UserID,
		Title:   p.Title,
		Content: p.Content,
		Status:  p.Status,
	}
	err := db.QueryRow(ctx,
		`INSERT INTO announcements (id, user_id, title, content, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.Content, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	return a, nil
}

// Get loads an announcement by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Announcement, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}

	a := &Announcement{}
	err := db.QueryRow(ctx,
		`SELECT id, user_id, title, content, status, created_at, updated_at
		   FROM announcements WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.Title, &a.Content, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select announcement: %w", err)
	}
	return a, nil
}

// List returns announcements, optionally filtered by status and/or author.
func (s *Store) List(ctx context.Context, status Status, userID uuid.UUID) ([]*Announcement, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	rows, err := db.Query(ctx,
		`SELECT id, user_id, title, content, status, created_at, updated_at
		   FROM announcements
		  WHERE ($1 = '' OR status = $1)
		    AND ($2::uuid IS NULL OR user_id = $2)
		  ORDER BY created_at DESC`,
		string(status), nullableUUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("select announcements: %w", err)
	}
	defer rows.Close()

	var list []*Announcement
	for rows.Next() {
		a := &Announcement{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Content, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Update rewrites an announcement's title, content, and status.
func (s *Store) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Announcement, error) {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return nil, tenantdb.ErrNoConnInContext
	}
	if !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	a := &Announcement{ID: id, Title: p.Title, Content: p.Content, Status: p.Status}
	err := db.QueryRow(ctx,
		`UPDATE announcements
		    SET title = $2, content = $3, status = $4, updated_at = now()
		  WHERE id = $1
		  RETURNING user_id, created_at, updated_at`,
		id, p.Title, p.Content, p.Status,
	).Scan(&a.UserID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return a, nil
}

// Delete removes an announcement.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	db, ok := tenantdb.Conn(ctx)
	if !ok {
		return tenantdb.ErrNoConnInContext
	}

	tag, err := db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// nullableUUID maps the zero UUID to NULL for optional filter parameters.
func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
