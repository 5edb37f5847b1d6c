package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/clearspace-io/tenantry/pkg/pg"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestClassifiers(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
		assert.True(t, pg.IsNotFoundError(fmt.Errorf("query user: %w", pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(nil))
		assert.False(t, pg.IsNotFoundError(errors.New("other")))
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsDuplicateKeyError(pgErr("23505")))
		assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", pgErr("23505"))))
		assert.False(t, pg.IsDuplicateKeyError(pgErr("23503")))
		assert.False(t, pg.IsDuplicateKeyError(nil))
	})

	t.Run("duplicate database", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsDuplicateDatabaseError(pgErr("42P04")))
		assert.False(t, pg.IsDuplicateDatabaseError(pgErr("23505")))
		assert.False(t, pg.IsDuplicateDatabaseError(errors.New("plain")))
	})

	t.Run("foreign key violation", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsForeignKeyViolationError(pgErr("23503")))
		assert.False(t, pg.IsForeignKeyViolationError(pgErr("42P04")))
		assert.False(t, pg.IsForeignKeyViolationError(nil))
	})
}
