package provision

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearspace-io/tenantry/pkg/pg"
)

// GooseMigrator applies an embedded goose migration set to a tenant pool.
type GooseMigrator struct {
	FS    fs.FS
	Dir   string
	Table string
	Log   *slog.Logger
}

// Up implements Migrator.
func (m GooseMigrator) Up(ctx context.Context, pool *pgxpool.Pool) error {
	log := m.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return pg.Migrate(ctx, pool, m.FS, m.Dir, m.Table, log)
}
