package postgres

import (
	"context"
	"embed"

	"github.com/kozaktomas/snapx/internal/database/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations automatically on startup
func (p *Pool) Migrate(ctx context.Context) ([]string, error) {
	return migrate.Apply(ctx, p.db, migrationsFS, "migrations", migrate.Postgres)
}

// MigrationsApplied returns the list of applied migrations
func (p *Pool) MigrationsApplied(ctx context.Context) ([]string, error) {
	return migrate.Applied(ctx, p.db, migrate.Postgres)
}
