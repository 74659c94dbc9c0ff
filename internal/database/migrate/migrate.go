// Package migrate applies embedded SQL migration files to database/sql backends.
// Applied versions are tracked in a schema_migrations table.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Dialect describes the SQL differences between supported backends.
type Dialect struct {
	// CreateTable creates the schema_migrations table if it does not exist
	CreateTable string
	// Insert records an applied version, with a single bind parameter
	Insert string
}

// Postgres is the dialect for PostgreSQL.
var Postgres = Dialect{
	CreateTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	Insert: "INSERT INTO schema_migrations (version) VALUES ($1)",
}

// MySQL is the dialect for MariaDB and MySQL.
var MySQL = Dialect{
	CreateTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	Insert: "INSERT INTO schema_migrations (version) VALUES (?)",
}

// Apply runs every .sql file in dir of fsys that has not been applied yet,
// in filename order, each in its own transaction. It returns the applied file names.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, d Dialect) ([]string, error) {
	applied, err := appliedSet(ctx, db, d)
	if err != nil {
		return nil, err
	}

	files, err := pending(fsys, dir, applied)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, file := range files {
		content, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", file, err)
		}

		if err := applyOne(ctx, db, d, file, string(content)); err != nil {
			return done, err
		}

		done = append(done, file)
	}
	return done, nil
}

func applyOne(ctx context.Context, db *sql.DB, d Dialect, file, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, content); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute migration %s: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, d.Insert, file); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

// Applied returns the applied migration versions, sorted.
func Applied(ctx context.Context, db *sql.DB, d Dialect) ([]string, error) {
	set, err := appliedSet(ctx, db, d)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(set))
	for v := range set {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

func appliedSet(ctx context.Context, db *sql.DB, d Dialect) (map[string]bool, error) {
	if _, err := db.ExecContext(ctx, d.CreateTable); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// pending returns sorted SQL migration filenames not yet applied.
func pending(fsys fs.FS, dir string, applied map[string]bool) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") && !applied[e.Name()] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
