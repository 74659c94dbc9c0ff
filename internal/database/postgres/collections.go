package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/snapx/internal/database"
)

const collectionColumns = `id, name, description, cover_image_url, cover_object_key, owner_id, created_at`

func scanCollection(row interface{ Scan(...any) error }) (*database.Collection, error) {
	var c database.Collection
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CoverImageURL, &c.CoverObjectKey, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCollection retrieves a collection by ID, returns nil if not found
func (s *Store) GetCollection(ctx context.Context, id string) (*database.Collection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := s.pool.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

// ListCollectionsByOwner returns the owner's collections, newest first
func (s *Store) ListCollectionsByOwner(ctx context.Context, ownerID string) ([]database.Collection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	result := []database.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return result, nil
}

// CreateCollection stores a new collection
func (s *Store) CreateCollection(ctx context.Context, c *database.Collection) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collections (id, name, description, cover_image_url, cover_object_key, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.Description, c.CoverImageURL, c.CoverObjectKey, c.OwnerID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection; images and faces go with it via ON DELETE CASCADE.
// Returns the object keys of the removed images.
func (s *Store) DeleteCollection(ctx context.Context, id string) ([]string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return []string{}, nil
	}

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx, `SELECT object_key FROM images WHERE collection_id = $1 AND object_key <> ''`, id)
	if err != nil {
		return nil, fmt.Errorf("list image objects: %w", err)
	}
	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate object keys: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete collection: %w", err)
	}
	return keys, nil
}
