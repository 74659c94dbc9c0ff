package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/snapx/internal/database"
)

// encodeEmbeddings serializes face embeddings as [[e1, e2, ...], ...].
func encodeEmbeddings(faces [][]float32) (string, error) {
	if faces == nil {
		faces = [][]float32{}
	}
	data, err := json.Marshal(faces)
	if err != nil {
		return "", fmt.Errorf("marshal embeddings: %w", err)
	}
	return string(data), nil
}

func decodeEmbeddings(data string) ([][]float32, error) {
	faces := [][]float32{}
	if data == "" {
		return faces, nil
	}
	if err := json.Unmarshal([]byte(data), &faces); err != nil {
		return nil, fmt.Errorf("unmarshal embeddings: %w", err)
	}
	if faces == nil {
		faces = [][]float32{}
	}
	return faces, nil
}

// GetCollection retrieves a collection by ID, returns nil if not found
func (s *Store) GetCollection(ctx context.Context, id string) (*database.Collection, error) {
	var c database.Collection
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, cover_image_url, cover_object_key, owner_id, created_at
		FROM collections WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CoverImageURL, &c.CoverObjectKey, &c.OwnerID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &c, nil
}

// ListCollectionsByOwner returns the owner's collections, newest first
func (s *Store) ListCollectionsByOwner(ctx context.Context, ownerID string) ([]database.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, cover_image_url, cover_object_key, owner_id, created_at
		FROM collections
		WHERE owner_id = ?
		ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	result := []database.Collection{}
	for rows.Next() {
		var c database.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CoverImageURL, &c.CoverObjectKey, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return result, nil
}

// CreateCollection stores a new collection
func (s *Store) CreateCollection(ctx context.Context, c *database.Collection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, cover_image_url, cover_object_key, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Description, c.CoverImageURL, c.CoverObjectKey, c.OwnerID, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection and, through the foreign key, its images.
func (s *Store) DeleteCollection(ctx context.Context, id string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx, `SELECT object_key FROM images WHERE collection_id = ? AND object_key <> ''`, id)
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete collection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete collection: %w", err)
	}
	return keys, nil
}

// ListImages returns all images of a collection with embeddings, newest first
func (s *Store) ListImages(ctx context.Context, collectionID string) ([]database.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, image_url, object_key, content_type, width, height, embeddings_json, created_at
		FROM images
		WHERE collection_id = ?
		ORDER BY created_at DESC, id
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []database.Image{}
	for rows.Next() {
		var img database.Image
		var embJSON string
		if err := rows.Scan(&img.ID, &img.CollectionID, &img.URL, &img.ObjectKey, &img.ContentType,
			&img.Width, &img.Height, &embJSON, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		if img.FaceEmbeddings, err = decodeEmbeddings(embJSON); err != nil {
			return nil, fmt.Errorf("image %s: %w", img.ID, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

// CountImages returns the number of images in a collection
func (s *Store) CountImages(ctx context.Context, collectionID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE collection_id = ?`, collectionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// CountImagesByOwner counts the images of all of an owner's collections in one query
func (s *Store) CountImagesByOwner(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, COUNT(i.id)
		FROM collections c
		LEFT JOIN images i ON i.collection_id = c.id
		WHERE c.owner_id = ?
		GROUP BY c.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count images by owner: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan image count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image counts: %w", err)
	}
	return counts, nil
}

// CreateImage inserts the image row; embeddings travel in the same row so the write is atomic.
func (s *Store) CreateImage(ctx context.Context, img *database.Image) error {
	embJSON, err := encodeEmbeddings(img.FaceEmbeddings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO images (id, collection_id, image_url, object_key, content_type, width, height,
			face_count, embeddings_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, img.ID, img.CollectionID, img.URL, img.ObjectKey, img.ContentType, img.Width, img.Height,
		len(img.FaceEmbeddings), embJSON, img.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}
