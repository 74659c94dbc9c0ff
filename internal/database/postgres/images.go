package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/pgvector/pgvector-go"
)

// ListImages returns all images of a collection with their face embeddings, newest first.
// Embeddings are loaded with a second query and attached in Go.
func (s *Store) ListImages(ctx context.Context, collectionID string) ([]database.Image, error) {
	if _, err := uuid.Parse(collectionID); err != nil {
		return []database.Image{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, collection_id, image_url, object_key, content_type, width, height, created_at
		FROM images
		WHERE collection_id = $1
		ORDER BY created_at DESC, id
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []database.Image{}
	index := make(map[string]int)
	for rows.Next() {
		var img database.Image
		if err := rows.Scan(&img.ID, &img.CollectionID, &img.URL, &img.ObjectKey, &img.ContentType,
			&img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.FaceEmbeddings = [][]float32{}
		index[img.ID] = len(images)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	if len(images) == 0 {
		return images, nil
	}

	faceRows, err := s.pool.Query(ctx, `
		SELECT f.image_id, f.embedding
		FROM image_faces f
		JOIN images i ON i.id = f.image_id
		WHERE i.collection_id = $1
		ORDER BY f.image_id, f.face_index
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer faceRows.Close()

	for faceRows.Next() {
		var imageID string
		var vec pgvector.Vector
		if err := faceRows.Scan(&imageID, &vec); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		// Images inserted after the first query are ignored.
		if i, ok := index[imageID]; ok {
			images[i].FaceEmbeddings = append(images[i].FaceEmbeddings, vec.Slice())
		}
	}
	if err := faceRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}

	return images, nil
}

// CountImages returns the number of images in a collection
func (s *Store) CountImages(ctx context.Context, collectionID string) (int, error) {
	if _, err := uuid.Parse(collectionID); err != nil {
		return 0, nil
	}
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM images WHERE collection_id = $1", collectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// CountImagesByOwner counts the images of all of an owner's collections in one query
func (s *Store) CountImagesByOwner(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, COUNT(i.id)
		FROM collections c
		LEFT JOIN images i ON i.collection_id = c.id
		WHERE c.owner_id = $1
		GROUP BY c.id
	`, ownerID)
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

// CreateImage inserts an image and its faces in one transaction.
func (s *Store) CreateImage(ctx context.Context, img *database.Image) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO images (id, collection_id, image_url, object_key, content_type, width, height, face_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, img.ID, img.CollectionID, img.URL, img.ObjectKey, img.ContentType, img.Width, img.Height,
		len(img.FaceEmbeddings), img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	if len(img.FaceEmbeddings) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO image_faces (image_id, face_index, embedding) VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("prepare face insert: %w", err)
		}
		defer stmt.Close()

		for i, emb := range img.FaceEmbeddings {
			if _, err := stmt.ExecContext(ctx, img.ID, i, pgvector.NewVector(emb)); err != nil {
				return fmt.Errorf("insert face %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit image: %w", err)
	}
	return nil
}
