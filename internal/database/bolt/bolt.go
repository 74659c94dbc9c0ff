// Package bolt is a single-file embedded backend for development and small deployments.
package bolt

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/database"
)

// schemaVersion is bumped on incompatible changes to the stored documents.
const schemaVersion = 1

var (
	bucketCollections = []byte("collections")
	bucketImages      = []byte("images") // holds one nested bucket per collection
	bucketMeta        = []byte("meta")
	keySchemaVersion  = []byte("schema_version")
)

func init() {
	database.RegisterBackend("bolt", func(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
		return NewStore(cfg.URL)
	})
}

// Store implements database.Store on a bbolt file.
type Store struct {
	db *bbolt.DB
}

var _ database.Store = (*Store)(nil)

type collectionDoc struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CoverImageURL  string    `json:"cover_image_url,omitempty"`
	CoverObjectKey string    `json:"cover_object_key,omitempty"`
	OwnerID        string    `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type imageDoc struct {
	ID             string      `json:"id"`
	CollectionID   string      `json:"collection_id"`
	URL            string      `json:"url"`
	ObjectKey      string      `json:"object_key,omitempty"`
	ContentType    string      `json:"content_type,omitempty"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	FaceEmbeddings [][]float32 `json:"face_embeddings"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewStore opens (or creates) the database file at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	s := &Store{db: db}
	if _, err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the top-level buckets and records the schema version.
// It reports the version as applied only when the file was created or upgraded.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	var applied []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCollections, bucketImages, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		current := 0
		if data := meta.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &current); err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			if current > schemaVersion {
				return fmt.Errorf("bolt db schema version %d is newer than supported %d", current, schemaVersion)
			}
		}
		if current == schemaVersion {
			return nil
		}
		data, err := json.Marshal(schemaVersion)
		if err != nil {
			return err
		}
		applied = append(applied, fmt.Sprintf("bolt_schema_v%d", schemaVersion))
		return meta.Put(keySchemaVersion, data)
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// Ping reports whether the database file is still open.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error { return nil })
}

// Close closes the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing bolt db: %w", err)
	}
	return nil
}

// GetCollection retrieves a collection by ID, returns nil if not found
func (s *Store) GetCollection(ctx context.Context, id string) (*database.Collection, error) {
	var c *database.Collection
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCollections).Get([]byte(id))
		if data == nil {
			return nil
		}
		var doc collectionDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode collection %s: %w", id, err)
		}
		c = doc.toCollection()
		return nil
	})
	return c, err
}

// ListCollectionsByOwner returns the owner's collections, newest first
func (s *Store) ListCollectionsByOwner(ctx context.Context, ownerID string) ([]database.Collection, error) {
	result := []database.Collection{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
			var doc collectionDoc
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("decode collection %s: %w", k, err)
			}
			if doc.OwnerID == ownerID {
				result = append(result, *doc.toCollection())
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(result, func(a, b database.Collection) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// CreateCollection stores a new collection
func (s *Store) CreateCollection(ctx context.Context, c *database.Collection) error {
	data, err := json.Marshal(collectionDoc{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		CoverImageURL:  c.CoverImageURL,
		CoverObjectKey: c.CoverObjectKey,
		OwnerID:        c.OwnerID,
		CreatedAt:      c.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections)
		if b.Get([]byte(c.ID)) != nil {
			return fmt.Errorf("collection %s already exists", c.ID)
		}
		return b.Put([]byte(c.ID), data)
	})
}

// DeleteCollection removes the collection and its image bucket in one transaction.
func (s *Store) DeleteCollection(ctx context.Context, id string) ([]string, error) {
	keys := []string{}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		images := tx.Bucket(bucketImages)
		if b := images.Bucket([]byte(id)); b != nil {
			err := b.ForEach(func(k, v []byte) error {
				var doc imageDoc
				if err := json.Unmarshal(v, &doc); err != nil {
					return fmt.Errorf("decode image %s: %w", k, err)
				}
				if doc.ObjectKey != "" {
					keys = append(keys, doc.ObjectKey)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := images.DeleteBucket([]byte(id)); err != nil {
				return fmt.Errorf("delete images of %s: %w", id, err)
			}
		}
		return tx.Bucket(bucketCollections).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListImages returns all images of a collection, newest first
func (s *Store) ListImages(ctx context.Context, collectionID string) ([]database.Image, error) {
	result := []database.Image{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketImages).Bucket([]byte(collectionID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var doc imageDoc
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("decode image %s: %w", k, err)
			}
			result = append(result, doc.toImage())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(result, func(a, b database.Image) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// CountImages returns the number of images in a collection
func (s *Store) CountImages(ctx context.Context, collectionID string) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketImages).Bucket([]byte(collectionID)); b != nil {
			count = b.Stats().KeyN
		}
		return nil
	})
	return count, err
}

// CountImagesByOwner counts the images of every collection owned by ownerID
// within one read transaction.
func (s *Store) CountImagesByOwner(ctx context.Context, ownerID string) (map[string]int, error) {
	counts := map[string]int{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		images := tx.Bucket(bucketImages)
		return tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
			var doc collectionDoc
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("decode collection %s: %w", k, err)
			}
			if doc.OwnerID != ownerID {
				return nil
			}
			n := 0
			if b := images.Bucket(k); b != nil {
				n = b.Stats().KeyN
			}
			counts[string(k)] = n
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// CreateImage stores one image document. The collection must exist.
func (s *Store) CreateImage(ctx context.Context, img *database.Image) error {
	faces := img.FaceEmbeddings
	if faces == nil {
		faces = [][]float32{}
	}
	data, err := json.Marshal(imageDoc{
		ID:             img.ID,
		CollectionID:   img.CollectionID,
		URL:            img.URL,
		ObjectKey:      img.ObjectKey,
		ContentType:    img.ContentType,
		Width:          img.Width,
		Height:         img.Height,
		FaceEmbeddings: faces,
		CreatedAt:      img.CreatedAt,
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketCollections).Get([]byte(img.CollectionID)) == nil {
			return fmt.Errorf("collection %s does not exist", img.CollectionID)
		}
		b, err := tx.Bucket(bucketImages).CreateBucketIfNotExists([]byte(img.CollectionID))
		if err != nil {
			return fmt.Errorf("create image bucket: %w", err)
		}
		return b.Put([]byte(img.ID), data)
	})
}

func (d *collectionDoc) toCollection() *database.Collection {
	return &database.Collection{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		CoverImageURL:  d.CoverImageURL,
		CoverObjectKey: d.CoverObjectKey,
		OwnerID:        d.OwnerID,
		CreatedAt:      d.CreatedAt,
	}
}

func (d *imageDoc) toImage() database.Image {
	faces := d.FaceEmbeddings
	if faces == nil {
		faces = [][]float32{}
	}
	return database.Image{
		ID:             d.ID,
		CollectionID:   d.CollectionID,
		URL:            d.URL,
		ObjectKey:      d.ObjectKey,
		ContentType:    d.ContentType,
		Width:          d.Width,
		Height:         d.Height,
		FaceEmbeddings: faces,
		CreatedAt:      d.CreatedAt,
	}
}
