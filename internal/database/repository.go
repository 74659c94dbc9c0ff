package database

import (
	"context"
)

// CollectionReader provides read-only access to collections
type CollectionReader interface {
	// GetCollection retrieves a collection by ID, returns nil if not found
	GetCollection(ctx context.Context, id string) (*Collection, error)
	// ListCollectionsByOwner returns the owner's collections, newest first
	ListCollectionsByOwner(ctx context.Context, ownerID string) ([]Collection, error)
}

// CollectionWriter provides write access to collections
type CollectionWriter interface {
	CollectionReader

	// CreateCollection stores a new collection. ID and CreatedAt must be set by the caller.
	CreateCollection(ctx context.Context, c *Collection) error

	// DeleteCollection removes a collection and every image in it.
	// Returns the object keys of the deleted images so stored bytes can be cleaned up.
	DeleteCollection(ctx context.Context, id string) ([]string, error)
}

// ImageReader provides read-only access to images and their face embeddings
type ImageReader interface {
	// ListImages returns all images of a collection with their embeddings, newest first.
	// An unknown collection yields an empty slice.
	ListImages(ctx context.Context, collectionID string) ([]Image, error)
	// CountImages returns the number of images in a collection
	CountImages(ctx context.Context, collectionID string) (int, error)
	// CountImagesByOwner returns image counts keyed by collection ID for every
	// collection owned by ownerID, in a single read. Empty collections may be absent.
	CountImagesByOwner(ctx context.Context, ownerID string) (map[string]int, error)
}

// ImageWriter provides write access to images
type ImageWriter interface {
	ImageReader

	// CreateImage stores an image and all of its face embeddings atomically.
	// The image is visible to readers once CreateImage returns.
	CreateImage(ctx context.Context, img *Image) error
}

// Store is the full persistence surface used by the gallery service.
type Store interface {
	CollectionWriter
	ImageWriter

	// Migrate brings the schema up to date and returns the versions it applied
	Migrate(ctx context.Context) ([]string, error)
	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error
	// Close releases the backend's resources
	Close() error
}
