// Package storage persists uploaded image bytes and returns the URL they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kozaktomas/snapx/internal/config"
)

// ErrInvalidKey is returned for object keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStore stores opaque blobs under slash-separated keys.
type ObjectStore interface {
	// Put writes r under key and returns the public URL of the object.
	// size may be -1 when unknown.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// New creates the object store selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "minio", "s3":
		return NewMinioStore(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalRoot, cfg.PublicURL)
	case "memory":
		return NewMemoryStore(cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey validates key and returns it in canonical form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// joinURL appends key to a base URL.
func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
