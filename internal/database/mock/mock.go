// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kozaktomas/snapx/internal/database"
)

// MockStore is an in-memory implementation of database.Store
type MockStore struct {
	mu          sync.RWMutex
	collections map[string]*database.Collection
	images      map[string][]database.Image // keyed by CollectionID

	// Error injection
	GetCollectionError   error
	ListCollectionsError error
	CreateCollectionErr  error
	DeleteCollectionErr  error
	ListImagesError      error
	CountImagesError     error
	CreateImageError     error
	// CreateImageErrorFor fails CreateImage only for images whose ObjectKey is listed
	CreateImageErrorFor map[string]error
	PingError           error

	// Call tracking
	CreateImageCalls int
	CountImagesCalls int
	Migrated         bool
	Closed           bool
}

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		collections: make(map[string]*database.Collection),
		images:      make(map[string][]database.Image),
	}
}

var _ database.Store = (*MockStore)(nil)

// AddCollection adds a collection to the mock store
func (m *MockStore) AddCollection(c database.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[c.ID] = &c
}

// AddImage adds an image to the mock store without going through CreateImage
func (m *MockStore) AddImage(img database.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[img.CollectionID] = append(m.images[img.CollectionID], copyImage(img))
}

// GetCollection retrieves a collection by ID
func (m *MockStore) GetCollection(ctx context.Context, id string) (*database.Collection, error) {
	if m.GetCollectionError != nil {
		return nil, m.GetCollectionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

// ListCollectionsByOwner returns the owner's collections, newest first
func (m *MockStore) ListCollectionsByOwner(ctx context.Context, ownerID string) ([]database.Collection, error) {
	if m.ListCollectionsError != nil {
		return nil, m.ListCollectionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []database.Collection{}
	for _, c := range m.collections {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	slices.SortFunc(result, func(a, b database.Collection) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// CreateCollection stores a collection
func (m *MockStore) CreateCollection(ctx context.Context, c *database.Collection) error {
	if m.CreateCollectionErr != nil {
		return m.CreateCollectionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[c.ID]; exists {
		return fmt.Errorf("collection %s already exists", c.ID)
	}
	stored := *c
	m.collections[c.ID] = &stored
	return nil
}

// DeleteCollection removes a collection and its images
func (m *MockStore) DeleteCollection(ctx context.Context, id string) ([]string, error) {
	if m.DeleteCollectionErr != nil {
		return nil, m.DeleteCollectionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for _, img := range m.images[id] {
		if img.ObjectKey != "" {
			keys = append(keys, img.ObjectKey)
		}
	}
	delete(m.images, id)
	delete(m.collections, id)
	return keys, nil
}

// ListImages returns images of a collection, newest first
func (m *MockStore) ListImages(ctx context.Context, collectionID string) ([]database.Image, error) {
	if m.ListImagesError != nil {
		return nil, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]database.Image, 0, len(m.images[collectionID]))
	for _, img := range m.images[collectionID] {
		result = append(result, copyImage(img))
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
func (m *MockStore) CountImages(ctx context.Context, collectionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CountImagesCalls++
	if m.CountImagesError != nil {
		return 0, m.CountImagesError
	}
	return len(m.images[collectionID]), nil
}

// CountImagesByOwner returns image counts for the owner's collections
func (m *MockStore) CountImagesByOwner(ctx context.Context, ownerID string) (map[string]int, error) {
	if m.CountImagesError != nil {
		return nil, m.CountImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[string]int{}
	for id, c := range m.collections {
		if c.OwnerID == ownerID {
			counts[id] = len(m.images[id])
		}
	}
	return counts, nil
}

// CreateImage stores an image with its embeddings
func (m *MockStore) CreateImage(ctx context.Context, img *database.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateImageCalls++

	if m.CreateImageError != nil {
		return m.CreateImageError
	}
	if err, ok := m.CreateImageErrorFor[img.ObjectKey]; ok {
		return err
	}
	if _, ok := m.collections[img.CollectionID]; !ok {
		return fmt.Errorf("collection %s does not exist", img.CollectionID)
	}
	m.images[img.CollectionID] = append(m.images[img.CollectionID], copyImage(*img))
	return nil
}

// Migrate records that migrations were requested
func (m *MockStore) Migrate(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Migrated = true
	return nil, nil
}

// Ping returns PingError
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingError
}

// Close records that the store was closed
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// ImageCount returns the total number of stored images across all collections
func (m *MockStore) ImageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, imgs := range m.images {
		n += len(imgs)
	}
	return n
}

func copyImage(img database.Image) database.Image {
	out := img
	out.FaceEmbeddings = make([][]float32, len(img.FaceEmbeddings))
	for i, e := range img.FaceEmbeddings {
		out.FaceEmbeddings[i] = slices.Clone(e)
	}
	return out
}
