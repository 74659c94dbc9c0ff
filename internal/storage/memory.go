package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
)

// MemoryStore is an in-memory ObjectStore for tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	publicURL string

	// Error injection
	PutError    error
	DeleteError error
	// FailKeys makes Put fail for the listed keys only
	FailKeys map[string]bool
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(publicURL string) *MemoryStore {
	if publicURL == "" {
		publicURL = "memory://objects"
	}
	return &MemoryStore{
		objects:   make(map[string]memoryObject),
		publicURL: publicURL,
	}
}

// Put stores a copy of the data.
func (s *MemoryStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.PutError != nil {
		return "", s.PutError
	}
	if s.FailKeys[key] {
		return "", errors.New("injected put failure for " + key)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return joinURL(s.publicURL, key), nil
}

// Delete removes an object.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if s.DeleteError != nil {
		return s.DeleteError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns the stored bytes and content type.
func (s *MemoryStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys returns all stored keys, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
