// Package gallery implements collections, image ingestion and face search on
// top of the store, the object storage and the match engine.
package gallery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/facematch"
	"github.com/kozaktomas/snapx/internal/metrics"
	"github.com/kozaktomas/snapx/internal/storage"
)

// Extractor computes face embeddings for an image on the server.
type Extractor interface {
	ExtractFaces(ctx context.Context, imageData []byte, contentType string) ([][]float32, error)
}

// Config holds the tunables of the service.
type Config struct {
	Dimension int     // embedding length, enforced on queries and uploads
	Threshold float64 // match threshold
	MaxFiles  int     // files per ingest call
	Workers   int     // concurrent per-file workers during ingest
}

// Service is the application core shared by the HTTP handlers and the CLI.
type Service struct {
	store     database.Store
	objects   storage.ObjectStore
	matcher   facematch.Matcher
	extractor Extractor
	metrics   *metrics.Metrics
	log       *zap.Logger
	cfg       Config

	now   func() time.Time
	newID func() string
}

// NewService creates a service using the linear-scan match engine over store.
func NewService(store database.Store, objects storage.ObjectStore, cfg Config, log *zap.Logger) *Service {
	if cfg.Dimension <= 0 {
		cfg.Dimension = constants.DefaultEmbeddingDim
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = constants.DefaultMatchThreshold
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = constants.DefaultMaxFilesPerUpload
	}
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultIngestWorkers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		objects: objects,
		matcher: facematch.NewEngine(store, cfg.Dimension, cfg.Threshold),
		log:     log,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// WithExtractor enables server-side embedding extraction. Client-submitted
// embeddings are ignored while an extractor is set.
func (s *Service) WithExtractor(e Extractor) *Service {
	s.extractor = e
	return s
}

// WithMatcher replaces the match engine.
func (s *Service) WithMatcher(m facematch.Matcher) *Service {
	s.matcher = m
	return s
}

// WithMetrics makes the service record match and ingestion counters.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// validID reports whether id has the shape of a collection identifier.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
