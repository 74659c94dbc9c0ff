package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/extractor"
	"github.com/kozaktomas/snapx/internal/gallery"
	"github.com/kozaktomas/snapx/internal/storage"

	// Store backends register themselves with the database package.
	_ "github.com/kozaktomas/snapx/internal/database/bolt"
	_ "github.com/kozaktomas/snapx/internal/database/mariadb"
	_ "github.com/kozaktomas/snapx/internal/database/postgres"
)

// backends holds the store, object storage and service built from config.
type backends struct {
	store   database.Store
	objects storage.ObjectStore
	service *gallery.Service
}

// openBackends connects the configured store and object storage and builds
// the gallery service on top of them. The caller must call Close.
func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	objects, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening object storage: %w", err)
	}

	svc := gallery.NewService(store, objects, gallery.Config{
		Dimension: cfg.Match.Dimension,
		Threshold: cfg.Match.Threshold,
		MaxFiles:  cfg.Ingest.MaxFiles,
		Workers:   cfg.Ingest.Workers,
	}, log)
	if cfg.Ingest.ServerExtraction && cfg.Extractor.URL != "" {
		svc.WithExtractor(extractor.NewClient(cfg.Extractor.URL))
		log.Info("server-side face extraction enabled", zap.String("extractor_url", cfg.Extractor.URL))
	}

	return &backends{store: store, objects: objects, service: svc}, nil
}

// Close releases the store connection.
func (b *backends) Close() error {
	return b.store.Close()
}
