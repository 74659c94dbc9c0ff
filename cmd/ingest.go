package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/gallery"
	"github.com/kozaktomas/snapx/internal/logger"
)

const defaultIngestPattern = "**/*.{jpg,jpeg,JPG,JPEG,png,PNG,webp,WEBP,gif,GIF}"

var ingestCmd = &cobra.Command{
	Use:   "ingest <collection-id> <dir>",
	Short: "Bulk upload photos from a directory into a collection",
	Long: `Upload every image under a directory into a collection, bypassing HTTP.

Face embeddings are read from an optional YAML manifest that maps file paths
(relative to the directory) to lists of face vectors:

  ceremony/IMG_0001.jpg:
    - [0.012, -0.094, ...]
    - [0.101, 0.033, ...]
  party/IMG_0100.jpg: []

Images missing from the manifest are stored without faces.

Example:
  snapx ingest 0b7e3a52-3f0c-4f43-9d0a-6a1f2f1b9c11 ./wedding --owner organizer-42 --manifest faces.yaml
  snapx ingest 0b7e3a52-3f0c-4f43-9d0a-6a1f2f1b9c11 ./wedding --owner organizer-42 --pattern 'day1/**/*.jpg'`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("owner", "", "Principal ID of the collection owner (required)")
	ingestCmd.Flags().String("manifest", "", "YAML file mapping relative paths to face embeddings")
	ingestCmd.Flags().String("pattern", defaultIngestPattern, "Doublestar glob selecting files under <dir>")
	ingestCmd.Flags().Int("batch", 0, "Files per ingest call (default MAX_FILES_PER_UPLOAD)")
	ingestCmd.Flags().Int("concurrency", 2, "Batches uploaded in parallel")
}

// Manifest maps file paths relative to the ingest directory to face embeddings.
type Manifest map[string][][]float64

// loadManifest reads a YAML manifest. An empty path yields an empty manifest.
func loadManifest(path string) (Manifest, error) {
	if path == "" {
		return Manifest{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	normalized := make(Manifest, len(m))
	for k, v := range m {
		normalized[filepath.ToSlash(filepath.Clean(k))] = v
	}
	return normalized, nil
}

// findImages returns the files under dir matching pattern, relative to dir and sorted.
func findImages(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// embeddingsJSON encodes the manifest entries for files in upload order.
func (m Manifest) embeddingsJSON(files []string) (string, error) {
	sets := make([][][]float64, len(files))
	for i, f := range files {
		sets[i] = m[f]
		if sets[i] == nil {
			sets[i] = [][]float64{}
		}
	}
	data, err := json.Marshal(sets)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// chunk splits files into consecutive batches of at most size entries.
func chunk(files []string, size int) [][]string {
	var batches [][]string
	for size < len(files) {
		files, batches = files[size:], append(batches, files[:size:size])
	}
	if len(files) > 0 {
		batches = append(batches, files)
	}
	return batches
}

type ingestStats struct {
	mu       sync.Mutex
	created  int
	failures []string
}

func (s *ingestStats) record(res *gallery.IngestResult, batch []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res == nil {
		for _, f := range batch {
			s.failures = append(s.failures, fmt.Sprintf("%s: %v", f, err))
		}
		return
	}
	s.created += len(res.Images)
	for _, f := range res.Failures {
		s.failures = append(s.failures, fmt.Sprintf("%s: %v", batch[f.Index], f.Err))
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	collectionID, dir := args[0], args[1]
	owner := mustGetString(cmd, "owner")
	if owner == "" {
		return errors.New("--owner is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	manifest, err := loadManifest(mustGetString(cmd, "manifest"))
	if err != nil {
		return err
	}
	files, err := findImages(dir, mustGetString(cmd, "pattern"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No images found")
		return nil
	}

	cfg := config.Load()
	log, err := logger.New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	batchSize := mustGetInt(cmd, "batch")
	if batchSize <= 0 || batchSize > b.service.Config().MaxFiles {
		batchSize = b.service.Config().MaxFiles
	}
	concurrency := max(1, mustGetInt(cmd, "concurrency"))

	fmt.Printf("Found %d images, uploading in batches of %d\n\n", len(files), batchSize)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	principal := gallery.Principal{ID: owner}
	stats := &ingestStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, batch := range chunk(files, batchSize) {
		g.Go(func() error {
			defer bar.Add(len(batch))

			embeddings, err := manifest.embeddingsJSON(batch)
			if err != nil {
				return err
			}
			uploads := make([]gallery.Upload, 0, len(batch))
			for _, rel := range batch {
				up, err := gallery.FileUpload(filepath.Join(dir, filepath.FromSlash(rel)))
				if err != nil {
					return err
				}
				uploads = append(uploads, up)
			}

			res, err := b.service.Ingest(gctx, principal, collectionID, uploads, embeddings)
			stats.record(res, batch, err)
			if res == nil && err != nil {
				// Rejected up front: the same will happen for every batch.
				return err
			}
			return nil
		})
	}
	waitErr := g.Wait()
	fmt.Println()

	fmt.Printf("\nCompleted: %d created, %d failed\n", stats.created, len(stats.failures))
	for _, f := range stats.failures {
		fmt.Printf("  - %s\n", f)
	}
	return waitErr
}
