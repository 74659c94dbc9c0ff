package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/facematch"
	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// IngestFailure describes one file that could not be stored.
type IngestFailure struct {
	Index    int
	Filename string
	Err      error
}

// IngestResult lists the images created by an ingest call, in input order,
// and the files that failed.
type IngestResult struct {
	Images   []database.Image
	Failures []IngestFailure
}

// Ingest stores files as new images of a collection owned by p.
//
// AuthorizeIngest checks that the collection exists and p owns it, so
// transports can reject an upload before reading its body. Ingest repeats
// the check.
func (s *Service) AuthorizeIngest(ctx context.Context, p Principal, collectionID string) error {
	if _, err := s.ownedCollection(ctx, p, collectionID); err != nil {
		s.countBatch("rejected")
		return err
	}
	return nil
}

// embeddingsJSON holds one entry per file, each a list of face vectors, and is
// parsed tolerantly: a missing or malformed entry stores that image without
// faces. Files are processed independently. The call fails only when the
// request is rejected up front or no image at all could be created; otherwise
// failed files are listed in the result next to the created images.
func (s *Service) Ingest(ctx context.Context, p Principal, collectionID string, files []Upload, embeddingsJSON string) (*IngestResult, error) {
	c, err := s.ownedCollection(ctx, p, collectionID)
	if err != nil {
		s.countBatch("rejected")
		return nil, err
	}

	if len(files) == 0 {
		s.countBatch("rejected")
		return nil, snaperrors.NewInvalidInputError("images", "no images uploaded")
	}
	if len(files) > s.cfg.MaxFiles {
		s.countBatch("rejected")
		return nil, snaperrors.NewInvalidInputError("images",
			fmt.Sprintf("at most %d images per upload", s.cfg.MaxFiles))
	}

	var sets [][]facematch.Embedding
	if s.extractor == nil {
		sets = facematch.ParseEmbeddingSets(embeddingsJSON, len(files), s.cfg.Dimension)
	}

	created := make([]*database.Image, len(files))
	failed := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range files {
		g.Go(func() error {
			var faces []facematch.Embedding
			if sets != nil {
				faces = sets[i]
			}
			img, err := s.ingestOne(gctx, c, files[i], faces)
			if err != nil {
				failed[i] = err
				return nil
			}
			created[i] = img
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are collected per file

	result := &IngestResult{Images: []database.Image{}, Failures: []IngestFailure{}}
	for i := range files {
		if created[i] != nil {
			result.Images = append(result.Images, *created[i])
			continue
		}
		result.Failures = append(result.Failures, IngestFailure{Index: i, Filename: files[i].Filename, Err: failed[i]})
		s.log.Warn("image ingestion failed",
			zap.String("collection_id", c.ID),
			zap.Int("index", i),
			zap.String("filename", files[i].Filename),
			zap.Error(failed[i]))
	}

	s.countImages(len(result.Images), len(result.Failures))
	s.log.Info("images ingested",
		zap.String("collection_id", c.ID),
		zap.Int("created", len(result.Images)),
		zap.Int("failed", len(result.Failures)))

	if len(result.Images) == 0 {
		s.countBatch("failed")
		return result, batchError(result.Failures)
	}
	if len(result.Failures) > 0 {
		s.countBatch("partial")
	} else {
		s.countBatch("ok")
	}
	return result, nil
}

// batchError summarizes a batch in which nothing was created. It is an input
// error only when every file was rejected as invalid.
func batchError(failures []IngestFailure) error {
	errs := make([]error, 0, len(failures))
	allInvalid := true
	for _, f := range failures {
		errs = append(errs, f.Err)
		if !errors.Is(f.Err, snaperrors.ErrInvalidInput) {
			allInvalid = false
		}
	}
	if allInvalid {
		return snaperrors.NewInvalidInputError("images", "none of the uploaded files is a supported image")
	}
	return snaperrors.NewUpstreamError("ingest images", errors.Join(errs...))
}

// ingestOne stores one file and creates its image record.
func (s *Service) ingestOne(ctx context.Context, c *database.Collection, up Upload, faces []facematch.Embedding) (*database.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, snaperrors.NewUpstreamError("ingest cancelled", err)
	}

	info, err := s.probeUpload(up)
	if err != nil {
		return nil, err
	}

	r, err := up.Open()
	if err != nil {
		return nil, snaperrors.NewUpstreamError("open upload", err)
	}
	defer r.Close()

	var body io.Reader = r
	if s.extractor != nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, snaperrors.NewUpstreamError("read upload", err)
		}
		faces, err = s.extractFaces(ctx, data, info.ContentType)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	id := s.newID()
	key := path.Join(constants.CollectionObjectPrefix, c.ID, id+info.Ext)
	url, err := s.objects.Put(ctx, key, info.ContentType, body, up.Size)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("store image", err)
	}

	img := &database.Image{
		ID:             id,
		CollectionID:   c.ID,
		URL:            url,
		ObjectKey:      key,
		ContentType:    info.ContentType,
		Width:          info.Width,
		Height:         info.Height,
		FaceEmbeddings: facematch.ToFloat32s(faces),
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateImage(ctx, img); err != nil {
		s.deleteObject(ctx, key)
		return nil, snaperrors.NewUpstreamError("create image record", err)
	}
	return img, nil
}

// probeUpload detects the image format from the file header.
func (s *Service) probeUpload(up Upload) (imageInfo, error) {
	r, err := up.Open()
	if err != nil {
		return imageInfo{}, snaperrors.NewUpstreamError("open upload", err)
	}
	defer r.Close()
	return probeImage(r)
}

func (s *Service) extractFaces(ctx context.Context, data []byte, contentType string) ([]facematch.Embedding, error) {
	vectors, err := s.extractor.ExtractFaces(ctx, data, contentType)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("extract faces", err)
	}
	faces := make([]facematch.Embedding, 0, len(vectors))
	for i, v := range vectors {
		e := facematch.Embedding(v)
		if err := e.Validate(s.cfg.Dimension); err != nil {
			return nil, snaperrors.NewUpstreamError("extract faces", fmt.Errorf("face %d: %v", i, err))
		}
		faces = append(faces, e)
	}
	return faces, nil
}

func (s *Service) countBatch(outcome string) {
	if s.metrics != nil {
		s.metrics.IngestBatches.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countImages(created, failed int) {
	if s.metrics == nil {
		return
	}
	s.metrics.IngestImages.WithLabelValues("created").Add(float64(created))
	s.metrics.IngestImages.WithLabelValues("failed").Add(float64(failed))
}
