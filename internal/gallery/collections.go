package gallery

import (
	"context"
	"fmt"
	"path"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// CreateCollectionInput is the data needed to create a collection.
type CreateCollectionInput struct {
	Name        string
	Description string
	Cover       *Upload // optional
}

// CollectionSummary is a collection with the number of images in it.
type CollectionSummary struct {
	database.Collection
	ImageCount int
}

// CreateCollection creates a collection owned by p.
func (s *Service) CreateCollection(ctx context.Context, p Principal, in CreateCollectionInput) (*database.Collection, error) {
	if p.IsAnonymous() {
		return nil, snaperrors.NewForbiddenError("sign in to create a collection")
	}

	name := NormalizeText(in.Name)
	if name == "" {
		return nil, snaperrors.NewInvalidInputError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > constants.MaxCollectionNameLength {
		return nil, snaperrors.NewInvalidInputError("name",
			fmt.Sprintf("name must be at most %d characters", constants.MaxCollectionNameLength))
	}
	description := NormalizeDescription(in.Description)
	if utf8.RuneCountInString(description) > constants.MaxCollectionDescriptionLength {
		return nil, snaperrors.NewInvalidInputError("description",
			fmt.Sprintf("description must be at most %d characters", constants.MaxCollectionDescriptionLength))
	}

	c := &database.Collection{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		OwnerID:     p.ID,
		CreatedAt:   s.now(),
	}

	if in.Cover != nil {
		url, key, err := s.storeCover(ctx, c.ID, *in.Cover)
		if err != nil {
			return nil, err
		}
		c.CoverImageURL = url
		c.CoverObjectKey = key
	}

	if err := s.store.CreateCollection(ctx, c); err != nil {
		s.deleteObject(ctx, c.CoverObjectKey)
		return nil, snaperrors.NewUpstreamError("create collection", err)
	}

	s.log.Info("collection created",
		zap.String("collection_id", c.ID),
		zap.String("owner_id", c.OwnerID),
		zap.Bool("cover", c.CoverObjectKey != ""))
	return c, nil
}

func (s *Service) storeCover(ctx context.Context, collectionID string, up Upload) (string, string, error) {
	info, err := s.probeUpload(up)
	if err != nil {
		return "", "", snaperrors.NewInvalidInputError("cover", "cover must be a supported image")
	}

	r, err := up.Open()
	if err != nil {
		return "", "", snaperrors.NewUpstreamError("open cover", err)
	}
	defer r.Close()

	key := path.Join(constants.CoverObjectPrefix, collectionID+info.Ext)
	url, err := s.objects.Put(ctx, key, info.ContentType, r, up.Size)
	if err != nil {
		return "", "", snaperrors.NewUpstreamError("store cover", err)
	}
	return url, key, nil
}

// GetCollection returns a collection's public metadata.
func (s *Service) GetCollection(ctx context.Context, id string) (*database.Collection, error) {
	if !validID(id) {
		return nil, snaperrors.NewNotFoundError("collection", "")
	}
	c, err := s.store.GetCollection(ctx, id)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("get collection", err)
	}
	if c == nil {
		return nil, snaperrors.NewNotFoundError("collection", "")
	}
	return c, nil
}

// ListCollections returns the collections owned by p, newest first.
func (s *Service) ListCollections(ctx context.Context, p Principal) ([]CollectionSummary, error) {
	if p.IsAnonymous() {
		return nil, snaperrors.NewForbiddenError("sign in to list your collections")
	}
	cols, err := s.store.ListCollectionsByOwner(ctx, p.ID)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("list collections", err)
	}

	counts, err := s.store.CountImagesByOwner(ctx, p.ID)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("count images", err)
	}

	out := make([]CollectionSummary, 0, len(cols))
	for _, c := range cols {
		out = append(out, CollectionSummary{Collection: c, ImageCount: counts[c.ID]})
	}
	return out, nil
}

// ownedCollection loads a collection and checks that p owns it.
func (s *Service) ownedCollection(ctx context.Context, p Principal, id string) (*database.Collection, error) {
	c, err := s.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(c) {
		return nil, snaperrors.NewForbiddenError("only the collection owner can do this")
	}
	return c, nil
}

// DeleteCollection deletes a collection with all of its images. Stored bytes
// are removed after the records; failures there are logged and ignored.
func (s *Service) DeleteCollection(ctx context.Context, p Principal, id string) error {
	c, err := s.ownedCollection(ctx, p, id)
	if err != nil {
		return err
	}

	keys, err := s.store.DeleteCollection(ctx, c.ID)
	if err != nil {
		return snaperrors.NewUpstreamError("delete collection", err)
	}

	if c.CoverObjectKey != "" {
		keys = append(keys, c.CoverObjectKey)
	}
	for _, key := range keys {
		s.deleteObject(ctx, key)
	}

	s.log.Info("collection deleted",
		zap.String("collection_id", c.ID),
		zap.Int("objects", len(keys)))
	return nil
}

// ListImages returns every image of a collection, newest first. Owner only.
func (s *Service) ListImages(ctx context.Context, p Principal, id string) ([]database.Image, error) {
	c, err := s.ownedCollection(ctx, p, id)
	if err != nil {
		return nil, err
	}
	images, err := s.store.ListImages(ctx, c.ID)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("list images", err)
	}
	return images, nil
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	// Detached so a cancelled request still cleans up.
	if err := s.objects.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
	}
}
