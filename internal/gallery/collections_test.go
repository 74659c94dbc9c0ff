package gallery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/snaperrors"
)

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cover := BytesUpload("cover.png", pngBytes(t, 4, 4))

	c, err := f.svc.CreateCollection(ctx, owner, CreateCollectionInput{
		Name:        "  Summer\t\tParty  ",
		Description: "Bring\r\nsunscreen ",
		Cover:       &cover,
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Party", c.Name)
	assert.Equal(t, "Bring\nsunscreen", c.Description)
	assert.Equal(t, ownerID, c.OwnerID)
	assert.Equal(t, "covers/"+c.ID+".png", c.CoverObjectKey)
	assert.Equal(t, "https://cdn.example.com/covers/"+c.ID+".png", c.CoverImageURL)

	stored, err := f.svc.GetCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, stored.Name)
}

func TestCreateCollectionValidation(t *testing.T) {
	badCover := BytesUpload("cover.txt", []byte("text"))

	tests := []struct {
		name      string
		principal Principal
		input     CreateCollectionInput
		wantErr   error
	}{
		{"anonymous", Anonymous(), CreateCollectionInput{Name: "x"}, snaperrors.ErrForbidden},
		{"empty name", owner, CreateCollectionInput{Name: "   "}, snaperrors.ErrInvalidInput},
		{"name too long", owner, CreateCollectionInput{Name: strings.Repeat("é", 201)}, snaperrors.ErrInvalidInput},
		{"description too long", owner, CreateCollectionInput{Name: "x", Description: strings.Repeat("a", 2001)}, snaperrors.ErrInvalidInput},
		{"cover not an image", owner, CreateCollectionInput{Name: "x", Cover: &badCover}, snaperrors.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateCollection(context.Background(), tc.principal, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateCollectionStoreFailureRemovesCover(t *testing.T) {
	f := newFixture(t)
	f.store.CreateCollectionErr = errors.New("disk full")
	cover := BytesUpload("cover.png", pngBytes(t, 4, 4))

	_, err := f.svc.CreateCollection(context.Background(), owner, CreateCollectionInput{Name: "x", Cover: &cover})
	assert.ErrorIs(t, err, snaperrors.ErrUpstream)
	assert.Empty(t, f.objects.Keys())
}

func TestGetCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.GetCollection(ctx, collectionID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding", c.Name)

	_, err = f.svc.GetCollection(ctx, "6a2b4c1d-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, snaperrors.ErrNotFound)

	_, err = f.svc.GetCollection(ctx, "../etc")
	assert.ErrorIs(t, err, snaperrors.ErrNotFound)

	f.store.GetCollectionError = errors.New("timeout")
	_, err = f.svc.GetCollection(ctx, collectionID)
	assert.ErrorIs(t, err, snaperrors.ErrUpstream)
}

func TestListCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddCollection(database.Collection{
		ID:        "9c8b7a65-0000-4000-8000-000000000001",
		Name:      "Newer",
		OwnerID:   ownerID,
		CreatedAt: time.Now().Add(time.Hour),
	})
	f.store.AddCollection(database.Collection{ID: "9c8b7a65-0000-4000-8000-000000000002", OwnerID: "someone-else"})

	_, err := f.svc.Ingest(ctx, owner, collectionID, pngUploads(t, 2), "")
	require.NoError(t, err)

	list, err := f.svc.ListCollections(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Name)
	assert.Equal(t, 0, list[0].ImageCount)
	assert.Equal(t, "Wedding", list[1].Name)
	assert.Equal(t, 2, list[1].ImageCount)

	assert.Zero(t, f.store.CountImagesCalls, "counts come from one grouped read")

	_, err = f.svc.ListCollections(ctx, Anonymous())
	assert.ErrorIs(t, err, snaperrors.ErrForbidden)

	f.store.CountImagesError = errors.New("timeout")
	_, err = f.svc.ListCollections(ctx, owner)
	assert.ErrorIs(t, err, snaperrors.ErrUpstream)
}

func TestDeleteCollectionCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := embeddingsJSON(t, [][]float64{face(0.1)}, [][]float64{face(0.2)}, [][]float64{face(0.3)})
	_, err := f.svc.Ingest(ctx, owner, collectionID, pngUploads(t, 3), payload)
	require.NoError(t, err)

	before, err := f.svc.FindMatches(ctx, collectionID, face(0))
	require.NoError(t, err)
	require.Len(t, before, 3)

	require.NoError(t, f.svc.DeleteCollection(ctx, owner, collectionID))

	assert.Zero(t, f.store.ImageCount())
	assert.Empty(t, f.objects.Keys())

	after, err := f.svc.FindMatches(ctx, collectionID, face(0))
	require.NoError(t, err)
	assert.Empty(t, after)

	_, err = f.svc.GetCollection(ctx, collectionID)
	assert.ErrorIs(t, err, snaperrors.ErrNotFound)
}

func TestDeleteCollectionAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.DeleteCollection(ctx, Principal{ID: "intruder"}, collectionID)
	assert.ErrorIs(t, err, snaperrors.ErrForbidden)

	err = f.svc.DeleteCollection(ctx, owner, "6a2b4c1d-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, snaperrors.ErrNotFound)

	c, err := f.svc.GetCollection(ctx, collectionID)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestDeleteCollectionIgnoresObjectFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Ingest(ctx, owner, collectionID, pngUploads(t, 1), "")
	require.NoError(t, err)

	f.objects.DeleteError = errors.New("s3 down")
	assert.NoError(t, f.svc.DeleteCollection(ctx, owner, collectionID))
	assert.Zero(t, f.store.ImageCount())
}

func TestListImagesOwnerOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListImages(context.Background(), Principal{ID: "guest"}, collectionID)
	assert.ErrorIs(t, err, snaperrors.ErrForbidden)

	images, err := f.svc.ListImages(context.Background(), owner, collectionID)
	require.NoError(t, err)
	assert.Empty(t, images)
}
