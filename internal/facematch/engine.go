package facematch

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// Match is an image that contains at least one face within the threshold of the query.
type Match struct {
	ImageID   string
	URL       string
	CreatedAt time.Time
	Distance  float64 // smallest distance among the image's faces
}

// Matcher finds the images of a collection that contain the query face.
type Matcher interface {
	FindMatches(ctx context.Context, collectionID string, query Embedding) ([]Match, error)
}

// Engine is a Matcher that compares the query against every stored embedding
// of the collection.
type Engine struct {
	images    database.ImageReader
	dimension int
	threshold float64
}

// NewEngine creates an engine over the given image store. Non-positive
// arguments fall back to the defaults.
func NewEngine(images database.ImageReader, dimension int, threshold float64) *Engine {
	if dimension <= 0 {
		dimension = constants.DefaultEmbeddingDim
	}
	if threshold <= 0 {
		threshold = constants.DefaultMatchThreshold
	}
	return &Engine{
		images:    images,
		dimension: dimension,
		threshold: threshold,
	}
}

// Dimension returns the embedding length the engine accepts.
func (e *Engine) Dimension() int {
	return e.dimension
}

// Threshold returns the maximum distance counted as a match.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// FindMatches returns every image of the collection with at least one face
// within the threshold of query, closest first. Each image appears once.
// A collection without images (or one that does not exist) yields an empty slice.
func (e *Engine) FindMatches(ctx context.Context, collectionID string, query Embedding) ([]Match, error) {
	if err := query.Validate(e.dimension); err != nil {
		return nil, err
	}

	images, err := e.images.ListImages(ctx, collectionID)
	if err != nil {
		return nil, snaperrors.NewUpstreamError("list images", err)
	}

	matches := make([]Match, 0)
	for i := range images {
		best, ok := e.bestDistance(query, images[i].FaceEmbeddings)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			ImageID:   images[i].ID,
			URL:       images[i].URL,
			CreatedAt: images[i].CreatedAt,
			Distance:  float64(best),
		})
	}

	slices.SortStableFunc(matches, compareMatches)
	return matches, nil
}

// bestDistance returns the smallest distance between query and faces and
// whether it is within the threshold. Faces of another dimension are skipped.
func (e *Engine) bestDistance(query Embedding, faces [][]float32) (float32, bool) {
	var best float32
	found := false
	for _, face := range faces {
		if len(face) != len(query) {
			continue
		}
		d := EuclideanDistance(query, face)
		if !Within(d, e.threshold) {
			continue
		}
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// compareMatches orders by distance, then newest first, then by ID.
func compareMatches(a, b Match) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ImageID, b.ImageID)
}
