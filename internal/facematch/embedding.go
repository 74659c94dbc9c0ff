// Package facematch decides which images of a collection contain a given face.
// Matching is an exhaustive scan over the stored embeddings of one collection.
package facematch

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// Embedding is a fixed-length face descriptor produced by the extractor.
type Embedding []float32

// FromFloat64 converts decoded JSON numbers to an Embedding.
// Values outside the float32 range become infinities and fail Validate.
func FromFloat64(values []float64) Embedding {
	if values == nil {
		return nil
	}
	out := make(Embedding, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Validate checks that e is a usable vector of the given dimension.
func (e Embedding) Validate(dim int) error {
	if len(e) == 0 {
		return snaperrors.NewInvalidInputError("descriptor", "descriptor is required")
	}
	if dim > 0 && len(e) != dim {
		return snaperrors.NewInvalidInputError("descriptor",
			fmt.Sprintf("descriptor must have %d values, got %d", dim, len(e)))
	}
	for i, v := range e {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return snaperrors.NewInvalidInputError("descriptor",
				fmt.Sprintf("descriptor value at index %d is not a finite number", i))
		}
	}
	return nil
}

// ParseEmbeddingSets decodes the per-file embedding payload of an upload: a JSON
// array with one entry per file, each entry a list of face vectors.
//
// Parsing is tolerant. The result always has n entries. An unparseable payload
// gives every file an empty list, and an entry that is missing, malformed or
// holds a vector of the wrong dimension gives that file an empty list.
func ParseEmbeddingSets(raw string, n, dim int) [][]Embedding {
	sets := make([][]Embedding, n)
	for i := range sets {
		sets[i] = []Embedding{}
	}
	if raw == "" {
		return sets
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return sets
	}

	for i := 0; i < n && i < len(entries); i++ {
		sets[i] = parseEntry(entries[i], dim)
	}
	return sets
}

func parseEntry(raw json.RawMessage, dim int) []Embedding {
	var vectors [][]float64
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return []Embedding{}
	}

	out := make([]Embedding, 0, len(vectors))
	for _, v := range vectors {
		e := FromFloat64(v)
		if err := e.Validate(dim); err != nil {
			return []Embedding{}
		}
		out = append(out, e)
	}
	return out
}

// ToFloat32s converts a list of embeddings to the storage representation.
func ToFloat32s(embeddings []Embedding) [][]float32 {
	out := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		out[i] = []float32(e)
	}
	return out
}
