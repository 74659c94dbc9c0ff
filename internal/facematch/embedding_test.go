package facematch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/snapx/internal/snaperrors"
)

func TestEmbeddingValidate(t *testing.T) {
	tests := []struct {
		name    string
		e       Embedding
		dim     int
		wantErr bool
	}{
		{"valid", Embedding{0.1, 0.2, 0.3}, 3, false},
		{"nil", nil, 3, true},
		{"empty", Embedding{}, 3, true},
		{"too short", Embedding{0.1, 0.2}, 3, true},
		{"too long", Embedding{0.1, 0.2, 0.3, 0.4}, 3, true},
		{"NaN", Embedding{0.1, float32(math.NaN()), 0.3}, 3, true},
		{"Inf", Embedding{0.1, float32(math.Inf(-1)), 0.3}, 3, true},
		{"any dimension when unset", Embedding{0.1}, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.e.Validate(tc.dim)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, snaperrors.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromFloat64Overflow(t *testing.T) {
	e := FromFloat64([]float64{1e300})
	assert.Error(t, e.Validate(1), "values beyond float32 range are rejected")
	assert.Nil(t, FromFloat64(nil))
}

func TestParseEmbeddingSets(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[[[0.1,0.2]],[[0.3,0.4],[0.5,0.6]],[]]`, 3, 2)
		require.Len(t, sets, 3)
		assert.Equal(t, []Embedding{{0.1, 0.2}}, sets[0])
		assert.Len(t, sets[1], 2)
		assert.Empty(t, sets[2])
	})

	t.Run("unparseable payload gives every file an empty list", func(t *testing.T) {
		sets := ParseEmbeddingSets(`not json`, 2, 2)
		require.Len(t, sets, 2)
		assert.Empty(t, sets[0])
		assert.Empty(t, sets[1])
	})

	t.Run("empty payload", func(t *testing.T) {
		sets := ParseEmbeddingSets("", 2, 2)
		require.Len(t, sets, 2)
		assert.NotNil(t, sets[0])
		assert.Empty(t, sets[0])
	})

	t.Run("fewer entries than files", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[[[0.1,0.2]]]`, 3, 2)
		require.Len(t, sets, 3)
		assert.Len(t, sets[0], 1)
		assert.Empty(t, sets[1])
		assert.Empty(t, sets[2])
	})

	t.Run("extra entries are ignored", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[[[0.1,0.2]],[[0.3,0.4]]]`, 1, 2)
		require.Len(t, sets, 1)
	})

	t.Run("malformed entry only affects its file", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[[[0.1,0.2]],"oops",[[0.5,0.6]]]`, 3, 2)
		assert.Len(t, sets[0], 1)
		assert.Empty(t, sets[1])
		assert.Len(t, sets[2], 1)
	})

	t.Run("wrong dimension empties the entry", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[[[0.1,0.2],[0.1,0.2,0.3]],[[0.5,0.6]]]`, 2, 2)
		assert.Empty(t, sets[0])
		assert.Len(t, sets[1], 1)
	})

	t.Run("null entry", func(t *testing.T) {
		sets := ParseEmbeddingSets(`[null,[[0.5,0.6]]]`, 2, 2)
		assert.Empty(t, sets[0])
		assert.Len(t, sets[1], 1)
	})
}

func TestToFloat32s(t *testing.T) {
	out := ToFloat32s([]Embedding{{1, 2}, {3, 4}})
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, out)
	assert.Empty(t, ToFloat32s(nil))
}
