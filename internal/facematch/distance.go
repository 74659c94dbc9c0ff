package facematch

import (
	"math"

	"github.com/coder/hnsw"
)

// EuclideanDistance returns sqrt(sum((a_k - b_k)^2)).
// Vectors of different or zero length are never comparable and yield +Inf.
func EuclideanDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return float32(math.Inf(1))
	}
	return hnsw.EuclideanDistance(a, b)
}

// Within reports whether d is inside the match threshold. The comparison is
// done in float32 so that a vector exactly at the threshold matches.
func Within(d float32, threshold float64) bool {
	return d <= float32(threshold)
}
