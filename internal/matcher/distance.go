package matcher

import (
	"math"
	"math/bits"
)

// SimilarityFunc scores how alike two feature vectors are, normalized to
// [0, 1] so one acceptance threshold scale covers every implementation.
// Vendor scores can be plugged in behind the same signature.
type SimilarityFunc func(a, b []byte) float64

// HammingSimilarity is the fraction of matching bits. Vectors of different
// lengths never match.
func HammingSimilarity(a, b []byte) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var mismatched int
	for i := range a {
		mismatched += bits.OnesCount8(a[i] ^ b[i])
	}
	return 1 - float64(mismatched)/float64(len(a)*8)
}

// EuclideanSimilarity treats each byte as a feature magnitude and normalizes
// the euclidean distance by its maximum possible value.
func EuclideanSimilarity(a, b []byte) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	maxDistance := math.Sqrt(float64(len(a)) * 255 * 255)
	return 1 - math.Sqrt(sum)/maxDistance
}
