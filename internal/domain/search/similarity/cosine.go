// Package similarity scores query vectors against stored card vectors.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b.
// Vectors of different length, empty vectors and zero-norm vectors score 0.
// Sums accumulate in float64 in a single left-to-right pass so results are reproducible.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
