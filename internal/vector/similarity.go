// Package vector provides cosine similarity and brute-force nearest-neighbour ranking.
package vector

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity returns dot(a, b) / (|a| |b|).
// When either vector has zero norm the result is 0, which callers cannot tell
// apart from a genuinely orthogonal pair. The result is not clamped to [-1, 1].
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (normA * normB), nil
}

// Equal reports whether a and b have the same length and identical components.
func Equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	return floats.Equal(a, b)
}
