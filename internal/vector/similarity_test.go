package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-12

func TestCosineSimilarity_Self(t *testing.T) {
	for _, v := range [][]float64{{1, 0}, {0.3, -2, 5}, {1e-3, 1e3, 7, 7}} {
		sim, err := CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, epsilon, "vector %v", v)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float64{0.9, 0.1, -0.4}
	b := []float64{-0.2, 0.5, 0.8}
	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	for dim := 1; dim <= 4; dim++ {
		zero := make([]float64, dim)
		other := make([]float64, dim)
		for i := range other {
			other[i] = float64(i + 1)
		}
		sim, err := CosineSimilarity(zero, other)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
		sim, err = CosineSimilarity(other, zero)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
		sim, err = CosineSimilarity(zero, zero)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	}
}

func TestCosineSimilarity_Known(t *testing.T) {
	sim, err := CosineSimilarity([]float64{1, 0}, []float64{0.9, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.9/math.Sqrt(0.82), sim, epsilon)

	sim, err = CosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, epsilon)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]float64{1, 2}, []float64{1, 2}))
	assert.False(t, Equal([]float64{1, 2}, []float64{1, 2.0000001}))
	assert.False(t, Equal([]float64{1, 2}, []float64{1, 2, 3}))
	assert.True(t, Equal(nil, []float64{}))
}
