package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/multisense/internal/embedding"
	"github.com/hyperjump/multisense/internal/models"
)

const eps = 1e-4

func testStore(t *testing.T) *embedding.MemoryStore {
	t.Helper()
	s, err := embedding.NewMemoryStoreFromRows(
		[]string{"car", "auto", "bus", "cat", "it"},
		map[int][][]float64{
			1: {{1, 0}, {0.9, 0.1}, {0.7, 0.3}, {0, 1}, {1, 0}},
			2: {{0, 1}, {0.1, 0.9}, {1, 0}, {0.6, 0.4}, {0, 1}},
		},
	)
	require.NoError(t, err)
	return s
}

// hidingStore pretends some words are missing from the vocabulary index.
type hidingStore struct {
	*embedding.MemoryStore
	hidden map[string]bool
}

func (h hidingStore) WordToIndex(word string) (int, bool) {
	if h.hidden[word] {
		return 0, false
	}
	return h.MemoryStore.WordToIndex(word)
}

func words(rs []models.SimilarityResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Word
	}
	return out
}

func TestAnalyze(t *testing.T) {
	a, err := New(testStore(t))
	require.NoError(t, err)

	r, err := a.Analyze("car")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "car", r.Word)
	assert.Equal(t, 0, r.WordIndex)
	assert.InDelta(t, 0.0, r.SelfSimilarity, eps)
	assert.True(t, r.Distinct)
	assert.Equal(t, DefaultDistinctThreshold, r.Threshold)

	assert.Equal(t, []string{"auto", "bus", "cat"}, words(r.Neighbors1))
	assert.InDelta(t, 0.9939, r.Neighbors1[0].Score, eps)
	assert.InDelta(t, 0.9191, r.Neighbors1[1].Score, eps)

	assert.Equal(t, []string{"auto", "cat", "bus"}, words(r.Neighbors2))
	assert.InDelta(t, 0.5547, r.Neighbors2[1].Score, eps)

	require.Len(t, r.CrossA, 3)
	assert.Equal(t, "auto", r.CrossA[0].Neighbor)
	assert.True(t, r.CrossA[0].Found, "auto is in the vocabulary and must be cross-scored")
	assert.InDelta(t, 0.9939, r.CrossA[0].CrossScore, eps)
	assert.InDelta(t, 0.9939, r.CrossA[0].NeighborScore, eps)

	require.Len(t, r.CrossB, 3)
	assert.Equal(t, "bus", r.CrossB[2].Neighbor)
	assert.True(t, r.CrossB[2].Found)
	assert.InDelta(t, 0.9191, r.CrossB[2].CrossScore, eps)
}

func TestAnalyze_SimilarPrototypes(t *testing.T) {
	a, err := New(testStore(t))
	require.NoError(t, err)

	r, err := a.Analyze("auto")
	require.NoError(t, err)
	assert.Less(t, r.SelfSimilarity, 0.5)

	a, err = New(testStore(t), WithThreshold(0.1))
	require.NoError(t, err)
	r, err = a.Analyze("auto")
	require.NoError(t, err)
	assert.False(t, r.Distinct)
}

func TestAnalyze_WordNotFound(t *testing.T) {
	a, err := New(testStore(t))
	require.NoError(t, err)

	r, err := a.Analyze("train")
	assert.ErrorIs(t, err, ErrWordNotFound)
	assert.Nil(t, r)
}

func TestAnalyze_NeighborMissingForCrossAnalysis(t *testing.T) {
	s := hidingStore{MemoryStore: testStore(t), hidden: map[string]bool{"auto": true}}
	a, err := New(s)
	require.NoError(t, err)

	r, err := a.Analyze("car")
	require.NoError(t, err)
	require.NotEmpty(t, r.CrossA)
	assert.Equal(t, "auto", r.CrossA[0].Neighbor)
	assert.False(t, r.CrossA[0].Found)
	assert.True(t, r.CrossA[1].Found)
}

func TestAnalyze_TopN(t *testing.T) {
	a, err := New(testStore(t), WithTopN(1))
	require.NoError(t, err)

	r, err := a.Analyze("car")
	require.NoError(t, err)
	assert.Len(t, r.Neighbors1, 1)
	assert.Len(t, r.Neighbors2, 1)
	assert.Len(t, r.CrossA, 1)
	assert.Len(t, r.CrossB, 1)
}

func TestAnalyze_Cache(t *testing.T) {
	a, err := New(testStore(t), WithCacheSize(8))
	require.NoError(t, err)
	r1, err := a.Analyze("car")
	require.NoError(t, err)
	r2, err := a.Analyze("car")
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	a, err = New(testStore(t), WithCacheSize(0))
	require.NoError(t, err)
	r1, err = a.Analyze("car")
	require.NoError(t, err)
	r2, err = a.Analyze("car")
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, r1.Neighbors1, r2.Neighbors1, "results are deterministic")
}

func TestNew_Validation(t *testing.T) {
	single, err := embedding.NewMemoryStoreFromRows([]string{"car"}, map[int][][]float64{1: {{1}}})
	require.NoError(t, err)
	_, err = New(single)
	assert.ErrorIs(t, err, embedding.ErrUnknownPrototype)

	_, err = New(testStore(t), WithTopN(0))
	assert.Error(t, err)
}

func TestNeighbors(t *testing.T) {
	a, err := New(testStore(t))
	require.NoError(t, err)

	got, err := a.Neighbors("car", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"auto", "bus"}, words(got))

	got, err = a.Neighbors("car", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"auto", "cat", "bus"}, words(got))

	_, err = a.Neighbors("car", 3, 5)
	assert.ErrorIs(t, err, embedding.ErrUnknownPrototype)

	_, err = a.Neighbors("train", 1, 5)
	assert.ErrorIs(t, err, ErrWordNotFound)
}

func TestInfo(t *testing.T) {
	a, err := New(testStore(t))
	require.NoError(t, err)
	info := a.Info()
	assert.Equal(t, 5, info.VocabularySize)
	assert.Equal(t, 2, info.Dimensions)
	assert.Equal(t, []int{1, 2}, info.Prototypes)
}
