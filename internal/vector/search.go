package vector

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/multisense/internal/models"
)

// MinWordLength is the shortest candidate word, in characters, that can be returned as a neighbour.
const MinWordLength = 3

// Candidates is an ordered sequence of words and their vectors.
// Iteration order is the tie-break for equal scores, so implementations must
// return entries in a stable, documented order (for a model: ascending vocabulary index).
type Candidates interface {
	Len() int
	At(i int) (word string, vec []float64, err error)
}

// Entry is a single word/vector pair.
type Entry struct {
	Word   string
	Vector []float64
}

// Entries is a slice-backed Candidates in slice order.
type Entries []Entry

// Len returns the number of entries.
func (e Entries) Len() int { return len(e) }

// At returns the i-th entry.
func (e Entries) At(i int) (string, []float64, error) {
	return e[i].Word, e[i].Vector, nil
}

// FindMostSimilar ranks candidates by cosine similarity to query and returns the best topN.
//
// A candidate is skipped when its word equals excludeWord, or, when excludeWord
// is empty, when its vector is identical to query. Words shorter than
// MinWordLength characters or containing a non-letter are skipped as well.
// Ties keep candidate order. Every call scans all candidates, which is fine for
// interactive lookups but far too slow for batch querying over a large vocabulary.
func FindMostSimilar(query []float64, candidates Candidates, topN int, excludeWord string) ([]models.SimilarityResult, error) {
	if topN <= 0 {
		return []models.SimilarityResult{}, nil
	}
	n := candidates.Len()
	results := make([]models.SimilarityResult, 0, min(topN, n))
	for i := 0; i < n; i++ {
		word, vec, err := candidates.At(i)
		if err != nil {
			return nil, err
		}
		if excludeWord != "" && word == excludeWord {
			continue
		}
		if excludeWord == "" && Equal(query, vec) {
			continue
		}
		if !IsNeighborWord(word) {
			continue
		}
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, err
		}
		results = append(results, models.SimilarityResult{Word: word, Score: sim})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsNeighborWord reports whether word is long enough and purely alphabetic.
func IsNeighborWord(word string) bool {
	if utf8.RuneCountInString(word) < MinWordLength {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
