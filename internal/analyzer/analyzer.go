// Package analyzer compares the two prototypes of a word in a multi-prototype embedding model.
package analyzer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/embedding"
	"github.com/hyperjump/multisense/internal/models"
	"github.com/hyperjump/multisense/internal/vector"
)

// ErrWordNotFound is returned when the queried word is not in the model's vocabulary.
var ErrWordNotFound = errors.New("word not found in vocabulary")

const (
	// DefaultTopN is the number of neighbours reported per prototype.
	DefaultTopN = 10
	// DefaultDistinctThreshold separates distinct prototypes from similar ones.
	DefaultDistinctThreshold = 0.5

	prototype1 = 1
	prototype2 = 2
)

// Analyzer runs prototype analyses against a loaded, read-only store.
type Analyzer struct {
	store     embedding.Store
	topN      int
	threshold float64
	cache     *lru.Cache[string, *models.PrototypeReport]
	logger    *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithTopN sets the number of neighbours per prototype.
func WithTopN(n int) Option {
	return func(a *Analyzer) error {
		if n <= 0 {
			return fmt.Errorf("top_n must be positive, got %d", n)
		}
		a.topN = n
		return nil
	}
}

// WithThreshold sets the self-similarity below which prototypes count as distinct.
func WithThreshold(t float64) Option {
	return func(a *Analyzer) error {
		a.threshold = t
		return nil
	}
}

// WithCacheSize keeps up to size reports in memory. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(a *Analyzer) error {
		if size <= 0 {
			a.cache = nil
			return nil
		}
		c, err := lru.New[string, *models.PrototypeReport](size)
		if err != nil {
			return fmt.Errorf("failed to create report cache: %w", err)
		}
		a.cache = c
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = l
		return nil
	}
}

// New creates an analyzer over store, which must have prototypes 1 and 2.
func New(store embedding.Store, opts ...Option) (*Analyzer, error) {
	if err := embedding.HasPrototypes(store, prototype1, prototype2); err != nil {
		return nil, err
	}
	a := &Analyzer{
		store:     store,
		topN:      DefaultTopN,
		threshold: DefaultDistinctThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Info describes the underlying model.
func (a *Analyzer) Info() models.ModelInfo {
	return models.ModelInfo{
		VocabularySize: a.store.Size(),
		Dimensions:     a.store.Dim(),
		Prototypes:     a.store.Prototypes(),
	}
}

// Analyze compares the two prototypes of word: their mutual similarity, the
// nearest neighbours under each prototype, and each neighbour re-scored against
// the target's other prototype.
func (a *Analyzer) Analyze(word string) (*models.PrototypeReport, error) {
	if a.cache != nil {
		if r, ok := a.cache.Get(word); ok {
			return r, nil
		}
	}

	id, ok := a.store.WordToIndex(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWordNotFound, word)
	}
	p1, err := a.store.Vector(prototype1, id)
	if err != nil {
		return nil, err
	}
	p2, err := a.store.Vector(prototype2, id)
	if err != nil {
		return nil, err
	}

	self, err := vector.CosineSimilarity(p1, p2)
	if err != nil {
		return nil, err
	}

	n1, err := vector.FindMostSimilar(p1, Vocabulary(a.store, prototype1), a.topN, word)
	if err != nil {
		return nil, fmt.Errorf("prototype %d neighbours: %w", prototype1, err)
	}
	n2, err := vector.FindMostSimilar(p2, Vocabulary(a.store, prototype2), a.topN, word)
	if err != nil {
		return nil, fmt.Errorf("prototype %d neighbours: %w", prototype2, err)
	}

	crossA, err := a.crossScore(n1, p2, prototype2)
	if err != nil {
		return nil, err
	}
	crossB, err := a.crossScore(n2, p1, prototype1)
	if err != nil {
		return nil, err
	}

	report := &models.PrototypeReport{
		ID:             uuid.New().String(),
		Word:           word,
		WordIndex:      id,
		SelfSimilarity: self,
		Threshold:      a.threshold,
		Distinct:       self < a.threshold,
		Neighbors1:     n1,
		Neighbors2:     n2,
		CrossA:         crossA,
		CrossB:         crossB,
	}
	a.logger.Debug("prototype analysis complete",
		zap.String("report_id", report.ID),
		zap.String("word", word),
		zap.Float64("self_similarity", self),
		zap.Bool("distinct", report.Distinct))

	if a.cache != nil {
		a.cache.Add(word, report)
	}
	return report, nil
}

// crossScore scores each neighbour's vector under prototype against target.
// Neighbours missing from the vocabulary are marked as not found.
func (a *Analyzer) crossScore(neighbors []models.SimilarityResult, target []float64, prototype int) ([]models.CrossResult, error) {
	out := make([]models.CrossResult, 0, len(neighbors))
	for _, n := range neighbors {
		cr := models.CrossResult{Neighbor: n.Word, NeighborScore: n.Score}
		idx, ok := a.store.WordToIndex(n.Word)
		if !ok {
			a.logger.Warn("neighbour not found for cross-analysis", zap.String("neighbor", n.Word))
			out = append(out, cr)
			continue
		}
		v, err := a.store.Vector(prototype, idx)
		if err != nil {
			return nil, err
		}
		cr.CrossScore, err = vector.CosineSimilarity(target, v)
		if err != nil {
			return nil, err
		}
		cr.Found = true
		out = append(out, cr)
	}
	return out, nil
}

// Neighbors returns the topN nearest words to word under a single prototype.
// A non-positive topN uses the analyzer's default.
func (a *Analyzer) Neighbors(word string, prototype, topN int) ([]models.SimilarityResult, error) {
	id, ok := a.store.WordToIndex(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWordNotFound, word)
	}
	q, err := a.store.Vector(prototype, id)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = a.topN
	}
	return vector.FindMostSimilar(q, Vocabulary(a.store, prototype), topN, word)
}
