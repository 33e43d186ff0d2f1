// Package embedding holds a loaded multi-prototype embedding model and its file loader.
package embedding

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrIndexOutOfRange is returned for a vocabulary index outside [0, Size()).
	ErrIndexOutOfRange = errors.New("vocabulary index out of range")
	// ErrUnknownPrototype is returned for a prototype id the model does not have.
	ErrUnknownPrototype = errors.New("unknown prototype")
)

// Store is read-only access to a multi-prototype model.
// Vectors returned by Vector alias the store's memory and must not be modified.
type Store interface {
	Size() int
	Dim() int
	Prototypes() []int
	WordToIndex(word string) (int, bool)
	IndexToWord(i int) (string, error)
	Vector(prototype, i int) ([]float64, error)
}

// MemoryStore keeps each prototype table as one dense rows-by-dim matrix.
type MemoryStore struct {
	words  []string
	index  map[string]int
	dim    int
	tables map[int]*mat.Dense
	protos []int
}

// NewMemoryStore builds a store from the vocabulary and one flat row-major table per prototype id.
// Every table must hold exactly len(words)*dim values.
func NewMemoryStore(words []string, dim int, tables map[int][]float64) (*MemoryStore, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no prototype tables")
	}
	index := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := index[w]; dup {
			return nil, fmt.Errorf("duplicate vocabulary word %q at index %d", w, i)
		}
		index[w] = i
	}
	s := &MemoryStore{
		words:  words,
		index:  index,
		dim:    dim,
		tables: make(map[int]*mat.Dense, len(tables)),
	}
	for id, data := range tables {
		if len(data) != len(words)*dim {
			return nil, fmt.Errorf("prototype %d: got %d values, want %d (%d words x %d dims)",
				id, len(data), len(words)*dim, len(words), dim)
		}
		s.tables[id] = mat.NewDense(len(words), dim, data)
		s.protos = append(s.protos, id)
	}
	sort.Ints(s.protos)
	return s, nil
}

// NewMemoryStoreFromRows is NewMemoryStore for per-word vectors.
func NewMemoryStoreFromRows(words []string, tables map[int][][]float64) (*MemoryStore, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	dim := -1
	flat := make(map[int][]float64, len(tables))
	for id, rows := range tables {
		if len(rows) != len(words) {
			return nil, fmt.Errorf("prototype %d: got %d rows, want %d", id, len(rows), len(words))
		}
		data := make([]float64, 0, len(rows)*len(rows[0]))
		for i, row := range rows {
			if dim < 0 {
				dim = len(row)
			}
			if len(row) != dim {
				return nil, fmt.Errorf("prototype %d, word %q: dimension %d, want %d", id, words[i], len(row), dim)
			}
			data = append(data, row...)
		}
		flat[id] = data
	}
	return NewMemoryStore(words, dim, flat)
}

// Size returns the vocabulary size.
func (s *MemoryStore) Size() int { return len(s.words) }

// Dim returns the embedding dimension.
func (s *MemoryStore) Dim() int { return s.dim }

// Prototypes returns the prototype ids in ascending order.
func (s *MemoryStore) Prototypes() []int {
	return append([]int(nil), s.protos...)
}

// WordToIndex returns the vocabulary index of word.
func (s *MemoryStore) WordToIndex(word string) (int, bool) {
	i, ok := s.index[word]
	return i, ok
}

// IndexToWord returns the word at vocabulary index i.
func (s *MemoryStore) IndexToWord(i int) (string, error) {
	if i < 0 || i >= len(s.words) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(s.words))
	}
	return s.words[i], nil
}

// Vector returns row i of the given prototype table.
func (s *MemoryStore) Vector(prototype, i int) ([]float64, error) {
	table, ok := s.tables[prototype]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPrototype, prototype)
	}
	if i < 0 || i >= len(s.words) {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(s.words))
	}
	return table.RawRowView(i), nil
}

// HasPrototypes reports whether s has every one of the given prototype ids.
func HasPrototypes(s Store, ids ...int) error {
	have := make(map[int]bool)
	for _, p := range s.Prototypes() {
		have[p] = true
	}
	for _, id := range ids {
		if !have[id] {
			return fmt.Errorf("%w: model has %v, need %d", ErrUnknownPrototype, s.Prototypes(), id)
		}
	}
	return nil
}
