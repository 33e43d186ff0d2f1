package analyzer

import (
	"github.com/hyperjump/multisense/internal/embedding"
	"github.com/hyperjump/multisense/internal/vector"
)

type vocabulary struct {
	store     embedding.Store
	prototype int
}

// Vocabulary exposes every word of store with its prototype vector, in ascending index order.
func Vocabulary(store embedding.Store, prototype int) vector.Candidates {
	return vocabulary{store: store, prototype: prototype}
}

func (v vocabulary) Len() int { return v.store.Size() }

func (v vocabulary) At(i int) (string, []float64, error) {
	w, err := v.store.IndexToWord(i)
	if err != nil {
		return "", nil, err
	}
	vec, err := v.store.Vector(v.prototype, i)
	if err != nil {
		return "", nil, err
	}
	return w, vec, nil
}
