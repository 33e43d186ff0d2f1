// Package models defines the data structures shared by the analyzer, the corpus pipeline, and the API.
package models

// SimilarityResult is one ranked neighbour: a vocabulary word and its cosine similarity to a query.
type SimilarityResult struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// CrossResult re-scores a neighbour found under one prototype against the target's other prototype.
type CrossResult struct {
	Neighbor string `json:"neighbor"`
	// NeighborScore is the similarity under the prototype the neighbour was found with.
	NeighborScore float64 `json:"neighbor_score"`
	// CrossScore is only meaningful when Found is true.
	CrossScore float64 `json:"cross_score"`
	Found      bool    `json:"found"`
}

// PrototypeReport is the full analysis of one word's two prototypes.
type PrototypeReport struct {
	ID             string  `json:"id"`
	Word           string  `json:"word"`
	WordIndex      int     `json:"word_index"`
	SelfSimilarity float64 `json:"self_similarity"`
	Threshold      float64 `json:"threshold"`
	Distinct       bool    `json:"distinct"`

	Neighbors1 []SimilarityResult `json:"neighbors_prototype1"`
	Neighbors2 []SimilarityResult `json:"neighbors_prototype2"`

	// CrossA holds prototype-1 neighbours scored against the target's prototype 2.
	CrossA []CrossResult `json:"cross_prototype1_neighbors"`
	// CrossB holds prototype-2 neighbours scored against the target's prototype 1.
	CrossB []CrossResult `json:"cross_prototype2_neighbors"`
}

// ModelInfo summarizes a loaded model.
type ModelInfo struct {
	VocabularySize int   `json:"vocabulary_size"`
	Dimensions     int   `json:"dimensions"`
	Prototypes     []int `json:"prototypes"`
}
