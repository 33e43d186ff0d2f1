package models

import "fmt"

// NeighborQuery asks for the nearest neighbours of a word under one prototype.
type NeighborQuery struct {
	Word      string `json:"word"`
	Prototype int    `json:"prototype,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Validate ensures the query names a word and normalizes prototype and limit.
// Prototype defaults to 1; limit defaults to defaultLimit and is capped at maxLimit.
func (q *NeighborQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if q.Prototype == 0 {
		q.Prototype = 1
	}
	if q.Prototype < 0 {
		return fmt.Errorf("prototype must be positive, got %d", q.Prototype)
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
