package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/analyzer"
	"github.com/hyperjump/multisense/internal/embedding"
	"github.com/hyperjump/multisense/internal/fnvhash"
	"github.com/hyperjump/multisense/internal/metrics"
	"github.com/hyperjump/multisense/internal/models"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 1000
	maxHashInputs      = 100
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	s.logger.Debug("analyze request", zap.String("word", word))
	report, err := s.analyzer.Analyze(word)
	if err != nil {
		if errors.Is(err, analyzer.ErrWordNotFound) {
			metrics.ObserveAnalysis(metrics.OutcomeNotFound)
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		metrics.ObserveAnalysis(metrics.OutcomeError)
		s.logger.Error("analysis failed", zap.String("word", word), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ObserveAnalysis(metrics.OutcomeOK)
	s.respondJSON(w, http.StatusOK, report)
}

type neighborsResponse struct {
	Word      string                    `json:"word"`
	Prototype int                       `json:"prototype"`
	Neighbors []models.SimilarityResult `json:"neighbors"`
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	query := models.NeighborQuery{Word: chi.URLParam(r, "word")}
	var err error
	if query.Prototype, err = intParam(r, "prototype"); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.Limit, err = intParam(r, "limit"); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := query.Validate(s.config.Analysis.TopN, s.config.Analysis.MaxTopN); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("neighbors request",
		zap.String("word", query.Word), zap.Int("prototype", query.Prototype), zap.Int("limit", query.Limit))

	proto := s.prototypeLabel(query.Prototype)
	neighbors, err := s.analyzer.Neighbors(query.Word, query.Prototype, query.Limit)
	switch {
	case errors.Is(err, analyzer.ErrWordNotFound):
		metrics.ObserveNeighbors(proto, metrics.OutcomeNotFound)
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, embedding.ErrUnknownPrototype):
		metrics.ObserveNeighbors(proto, metrics.OutcomeError)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		metrics.ObserveNeighbors(proto, metrics.OutcomeError)
		s.logger.Error("neighbour query failed", zap.String("word", query.Word), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ObserveNeighbors(proto, metrics.OutcomeOK)
	s.respondJSON(w, http.StatusOK, neighborsResponse{
		Word:      query.Word,
		Prototype: query.Prototype,
		Neighbors: neighbors,
	})
}

type hashResult struct {
	Input    string            `json:"input"`
	Hash     uint32            `json:"hash"`
	Subwords []fnvhash.Subword `json:"subwords,omitempty"`
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	inputs := r.URL.Query()["s"]
	if len(inputs) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one s parameter is required")
		return
	}
	if len(inputs) > maxHashInputs {
		s.respondError(w, http.StatusBadRequest, "too many inputs")
		return
	}
	withSubwords := false
	if v := r.URL.Query().Get("subwords"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "subwords must be a boolean")
			return
		}
		withSubwords = b
	}
	nwords, err := intParam(r, "nwords")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if nwords == 0 {
		nwords = s.analyzer.Info().VocabularySize
	}

	out := make([]hashResult, 0, len(inputs))
	for _, in := range inputs {
		res := hashResult{Input: in, Hash: fnvhash.Hash(in)}
		if withSubwords {
			res.Subwords, err = fnvhash.Subwords(in, nwords, s.config.Hash)
			if err != nil {
				s.logger.Error("subword hashing failed", zap.Error(err))
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		out = append(out, res)
	}
	metrics.ObserveHash(len(inputs))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": out})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"model": s.analyzer.Info(),
		"config": map[string]interface{}{
			"basename":           s.config.Model.Basename,
			"top_n":              s.config.Analysis.TopN,
			"max_top_n":          s.config.Analysis.MaxTopN,
			"distinct_threshold": s.config.Analysis.ThresholdOrDefault(),
			"hash":               s.config.Hash,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.respondError(w, http.StatusNotImplemented, "cleaning ledger not enabled")
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}
	ctx := r.Context()
	total, err := s.ledger.Count(ctx)
	if err != nil {
		s.logger.Error("ledger: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := s.ledger.List(ctx, offset, limit)
	if err != nil {
		s.logger.Error("ledger: list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.CleanRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"offset":  offset,
		"records": records,
	})
}

// prototypeLabel is the metrics label for a prototype id. Ids the model does
// not have share one label so arbitrary query values cannot grow the series set.
func (s *Server) prototypeLabel(id int) string {
	for _, p := range s.analyzer.Info().Prototypes {
		if p == id {
			return strconv.Itoa(id)
		}
	}
	return "unknown"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// intParam parses an optional integer query parameter; absent means zero.
func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
