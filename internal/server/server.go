// Package server provides the HTTP API for multisense.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/analyzer"
	"github.com/hyperjump/multisense/internal/config"
	"github.com/hyperjump/multisense/internal/storage"
	"github.com/hyperjump/multisense/pkg/utils"
)

// WatchService manages the corpus directories kept cleaned while the server runs.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the multisense API.
type Server struct {
	analyzer   *analyzer.Analyzer
	ledger     storage.Ledger
	watch      WatchService
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies. ledger and watch may
// be nil, in which case their endpoints report that the feature is not enabled.
// When configPath is set, watch directory changes are saved back to it.
func NewServer(
	an *analyzer.Analyzer,
	ledger storage.Ledger,
	watch WatchService,
	cfg *config.Config,
	configPath string,
	logger *zap.Logger,
) *Server {
	return &Server{
		analyzer:   an,
		ledger:     ledger,
		watch:      watch,
		config:     cfg,
		configPath: configPath,
		logger:     utils.OrNop(logger),
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(instrument)

	r.Get("/api/v1/analyze/{word}", s.handleAnalyze)
	r.Get("/api/v1/neighbors/{word}", s.handleNeighbors)
	r.Get("/api/v1/hash", s.handleHash)
	r.Get("/api/v1/model", s.handleModel)
	r.Get("/api/v1/ledger", s.handleLedger)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
