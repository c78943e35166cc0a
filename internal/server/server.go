// Package server provides the HTTP API for slipsense.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/config"
	"github.com/slipsense/slipsense/internal/patterns"
	"github.com/slipsense/slipsense/internal/pipeline"
)

// Server is the HTTP server for the slipsense API.
type Server struct {
	manager  *patterns.Manager
	pipeline *pipeline.Pipeline
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	manager *patterns.Manager,
	pipe *pipeline.Pipeline,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		manager:  manager,
		pipeline: pipe,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/collections", s.handleListCollections)
	r.Get("/api/v1/collections/{collection}", s.handleListSubCollections)
	r.Get("/api/v1/collections/{collection}/patterns", s.handleCollectionPatterns)
	r.Get("/api/v1/collections/{collection}/{format}", s.handleListPatterns)
	r.Get("/api/v1/collections/{collection}/{format}/patterns/{name}", s.handleGetPattern)
	r.Put("/api/v1/collections/{collection}/{format}/patterns/{name}", s.handlePutPattern)
	r.Delete("/api/v1/collections/{collection}/{format}/patterns/{name}", s.handleDeletePattern)
	r.Post("/api/v1/extract", s.handleExtract)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
