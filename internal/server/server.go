// Package server exposes the document and extraction operations over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/stroydoc/bom-tracker/internal/export"
	"github.com/stroydoc/bom-tracker/internal/extraction"
	"github.com/stroydoc/bom-tracker/internal/parser"
	"github.com/stroydoc/bom-tracker/internal/repository"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type Deps struct {
	Parser     *parser.Parser
	Documents  repository.DocumentRepository
	Facts      repository.FactRepository
	Runs       repository.RunRepository
	Extraction *extraction.Service
	Export     *export.Service
	Health     func(ctx context.Context) error
}

func New(addr string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{deps: deps, logger: logger}

	r := mux.NewRouter()
	r.Use(requestLogging(logger))
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/documents", h.createDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", h.getDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/extract", h.extractDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/facts", h.listFacts).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/bom", h.rollup).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/bom.xlsx", h.exportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", h.getRun).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogging(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("http.request",
				"method", r.Method,
				"path", r.URL.Path,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
