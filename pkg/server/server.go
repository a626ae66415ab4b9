// Package server exposes the diagram pipeline over HTTP.
//
// Routes:
//
//	POST /api/v1/mermaid                 architecture JSON → Mermaid text
//	POST /api/v1/dot                     architecture JSON → Graphviz DOT
//	POST /api/v1/svg                     architecture JSON → SVG (Graphviz by default)
//	GET  /api/v1/projects/{id}/diagram   a backend project's diagram
//	GET  /healthz                        build information
//	GET  /metrics                        Prometheus metrics
//
// Conversion endpoints accept the query parameters direction (TD, LR),
// shape (auto, flat, nested), strict (true, false) and renderer
// (mermaid, graphviz). Errors are JSON objects {"code", "message"}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/archview/pkg/observability/prom"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/source"
)

// Defaults.
const (
	DefaultAddr         = ":8090"
	DefaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Empty means [DefaultAddr].
	Addr string
	// Runner executes conversions. Required.
	Runner *pipeline.Runner
	// Source serves project diagrams. Nil disables the projects route.
	Source source.Source
	// Defaults seeds conversion options before query parameters apply.
	Defaults pipeline.Options
	// MaxBodyBytes caps request payloads. Zero means [DefaultMaxBodyBytes].
	MaxBodyBytes int64
	// Registry backs /metrics. Nil disables metrics.
	Registry *prometheus.Registry
	// Metrics records served requests. Typically built from Registry.
	Metrics *prom.Metrics
	Logger  *log.Logger
}

// Server is the HTTP conversion service.
type Server struct {
	opts       Options
	logger     *log.Logger
	router     chi.Router
	httpServer *http.Server
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{opts: opts, logger: logger}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
