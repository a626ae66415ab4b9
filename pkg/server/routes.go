package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperr "github.com/matzehuels/archview/pkg/errors"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/mermaid", s.handleConvert(convertRoute{format: "mermaid"}))
		r.Post("/dot", s.handleConvert(convertRoute{format: "dot"}))
		r.Post("/svg", s.handleConvert(convertRoute{format: "svg", renderer: "graphviz"}))
		r.Get("/projects/{id}/diagram", s.handleProjectDiagram)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apperr.New(apperr.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: string(apperr.ErrCodeInvalidInput), Message: "method not allowed"})
	})
	return r
}
