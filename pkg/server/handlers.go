package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/archview/pkg/buildinfo"
	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/render"
)

var contentTypes = map[string]string{
	pipeline.FormatMermaid: "text/plain; charset=utf-8",
	pipeline.FormatDOT:     "text/plain; charset=utf-8",
	pipeline.FormatSVG:     "image/svg+xml",
	pipeline.FormatPNG:     "image/png",
	pipeline.FormatPDF:     "application/pdf",
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthBody struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// convertRoute fixes the format of a conversion endpoint and the renderer
// used when the request does not name one.
type convertRoute struct {
	format   string
	renderer string
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleConvert(route convertRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.options(r, route)
		if err != nil {
			writeError(w, err)
			return
		}
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
					Code:    string(apperr.ErrCodeInvalidInput),
					Message: "payload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
				})
				return
			}
			writeError(w, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read body"))
			return
		}
		s.execute(w, r, payload, opts)
	}
}

func (s *Server) handleProjectDiagram(w http.ResponseWriter, r *http.Request) {
	if s.opts.Source == nil {
		writeError(w, apperr.New(apperr.ErrCodeUnsupported, "no project source configured"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := apperr.ValidateProjectID(id); err != nil {
		writeError(w, err)
		return
	}

	route := convertRoute{format: pipeline.FormatMermaid}
	if f := r.URL.Query().Get("format"); f != "" {
		route.format = f
	}
	opts, err := s.options(r, route)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := s.opts.Source.Project(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.HasDiagram() {
		writeError(w, apperr.New(apperr.ErrCodeNoDiagram, "project %q has no architecture diagram yet", p.Name))
		return
	}
	s.execute(w, r, []byte(p.ArchitectureDiagram), opts)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, payload []byte, opts pipeline.Options) {
	res, err := s.opts.Runner.Execute(r.Context(), payload, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[opts.Format])
	if res.CacheInfo.Hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	if res.RenderID != "" {
		h.Set("X-Render-Id", res.RenderID)
	}
	if res.RenderErr != nil {
		s.logger.Warn("serving render error document", "error", res.RenderErr)
		h.Set("X-Render-Error", render.FailureMessage)
	}
	for _, e := range res.Dropped {
		h.Add("X-Dropped-Edge", e.Source+" -> "+e.Target)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Output())
}

// options merges the server defaults, the route and the query string.
func (s *Server) options(r *http.Request, route convertRoute) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Format = route.format
	opts.Refresh = false
	opts.Logger = nil
	if route.renderer != "" {
		opts.Renderer = route.renderer
	}

	q := r.URL.Query()
	if v := q.Get("direction"); v != "" {
		opts.Direction = v
	}
	if v := q.Get("shape"); v != "" {
		opts.Shape = v
	}
	if v := q.Get("renderer"); v != "" {
		opts.Renderer = v
	}
	if v := q.Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apperr.New(apperr.ErrCodeInvalidInput, "invalid strict value %q", v)
		}
		opts.Strict = b
	}
	if v := q.Get("detailed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apperr.New(apperr.ErrCodeInvalidInput, "invalid detailed value %q", v)
		}
		opts.Detailed = b
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func writeError(w http.ResponseWriter, err error) {
	code := apperr.GetCode(err)
	if code == "" {
		code = apperr.ErrCodeInternal
	}
	writeJSON(w, apperr.HTTPStatus(err), errorBody{Code: string(code), Message: apperr.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
