package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archview/pkg/cache"
	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/observability/prom"
	"github.com/matzehuels/archview/pkg/pipeline"
	"github.com/matzehuels/archview/pkg/render"
	"github.com/matzehuels/archview/pkg/source"
)

const diagramJSON = `{"nodes":[{"id":"API","attributes":{"type":"backend","technology":"Go"}},{"id":"Store","attributes":{"type":"database"}}],"edges":[{"source":"API","target":"Store","attributes":{"protocol":"TCP"}},{"source":"API","target":"Queue","attributes":{"protocol":"AMQP"}}]}`

type fakeSource map[string]source.Project

func (f fakeSource) Projects(context.Context) ([]source.Project, error) {
	var out []source.Project
	for _, p := range f {
		out = append(out, p)
	}
	return out, nil
}

func (f fakeSource) Project(_ context.Context, id string) (*source.Project, error) {
	p, ok := f[id]
	if !ok {
		return nil, apperr.New(apperr.ErrCodeProjectNotFound, "project %s not found", id)
	}
	return &p, nil
}

type testEnv struct {
	srv     *Server
	reg     *prometheus.Registry
	renders int
}

func newTestServer(t *testing.T, renderErr error) *testEnv {
	t.Helper()
	c, err := cache.NewMemoryCache(32)
	require.NoError(t, err)

	env := &testEnv{reg: prometheus.NewRegistry()}
	runner := pipeline.NewRunner(c, nil, nil)
	runner.IDs = &render.SequenceGenerator{Prefix: "svg"}
	runner.Graphviz = render.RendererFunc(func(_ context.Context, id, _ string) ([]byte, error) {
		env.renders++
		if renderErr != nil {
			return nil, renderErr
		}
		return []byte(`<svg id="` + id + `"></svg>`), nil
	})

	srv, err := New(Options{
		Runner:       runner,
		Source:       fakeSource{"p1": {ID: "p1", Name: "Shop", ArchitectureDiagram: diagramJSON}, "p2": {ID: "p2", Name: "Empty"}},
		Defaults:     pipeline.Options{Strict: true},
		MaxBodyBytes: 4096,
		Registry:     env.reg,
		Metrics:      prom.New(env.reg),
	})
	require.NoError(t, err)
	env.srv = srv
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewRequiresRunner(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
}

func TestConvertMermaid(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/mermaid?direction=LR", diagramJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, []string{"API -> Queue"}, rec.Header().Values("X-Dropped-Edge"))

	want := "graph LR\n" +
		"subgraph BACKEND\n" +
		"  API[\"API\n(Go)\"]\n" +
		"end\n" +
		"subgraph DATABASE\n" +
		"  Store[(Store)]\n" +
		"end\n" +
		"API -->|TCP| Store\n"
	assert.Equal(t, want, rec.Body.String())

	again := env.do(t, http.MethodPost, "/api/v1/mermaid?direction=LR", diagramJSON)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, want, again.Body.String())
	assert.Equal(t, []string{"API -> Queue"}, again.Header().Values("X-Dropped-Edge"))
}

func TestConvertLenient(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/mermaid?strict=false", diagramJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "API -->|AMQP| Queue\n")
	assert.Empty(t, rec.Header().Values("X-Dropped-Edge"))
}

func TestConvertNested(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/mermaid?shape=nested", `{"diagram":`+diagramJSON+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph TD\n"))
}

func TestConvertEmptyGraph(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/mermaid", `{"nodes":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestConvertDOT(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/dot", diagramJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"API" -> "Store" [label="TCP"];`)
	assert.NotContains(t, rec.Body.String(), "Queue")
}

func TestConvertSVG(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/svg", diagramJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "svg-1", rec.Header().Get("X-Render-Id"))
	assert.Equal(t, `<svg id="svg-1"></svg>`, rec.Body.String())
	assert.Equal(t, 1, env.renders)
}

func TestConvertSVGRenderFailure(t *testing.T) {
	env := newTestServer(t, errors.New("dot: syntax error"))
	rec := env.do(t, http.MethodPost, "/api/v1/svg", diagramJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, render.FailureMessage, rec.Header().Get("X-Render-Error"))
	assert.Contains(t, rec.Body.String(), render.FailureMessage)
}

func TestConvertErrors(t *testing.T) {
	env := newTestServer(t, nil)
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   apperr.Code
	}{
		{"malformed json", "/api/v1/mermaid", `{"nodes":`, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"bad direction", "/api/v1/mermaid?direction=RL", diagramJSON, http.StatusBadRequest, apperr.ErrCodeInvalidDirection},
		{"bad shape", "/api/v1/mermaid?shape=deep", diagramJSON, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"bad strict", "/api/v1/mermaid?strict=maybe", diagramJSON, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"bad renderer", "/api/v1/svg?renderer=canvas", diagramJSON, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"too large", "/api/v1/mermaid", strings.Repeat(" ", 5000), http.StatusRequestEntityTooLarge, apperr.ErrCodeInvalidInput},
		{"unknown route", "/api/v1/png", diagramJSON, http.StatusNotFound, apperr.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, string(tt.code), decodeError(t, rec).Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestServer(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/mermaid", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProjectDiagram(t *testing.T) {
	env := newTestServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p1/diagram", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph TD\nsubgraph BACKEND\n"))

	rec = env.do(t, http.MethodGet, "/api/v1/projects/p1/diagram?format=dot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "digraph G {\n"))

	tests := []struct {
		target string
		status int
		code   apperr.Code
	}{
		{"/api/v1/projects/p2/diagram", http.StatusNotFound, apperr.ErrCodeNoDiagram},
		{"/api/v1/projects/nope/diagram", http.StatusNotFound, apperr.ErrCodeProjectNotFound},
		{"/api/v1/projects/-bad/diagram", http.StatusBadRequest, apperr.ErrCodeInvalidProjectID},
		{"/api/v1/projects/p1/diagram?format=gif", http.StatusBadRequest, apperr.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, tt.target, "")
		assert.Equal(t, tt.status, rec.Code, tt.target)
		assert.Equal(t, string(tt.code), decodeError(t, rec).Code, tt.target)
	}
}

func TestProjectDiagramWithoutSource(t *testing.T) {
	env := newTestServer(t, nil)
	env.srv.opts.Source = nil
	rec := env.do(t, http.MethodGet, "/api/v1/projects/p1/diagram", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, string(apperr.ErrCodeUnsupported), decodeError(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/mermaid", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t, nil)
	env.do(t, http.MethodPost, "/api/v1/mermaid", diagramJSON)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `archview_http_requests_total{method="POST",route="/api/v1/mermaid",status="200"} 1`)
}

func TestListenAndServeShutdown(t *testing.T) {
	env := newTestServer(t, nil)
	env.srv.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
