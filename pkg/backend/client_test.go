package backend

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/archview/pkg/cache"
	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/httputil"
)

const projectList = `[
  {"_id":"p1","name":"Shop","createdAt":"2025-03-01T10:00:00Z","__v":2,
   "architectureDiagram":"{\"nodes\":[{\"id\":\"Web App\",\"attributes\":{\"type\":\"frontend\"}}],\"edges\":[]}",
   "effortEstimationUrl":"https://files.example.com/p1.xlsx"},
  {"_id":"p2","name":"Blog","createdAt":"2025-03-02T10:00:00Z","__v":0}
]`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProjects(t *testing.T) {
	var gotCookie string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project" {
			http.NotFound(w, r)
			return
		}
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(projectList))
	})

	c, err := New(srv.URL, Options{Cookie: "token=abc"})
	if err != nil {
		t.Fatal(err)
	}
	projects, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Shop" || projects[0].Revision != 2 {
		t.Errorf("Projects = %+v", projects)
	}
	if gotCookie != "token=abc" {
		t.Errorf("Cookie = %q", gotCookie)
	}
}

func TestProjectAndDiagram(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(projectList))
	})
	c, _ := New(srv.URL, Options{})
	ctx := context.Background()

	p, err := c.Project(ctx, "p2")
	if err != nil || p.Name != "Blog" {
		t.Fatalf("Project(p2) = %+v, %v", p, err)
	}
	if _, err := c.Project(ctx, "p9"); !apperr.Is(err, apperr.ErrCodeProjectNotFound) {
		t.Errorf("Project(p9) error = %v", err)
	}

	g, p, err := c.Diagram(ctx, "p1", graph.ShapeAuto)
	if err != nil {
		t.Fatalf("Diagram: %v", err)
	}
	if p.ID != "p1" || g.NodeCount() != 1 || g.Nodes[0].Attributes.Type != "frontend" {
		t.Errorf("Diagram = %+v", g)
	}
	if _, _, err := c.Diagram(ctx, "p2", graph.ShapeAuto); !apperr.Is(err, apperr.ErrCodeNoDiagram) {
		t.Errorf("Diagram(p2) error = %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Code
	}{
		{http.StatusUnauthorized, apperr.ErrCodeUnauthorized},
		{http.StatusForbidden, apperr.ErrCodeForbidden},
		{http.StatusNotFound, apperr.ErrCodeNotFound},
		{http.StatusInternalServerError, apperr.ErrCodeNetwork},
	}
	for _, tt := range tests {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		c, _ := New(srv.URL, Options{})
		_, err := c.Projects(context.Background())
		if !apperr.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %s", tt.status, err, tt.want)
		}
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})
	c, _ := New(srv.URL, Options{Retry: httputil.Policy{Attempts: 3, Delay: time.Millisecond}})

	projects, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) != 0 || calls.Load() != 3 {
		t.Errorf("projects=%d calls=%d", len(projects), calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := New(srv.URL, Options{Retry: httputil.Policy{Attempts: 3, Delay: time.Millisecond}})
	_, _ = c.Projects(context.Background())
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestProjectsCached(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(projectList))
	})
	mem, _ := cache.NewMemoryCache(8)
	c, _ := New(srv.URL, Options{Cache: mem})
	ctx := context.Background()

	for range 3 {
		if _, err := c.Projects(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", calls.Load())
	}

	if _, err := c.Refreshing().Projects(ctx); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("Refreshing did not bypass cache (calls=%d)", calls.Load())
	}
}

func TestEstimation(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/estimation/p1":
			w.Write([]byte(`{"message":"ok","effortEstimationUrl":"/files/p1.xlsx"}`))
		case "/files/p1.xlsx":
			if r.Header.Get("Cookie") != "s=1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte("XLSX"))
		default:
			http.NotFound(w, r)
		}
	})
	c, _ := New(srv.URL, Options{Cookie: "s=1"})
	ctx := context.Background()

	e, err := c.Estimation(ctx, "p1")
	if err != nil {
		t.Fatalf("Estimation: %v", err)
	}
	if e.Message != "ok" || e.URL != "/files/p1.xlsx" {
		t.Errorf("Estimation = %+v", e)
	}

	var buf bytes.Buffer
	n, err := c.Download(ctx, e.URL, &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != 4 || buf.String() != "XLSX" {
		t.Errorf("Download wrote %d bytes: %q", n, buf.String())
	}

	if _, err := c.Estimation(ctx, "p2"); !apperr.Is(err, apperr.ErrCodeProjectNotFound) {
		t.Errorf("Estimation(p2) error = %v", err)
	}
}

func TestCookieNotSentToOtherHosts(t *testing.T) {
	var leaked atomic.Bool
	files := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "" {
			leaked.Store(true)
		}
		w.Write([]byte("data"))
	})
	api := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, _ := New(api.URL, Options{Cookie: "secret=1"})
	if _, err := c.Download(context.Background(), files.URL+"/x.xlsx", &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if leaked.Load() {
		t.Error("session cookie sent to foreign host")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("ftp://example.com", Options{}); !apperr.Is(err, apperr.ErrCodeInvalidInput) {
		t.Errorf("New(ftp) error = %v", err)
	}
	c, err := New("", Options{})
	if err != nil || c.BaseURL() != DefaultURL {
		t.Errorf("New(\"\") = %v, %v", c, err)
	}
}

func TestInvalidProjectID(t *testing.T) {
	c, _ := New("http://localhost:1", Options{})
	_, err := c.Project(context.Background(), "../../etc")
	if !apperr.Is(err, apperr.ErrCodeInvalidProjectID) {
		t.Errorf("error = %v", err)
	}
	_, err = c.Estimation(context.Background(), "")
	if !apperr.Is(err, apperr.ErrCodeInvalidProjectID) {
		t.Errorf("error = %v", err)
	}
}
