// Package backend is a client for the requirements-analysis backend.
//
// The backend owns projects and every generated artifact. This client reads
// the project list, single projects with their architecture diagram, and the
// effort-estimation spreadsheet link. Authentication happens elsewhere: the
// caller passes the session cookie header the backend issued at login.
//
// Responses are cached through a [cache.Cache] and transient failures
// (transport errors, 5xx, 429) are retried according to an
// [httputil.Policy].
package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/archview/pkg/cache"
	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/graph"
	"github.com/matzehuels/archview/pkg/httputil"
	"github.com/matzehuels/archview/pkg/observability"
	"github.com/matzehuels/archview/pkg/source"
)

// DefaultURL is used when no backend URL is configured.
const DefaultURL = "http://localhost:8080"

// Estimation is the backend's answer to an estimation request.
type Estimation struct {
	Message string `json:"message"`
	URL     string `json:"effortEstimationUrl"`
}

// Options configures a [Client].
type Options struct {
	// Cookie is sent verbatim as the Cookie header.
	Cookie string
	// Cache stores list responses. Nil disables caching.
	Cache cache.Cache
	// Keyer derives cache keys. Nil uses a keyer scoped to the base URL.
	Keyer cache.Keyer
	// TTL for cached responses. Zero uses [cache.ProjectTTL].
	TTL time.Duration
	// Retry policy for transient failures. Zero value makes one attempt.
	Retry httputil.Policy
	// HTTPClient overrides the default client with a 10s timeout.
	HTTPClient *http.Client
}

// Client talks to the backend over HTTP JSON.
type Client struct {
	base    *url.URL
	http    *http.Client
	cookie  string
	cache   cache.Cache
	keys    cache.Keyer
	ttl     time.Duration
	retry   httputil.Policy
	refresh bool
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if err := apperr.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "backend url")
	}

	c := &Client{
		base:   u,
		http:   opts.HTTPClient,
		cookie: opts.Cookie,
		cache:  opts.Cache,
		keys:   opts.Keyer,
		ttl:    opts.TTL,
		retry:  opts.Retry,
	}
	if c.http == nil {
		c.http = httputil.NewHTTPClient(0)
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keys == nil {
		c.keys = cache.NewScopedKeyer(nil, "backend:"+cache.Hash([]byte(u.String()))[:12]+":")
	}
	if c.ttl <= 0 {
		c.ttl = cache.ProjectTTL
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Refreshing returns a copy of c that bypasses cached reads.
func (c *Client) Refreshing() *Client {
	cp := *c
	cp.refresh = true
	return &cp
}

// Projects returns the projects visible to the session, as served by
// GET /project.
func (c *Client) Projects(ctx context.Context) ([]source.Project, error) {
	data, err := c.cachedGet(ctx, "project", "/project")
	if err != nil {
		return nil, err
	}
	var projects []source.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "decode project list")
	}
	return projects, nil
}

// Project returns the project with the given id from the project list.
func (c *Client) Project(ctx context.Context, id string) (*source.Project, error) {
	if err := apperr.ValidateProjectID(id); err != nil {
		return nil, err
	}
	projects, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}
	return source.Find(projects, id)
}

// Diagram returns the decoded architecture diagram of a project.
func (c *Client) Diagram(ctx context.Context, id string, shape graph.Shape) (*graph.Graph, *source.Project, error) {
	return source.Diagram(ctx, c, id, shape)
}

// Estimation asks the backend for the project's estimation spreadsheet
// link (GET /estimation/{id}). It is never cached: the link may be
// short-lived.
func (c *Client) Estimation(ctx context.Context, id string) (*Estimation, error) {
	if err := apperr.ValidateProjectID(id); err != nil {
		return nil, err
	}
	data, err := c.get(ctx, "/estimation/"+url.PathEscape(id))
	if err != nil {
		if apperr.Is(err, apperr.ErrCodeNotFound) {
			return nil, apperr.Wrap(apperr.ErrCodeProjectNotFound, err, "no estimation for project %s", id)
		}
		return nil, err
	}
	var e Estimation
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "decode estimation")
	}
	if e.URL == "" {
		return nil, apperr.New(apperr.ErrCodeNotFound, "backend returned no estimation url for %s", id)
	}
	return &e, nil
}

// Download streams the resource at rawURL into w. Relative URLs resolve
// against the backend. The session cookie is only sent to the backend host.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "download url")
	}
	target := c.base.ResolveReference(ref)

	var n int64
	err = c.retry.Do(ctx, func() error {
		body, err := c.open(ctx, target)
		if err != nil {
			return err
		}
		defer body.Close()
		n, err = io.Copy(w, body)
		return err
	})
	return n, err
}

func (c *Client) cachedGet(ctx context.Context, ns, path string) ([]byte, error) {
	key := c.keys.HTTPKey(ns, path)
	hooks := observability.Cache()
	if !c.refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			hooks.OnCacheHit(ctx, ns)
			return data, nil
		}
		hooks.OnCacheMiss(ctx, ns)
	}
	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		hooks.OnCacheSet(ctx, ns, len(data))
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	target := c.base.JoinPath(path)
	var data []byte
	err := c.retry.Do(ctx, func() error {
		body, err := c.open(ctx, target)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return httputil.TransportError(err)
		}
		return nil
	})
	return data, err
}

func (c *Client) open(ctx context.Context, target *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" && target.Host == c.base.Host {
		req.Header.Set("Cookie", c.cookie)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, target.Host, target.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, target.Host, target.Path, err)
		return nil, httputil.TransportError(err)
	}
	hooks.OnResponse(ctx, req.Method, target.Host, target.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

var _ source.Source = (*Client)(nil)
