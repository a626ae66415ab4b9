// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through hook interfaces and never import a metrics
// backend. The service registers Prometheus implementations from the prom
// subpackage at startup; the CLI leaves the no-op defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	reg := prometheus.NewRegistry()
//	prom.New(reg).Register()
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	text := mermaid.ToMermaid(g, opts)
//	observability.Convert().OnConvert(ctx, "mermaid", g.NodeCount(), g.EdgeCount(), time.Since(start))
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// ConvertHooks receives diagram conversion and render events.
type ConvertHooks interface {
	// OnConvert records one graph-to-text conversion. format is "mermaid"
	// or "dot".
	OnConvert(ctx context.Context, format string, nodes, edges int, duration time.Duration)
	// OnValidate records how many edges the strict pre-pass dropped and how
	// many sanitized ids collided.
	OnValidate(ctx context.Context, droppedEdges, collisions int)
	OnRender(ctx context.Context, renderer string, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is the cache namespace:
// "project" for backend project lists, "diagram" for converted output.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events for requests to the backend.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records transport failures; HTTP error statuses arrive
	// through OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopConvertHooks struct{}

func (NoopConvertHooks) OnConvert(context.Context, string, int, int, time.Duration) {}
func (NoopConvertHooks) OnValidate(context.Context, int, int)                      {}
func (NoopConvertHooks) OnRender(context.Context, string, time.Duration, error)    {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// slot holds one registered hook implementation. Reads are lock-free since
// hooks fire on every conversion and request.
type slot[T any] struct {
	v    atomic.Pointer[T]
	noop T
}

func (s *slot[T]) get() T {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return s.noop
}

func (s *slot[T]) set(h T) { s.v.Store(&h) }

func (s *slot[T]) reset() { s.v.Store(nil) }

var (
	convertSlot = slot[ConvertHooks]{noop: NoopConvertHooks{}}
	cacheSlot   = slot[CacheHooks]{noop: NoopCacheHooks{}}
	httpSlot    = slot[HTTPHooks]{noop: NoopHTTPHooks{}}
)

// SetConvertHooks registers h. A nil h is ignored.
func SetConvertHooks(h ConvertHooks) {
	if h != nil {
		convertSlot.set(h)
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks registers h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

func Convert() ConvertHooks { return convertSlot.get() }
func Cache() CacheHooks     { return cacheSlot.get() }
func HTTP() HTTPHooks       { return httpSlot.get() }

// Reset restores the no-op hooks. Tests that register metrics call it in
// cleanup.
func Reset() {
	convertSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
