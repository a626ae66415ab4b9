// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/archview/pkg/observability"
)

const namespace = "archview"

// Metrics implements [observability.ConvertHooks], [observability.CacheHooks]
// and [observability.HTTPHooks], and records served requests.
type Metrics struct {
	conversions   *prometheus.CounterVec
	convertTime   *prometheus.HistogramVec
	graphNodes    prometheus.Histogram
	droppedEdges  prometheus.Counter
	collisions    prometheus.Counter
	renders       *prometheus.CounterVec
	renderTime    *prometheus.HistogramVec
	cacheOps      *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	backendReqs   *prometheus.CounterVec
	backendTime   *prometheus.HistogramVec
	backendErrors *prometheus.CounterVec
	served        *prometheus.CounterVec
	serveTime     *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		conversions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "conversions_total",
			Help: "Graph conversions by output format.",
		}, []string{"format"}),
		convertTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "conversion_duration_seconds",
			Help:    "Time spent converting graphs to diagram text.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"format"}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "graph_nodes",
			Help:    "Node count of converted graphs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		droppedEdges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_dropped_edges_total",
			Help: "Edges dropped for referencing unknown nodes.",
		}),
		collisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_id_collisions_total",
			Help: "Node ids whose sanitized form collided.",
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "renders_total",
			Help: "Renderer invocations by renderer and result.",
		}, []string{"renderer", "result"}),
		renderTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "render_duration_seconds",
			Help:    "Renderer latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"renderer"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_operations_total",
			Help: "Cache hits, misses and sets by key type.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		backendReqs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "backend_requests_total",
			Help: "Requests to the backend by path and status.",
		}, []string{"method", "path", "status"}),
		backendTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "backend_request_duration_seconds",
			Help:    "Backend request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		backendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "backend_errors_total",
			Help: "Backend requests that failed without a response.",
		}, []string{"method", "path"}),
		served: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Requests served by route and status.",
		}, []string{"method", "route", "status"}),
		serveTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Latency of served requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs m as the global conversion, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetConvertHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnConvert(_ context.Context, format string, nodes, _ int, d time.Duration) {
	m.conversions.WithLabelValues(format).Inc()
	m.convertTime.WithLabelValues(format).Observe(d.Seconds())
	m.graphNodes.Observe(float64(nodes))
}

func (m *Metrics) OnValidate(_ context.Context, dropped, collisions int) {
	m.droppedEdges.Add(float64(dropped))
	m.collisions.Add(float64(collisions))
}

func (m *Metrics) OnRender(_ context.Context, renderer string, d time.Duration, err error) {
	m.renders.WithLabelValues(renderer, result(err)).Inc()
	m.renderTime.WithLabelValues(renderer).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	m.backendReqs.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.backendTime.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, _, path string, _ error) {
	m.backendErrors.WithLabelValues(method, path).Inc()
}

// ObserveServed records a request handled by the HTTP service.
func (m *Metrics) ObserveServed(method, route string, status int, d time.Duration) {
	m.served.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.serveTime.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.ConvertHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)
