// Package metrics provides the Prometheus collectors for Folio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starford/folio/internal/richtext"
)

const namespace = "folio"

// Collector holds all Prometheus metrics.
type Collector struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	Diagnostics    *prometheus.CounterVec

	DocumentEvents *prometheus.CounterVec
	UpstreamErrors *prometheus.CounterVec
	MediaSync      *prometheus.CounterVec
}

// New creates a collector on its own registry, with the Go and process
// collectors added.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers every metric on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		RendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "richtext_renders_total",
				Help:      "Rich-text renders by outcome",
			},
			[]string{"outcome"},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "richtext_render_duration_seconds",
				Help:      "Rich-text render duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "richtext_diagnostics_total",
				Help:      "Rich-text diagnostics by kind",
			},
			[]string{"kind"},
		),

		DocumentEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_events_total",
				Help:      "Document change events by collection and kind",
			},
			[]string{"collection", "kind"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Failed calls to the image-hosting API",
			},
			[]string{"type"},
		),
		MediaSync: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_sync_total",
				Help:      "Media directory changes applied to the store",
			},
			[]string{"op"},
		),
	}
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

// ObserveRender records one render result.
func (c *Collector) ObserveRender(res *richtext.Result, elapsed time.Duration) {
	outcome := "ok"
	if res.Failed {
		outcome = "failed"
	}
	c.RendersTotal.WithLabelValues(outcome).Inc()
	c.RenderDuration.Observe(elapsed.Seconds())
	for _, d := range res.Diagnostics {
		c.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
}

// Middleware records request counts and latency labelled by chi route
// pattern, so path parameters do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
