// Package metrics exposes engine and HTTP measurements to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements core.MetricsRecorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	loads         *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	loadedEntries *prometheus.GaugeVec
	visible       prometheus.Gauge
	views         prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers every collector under namespace.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset loads by driver and result.",
		}, []string{"driver", "result"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent reading a selection from the source.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"driver"}),
		loadedEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_entries",
			Help:      "Entries in the loaded selection.",
		}, []string{"year", "round"}),
		visible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_visible_entries",
			Help:      "Entries passing the filters at the last view.",
		}),
		views: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_views_total",
			Help:      "Views rendered from the loaded dataset.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		r.loads, r.loadDuration, r.loadedEntries, r.visible, r.views,
		r.requests, r.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveLoad records one load attempt.
func (r *Recorder) ObserveLoad(sel core.Selection, driver string, d time.Duration, entries int, err error) {
	r.loads.WithLabelValues(driver, loadResult(err)).Inc()
	r.loadDuration.WithLabelValues(driver).Observe(d.Seconds())
	if err != nil {
		return
	}
	r.loadedEntries.Reset()
	r.loadedEntries.WithLabelValues(strconv.Itoa(int(sel.Year)), strconv.Itoa(int(sel.Round))).Set(float64(entries))
}

// ObserveView records the size of a rendered view.
func (r *Recorder) ObserveView(_ core.Selection, visible int) {
	r.views.Inc()
	r.visible.Set(float64(visible))
}

// loadResult classifies a load error into a low-cardinality label.
func loadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, core.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, core.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, core.ErrTooManyLoads):
		return "too_many_loads"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Middleware counts requests per chi route pattern, so path parameters do
// not explode the label set.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
