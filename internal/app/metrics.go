package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	outcomeResolved = "resolved"
	outcomeFallback = "fallback"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikihop_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikihop_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	wikiResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikihop_wiki_resolutions_total",
		Help: "Wiki lookups from a page path by outcome",
	}, []string{"outcome"}) // outcome=resolved|fallback

	wikiSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikihop_wiki_switches_total",
		Help: "Wiki switch redirects by requested wiki",
	}, []string{"wiki"}) // wiki=<known key>|unknown

	fragmentRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikihop_fragment_renders_total",
		Help: "Fragment template executions (cache misses for header and footer)",
	}, []string{"fragment"})
)

func recordResolution(fallback bool) {
	if fallback {
		wikiResolutions.WithLabelValues(outcomeFallback).Inc()
		return
	}
	wikiResolutions.WithLabelValues(outcomeResolved).Inc()
}

// Metrics records request latency by chi route pattern, which keeps label
// cardinality bounded.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		})
	}
}
