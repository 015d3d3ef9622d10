// Package metrics exposes Prometheus instruments for the attempt loop and
// the search coordinator. Instruments are registered on the default
// registry at init; Handler serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Attempts counts finished attempts by outcome ("solved", "empty").
	Attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckminer_attempts_total",
		Help: "Finished search attempts by outcome",
	}, []string{"outcome"})

	// SurvivingEdges tracks edges handed to the search per attempt.
	SurvivingEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cuckminer_surviving_edges",
		Help:    "Edges surviving trimming per attempt",
		Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1Ki to 2Mi
	})

	// DroppedEdges counts survivors discarded for lack of capacity.
	DroppedEdges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuckminer_dropped_edges_total",
		Help: "Surviving edges dropped because MaxEdges was exceeded",
	})

	// Searches counts root searches started by the cycle searchers.
	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuckminer_root_searches_total",
		Help: "Cycle searches started (edges whose both partners were present)",
	})

	// SearchDuration tracks the CPU side of an attempt.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cuckminer_search_duration_seconds",
		Help:    "Wall time from search dispatch to the last worker finishing",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// TrimWait tracks how long the attempt loop waited on the trimmer.
	TrimWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cuckminer_trim_wait_seconds",
		Help:    "Time blocked waiting for a trimming result",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)

// ObserveAttempt records one finished attempt.
func ObserveAttempt(solved bool, edges int, elapsed time.Duration) {
	if solved {
		Attempts.WithLabelValues("solved").Inc()
	} else {
		Attempts.WithLabelValues("empty").Inc()
	}
	SurvivingEdges.Observe(float64(edges))
	SearchDuration.Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes Handler on addr under /metrics until the listener fails.
// An empty addr disables the endpoint.
func Serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
