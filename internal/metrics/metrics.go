// Package metrics exposes Prometheus collectors for coin movements, workflow
// transitions and HTTP latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CoinsMoved counts coins credited or debited, by ledger entry type.
	CoinsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcoin_ledger_coins_total",
		Help: "Coins moved through the account ledger by entry type.",
	}, []string{"entry_type"})

	// Transitions counts committed state changes per entity.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcoin_transitions_total",
		Help: "Committed state transitions by entity and resulting status.",
	}, []string{"entity", "status"})

	// Rejections counts operations refused with a domain error.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcoin_rejections_total",
		Help: "Operations refused by the services, by operation and error kind.",
	}, []string{"operation", "kind"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskcoin_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RecordMovement adds a committed ledger movement.
func RecordMovement(entryType string, coins int64) {
	if coins <= 0 {
		return
	}
	CoinsMoved.WithLabelValues(entryType).Add(float64(coins))
}

// RecordTransition increments the transition counter for entity/status.
func RecordTransition(entity, status string) {
	Transitions.WithLabelValues(entity, status).Inc()
}

// RecordRejection increments the rejection counter.
func RecordRejection(operation, kind string) {
	Rejections.WithLabelValues(operation, kind).Inc()
}

// Middleware observes request latency labelled by the matched chi route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
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
		HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
