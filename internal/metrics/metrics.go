// Package metrics exposes Prometheus instrumentation for the suggestion
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SuggestionsGenerated counts suggestions persisted by generation batches.
	SuggestionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignment_suggestions_generated_total",
		Help: "Suggestions persisted by generation batches.",
	})

	// SuggestionsAccepted counts accepted suggestions.
	SuggestionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignment_suggestions_accepted_total",
		Help: "Suggestions accepted into assignments.",
	})

	// SuggestionsRejected counts rejected suggestions.
	SuggestionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignment_suggestions_rejected_total",
		Help: "Suggestions rejected by schedulers.",
	})

	// AcceptConflicts counts accepts refused because the game was already
	// assigned.
	AcceptConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignment_suggestion_accept_conflicts_total",
		Help: "Accept attempts refused because the game already had an active assignment.",
	})

	// GenerationDuration observes end-to-end batch generation time.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_suggestion_generation_duration_seconds",
		Help:    "End-to-end suggestion batch generation time.",
		Buckets: prometheus.DefBuckets,
	})

	// SuggestionsSwept counts suggestions removed by the retention sweep.
	SuggestionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignment_suggestions_swept_total",
		Help: "Processed suggestions removed by the retention sweep.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
