package hfstol

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts lookups.
	// Labels: mode (lookup, match)
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "lookup",
		Name:      "total",
		Help:      "Total lookups by mode",
	}, []string{"mode"})

	// lookupDuration measures the time taken per lookup.
	// Labels: mode
	lookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hfstol",
		Subsystem: "lookup",
		Name:      "duration_seconds",
		Help:      "Lookup duration in seconds",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	}, []string{"mode"})

	// lookupResults tracks the number of results per lookup.
	lookupResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hfstol",
		Subsystem: "lookup",
		Name:      "results",
		Help:      "Distribution of the number of results per lookup",
		Buckets:   []float64{0, 1, 2, 5, 10, 50, 100},
	})

	// lookupCutoffs counts lookups ended by their time cutoff.
	lookupCutoffs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "lookup",
		Name:      "cutoffs_total",
		Help:      "Total lookups ended by the time cutoff",
	})

	// infiniteAmbiguities counts inputs found to be infinitely ambiguous.
	infiniteAmbiguities = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "lookup",
		Name:      "infinite_ambiguities_total",
		Help:      "Total inputs with infinitely many analyses",
	})
)

func observeLookup(mode string, start time.Time, results int, expired bool) {
	lookupsTotal.WithLabelValues(mode).Inc()
	lookupDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	lookupResults.Observe(float64(results))
	if expired {
		lookupCutoffs.Inc()
	}
}
