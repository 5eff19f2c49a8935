package pmatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// inputsTotal counts inputs run through a container.
	inputsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "pmatch",
		Name:      "inputs_total",
		Help:      "Total inputs matched",
	})

	// matchesTotal counts matches which consumed input.
	matchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "pmatch",
		Name:      "matches_total",
		Help:      "Total matches consuming input",
	})

	// rtnCalls counts calls of sub-networks.
	rtnCalls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "pmatch",
		Name:      "rtn_calls_total",
		Help:      "Total calls of named sub-networks",
	})

	// inputCutoffs counts inputs whose matching hit the time cutoff.
	inputCutoffs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hfstol",
		Subsystem: "pmatch",
		Name:      "cutoffs_total",
		Help:      "Total inputs ended by the time cutoff",
	})

	// inputDuration measures the time taken per input.
	inputDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hfstol",
		Subsystem: "pmatch",
		Name:      "duration_seconds",
		Help:      "Matching duration per input in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

func observeInput(start time.Time, matches int, expired bool) {
	inputsTotal.Inc()
	matchesTotal.Add(float64(matches))
	inputDuration.Observe(time.Since(start).Seconds())
	if expired {
		inputCutoffs.Inc()
	}
}
