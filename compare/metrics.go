package compare

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowStatusMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idxqc",
		Subsystem: "compare",
		Name:      "delta_row_status",
		Help:      "Status of rows that have been compared.",
	}, []string{"status"})
	comparisonsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idxqc",
		Subsystem: "compare",
		Name:      "comparisons",
		Help:      "Number of table comparisons by outcome.",
	}, []string{"outcome"})
)

func init() {
	// Initialise each metric by default.
	for _, s := range []string{"extraneous", "missing", "mismatching", "success"} {
		rowStatusMetric.WithLabelValues(s)
	}
	for _, s := range []string{"structure_mismatch", "value_mismatch", "match", "error"} {
		comparisonsMetric.WithLabelValues(s)
	}
}
