// Package metrics holds the Prometheus collectors of the featurekit service.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "featurekit"

// Feature engine metrics.
var (
	NormalizeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_total",
			Help:      "Total number of normalized payloads",
		},
	)

	NormalizeFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_fallbacks_total",
			Help:      "Values replaced by the feature default during normalization",
		},
		[]string{"feature"},
	)

	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of payload validations",
		},
		[]string{"result"}, // "valid" / "invalid"
	)

	ValidationViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_violations_total",
			Help:      "Validation violations by feature",
		},
		[]string{"feature"},
	)

	ImportanceAggregationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "importance_aggregations_total",
			Help:      "Total number of importance aggregations",
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestDuration,
		httpRequestsTotal,
		httpRequestsInFlight,
		NormalizeTotal,
		NormalizeFallbacksTotal,
		ValidationsTotal,
		ValidationViolationsTotal,
		ImportanceAggregationsTotal,
	}
}

// Register registers every featurekit collector. Must be called once from main.
// Collectors already present on reg are tolerated.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register metrics: %w", err)
		}
	}
	return nil
}

// Recorder reports feature engine outcomes to the package collectors.
type Recorder struct{}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Normalized records one normalized payload and its default fallbacks.
func (*Recorder) Normalized(fallbacks []string) {
	NormalizeTotal.Inc()
	for _, name := range fallbacks {
		NormalizeFallbacksTotal.WithLabelValues(name).Inc()
	}
}

// Validated records one validation and the features that failed it.
func (*Recorder) Validated(valid bool, violated []string) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	ValidationsTotal.WithLabelValues(result).Inc()
	for _, name := range violated {
		ValidationViolationsTotal.WithLabelValues(name).Inc()
	}
}

// ImportancesAggregated records one importance aggregation.
func (*Recorder) ImportancesAggregated() {
	ImportanceAggregationsTotal.Inc()
}
