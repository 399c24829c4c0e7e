package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}

func TestRecorder_Normalized(t *testing.T) {
	before := testutil.ToFloat64(NormalizeTotal)
	fbBefore := testutil.ToFloat64(NormalizeFallbacksTotal.WithLabelValues("gender"))

	NewRecorder().Normalized([]string{"gender"})

	if got := testutil.ToFloat64(NormalizeTotal); got != before+1 {
		t.Errorf("normalize_total = %f, want %f", got, before+1)
	}
	if got := testutil.ToFloat64(NormalizeFallbacksTotal.WithLabelValues("gender")); got != fbBefore+1 {
		t.Errorf("normalize_fallbacks_total = %f, want %f", got, fbBefore+1)
	}
}

func TestRecorder_Validated(t *testing.T) {
	validBefore := testutil.ToFloat64(ValidationsTotal.WithLabelValues("valid"))
	invalidBefore := testutil.ToFloat64(ValidationsTotal.WithLabelValues("invalid"))
	ageBefore := testutil.ToFloat64(ValidationViolationsTotal.WithLabelValues("age"))

	r := NewRecorder()
	r.Validated(true, nil)
	r.Validated(false, []string{"age", "age"})

	if got := testutil.ToFloat64(ValidationsTotal.WithLabelValues("valid")); got != validBefore+1 {
		t.Errorf("valid = %f", got)
	}
	if got := testutil.ToFloat64(ValidationsTotal.WithLabelValues("invalid")); got != invalidBefore+1 {
		t.Errorf("invalid = %f", got)
	}
	if got := testutil.ToFloat64(ValidationViolationsTotal.WithLabelValues("age")); got != ageBefore+2 {
		t.Errorf("violations{age} = %f", got)
	}
}

func TestRecorder_ImportancesAggregated(t *testing.T) {
	before := testutil.ToFloat64(ImportanceAggregationsTotal)
	NewRecorder().ImportancesAggregated()
	if got := testutil.ToFloat64(ImportanceAggregationsTotal); got != before+1 {
		t.Errorf("importance_aggregations_total = %f", got)
	}
}
