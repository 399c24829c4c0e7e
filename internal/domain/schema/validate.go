package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/featurekit/internal/domain/feature"
)

// Violation is one validation failure tied to its feature.
type Violation struct {
	Feature string
	Message string
}

// Validate checks the payload against the schema without modifying it.
// Every violation is reported, in canonical feature order.
func (s *Schema) Validate(payload Payload) (bool, []string) {
	violations := s.Violations(payload)
	errs := make([]string, len(violations))
	for i, v := range violations {
		errs[i] = v.Message
	}
	return len(errs) == 0, errs
}

// Violations is Validate returning structured entries.
func (s *Schema) Violations(payload Payload) []Violation {
	var out []Violation
	add := func(name, msg string) {
		out = append(out, Violation{Feature: name, Message: msg})
	}

	for _, f := range s.features {
		name := f.Name()
		value, ok := payload[name]
		if !ok {
			add(name, fmt.Sprintf("Missing feature '%s'", name))
			continue
		}

		switch f.FieldType() {
		case feature.Numeric:
			n, ok := value.AsFloat()
			if !ok {
				add(name, fmt.Sprintf("Feature '%s' must be numeric", name))
				continue
			}
			// min > max is a schema authoring error; both messages may fire.
			if lo, ok := f.Minimum(); ok && n < lo {
				add(name, fmt.Sprintf("Feature '%s' must be >= %s", name, formatBound(lo)))
			}
			if hi, ok := f.Maximum(); ok && n > hi {
				add(name, fmt.Sprintf("Feature '%s' must be <= %s", name, formatBound(hi)))
			}
		case feature.Categorical:
			cats := f.Categories()
			if len(cats) > 0 && !f.HasCategory(value.Canonical()) {
				add(name, fmt.Sprintf("Feature '%s' must be one of %s", name, strings.Join(cats, ", ")))
			}
		}
	}
	return out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
