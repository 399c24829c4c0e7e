package feature

import (
	"fmt"
	"math"
	"strings"
)

// Type is the declared value type of a feature.
type Type string

// Feature type constants.
const (
	Numeric     Type = "numeric"
	Binary      Type = "binary"
	Categorical Type = "categorical"
)

// IsKnown reports whether the type has a dedicated normalization rule.
func (t Type) IsKnown() bool {
	return t == Numeric || t == Binary || t == Categorical
}

// CoercionPolicy names how a feature resolves values it cannot coerce.
type CoercionPolicy string

// DefaultOnFailure replaces anything that cannot be coerced with the feature default.
// It is the only policy: normalization never rejects a single field.
const DefaultOnFailure CoercionPolicy = "default_on_failure"

// roundingScale is 10^4, i.e. four decimal digits.
const roundingScale = 1e4

var (
	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "y": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "n": true}
)

// Feature is an immutable value object describing one declared input column.
type Feature struct {
	name       string
	fieldType  Type
	def        Value
	categories []string
	catSet     map[string]struct{}
	minimum    *float64
	maximum    *float64
}

// New validates and creates a Feature.
// Name must be non-empty. Categories are canonicalized (trimmed, lower-cased, de-duplicated).
// Bounds only take effect for numeric features. Unknown types are accepted and normalize as identity.
func New(name string, ft Type, def Value, categories []string, minimum, maximum *float64) (Feature, error) {
	if strings.TrimSpace(name) == "" {
		return Feature{}, fmt.Errorf("feature name is required")
	}
	if ft == "" {
		return Feature{}, fmt.Errorf("feature %q: type is required", name)
	}
	for _, b := range []*float64{minimum, maximum} {
		if b != nil && (math.IsNaN(*b) || math.IsInf(*b, 0)) {
			return Feature{}, fmt.Errorf("feature %q: bounds must be finite", name)
		}
	}
	return Reconstruct(name, ft, def, categories, minimum, maximum), nil
}

// Reconstruct creates a Feature without validation.
func Reconstruct(name string, ft Type, def Value, categories []string, minimum, maximum *float64) Feature {
	cats := make([]string, 0, len(categories))
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if _, dup := set[c]; dup {
			continue
		}
		set[c] = struct{}{}
		cats = append(cats, c)
	}
	return Feature{
		name:       name,
		fieldType:  ft,
		def:        def,
		categories: cats,
		catSet:     set,
		minimum:    copyFloat(minimum),
		maximum:    copyFloat(maximum),
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Name returns the feature name.
func (f Feature) Name() string { return f.name }

// FieldType returns the declared type.
func (f Feature) FieldType() Type { return f.fieldType }

// Default returns the raw default value.
func (f Feature) Default() Value { return f.def }

// Categories returns a copy of the canonical category tokens in declaration order.
func (f Feature) Categories() []string {
	out := make([]string, len(f.categories))
	copy(out, f.categories)
	return out
}

// Minimum returns the lower bound, if declared.
func (f Feature) Minimum() (float64, bool) {
	if f.minimum == nil {
		return 0, false
	}
	return *f.minimum, true
}

// Maximum returns the upper bound, if declared.
func (f Feature) Maximum() (float64, bool) {
	if f.maximum == nil {
		return 0, false
	}
	return *f.maximum, true
}

// HasCategory reports whether the canonical token is a declared category.
func (f Feature) HasCategory(canonical string) bool {
	_, ok := f.catSet[canonical]
	return ok
}

// Policy returns the coercion policy applied by Normalize.
func (f Feature) Policy() CoercionPolicy { return DefaultOnFailure }

// Normalize converts a raw value into the feature's typed, bounded, canonical form.
func (f Feature) Normalize(raw Value) Value {
	v, _ := f.NormalizeWithOutcome(raw)
	return v
}

// NormalizeWithOutcome is Normalize that also reports whether the default was substituted
// or used as a fallback.
func (f Feature) NormalizeWithOutcome(raw Value) (Value, bool) {
	fellBack := false
	if raw.IsBlank() {
		raw = f.def
		fellBack = true
	}

	switch f.fieldType {
	case Numeric:
		n, ok := raw.AsFloat()
		if !ok {
			n, _ = f.def.AsFloat()
			fellBack = true
		}
		return Number(round4(f.clamp(n))), fellBack
	case Binary:
		return Bool(toBool(raw)), fellBack
	case Categorical:
		c := raw.Canonical()
		if c == "" || (len(f.categories) > 0 && !f.HasCategory(c)) {
			return Text(f.def.Canonical()), true
		}
		return Text(c), fellBack
	default:
		return raw, fellBack
	}
}

func (f Feature) clamp(v float64) float64 {
	if f.minimum != nil && v < *f.minimum {
		v = *f.minimum
	}
	if f.maximum != nil && v > *f.maximum {
		v = *f.maximum
	}
	return v
}

func toBool(v Value) bool {
	if s, ok := v.Str(); ok {
		token := strings.ToLower(strings.TrimSpace(s))
		if trueTokens[token] {
			return true
		}
		if falseTokens[token] {
			return false
		}
	}
	return v.Truthy()
}

// round4 rounds half away from zero to four decimal digits.
// Values too large to carry a fractional part are returned unchanged.
func round4(v float64) float64 {
	if math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*roundingScale) / roundingScale
}
