package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/featurekit/internal/domain/feature"
)

// Payload maps feature names to raw values.
type Payload map[string]feature.Value

// PayloadFromMap converts a generic decoded map into a Payload.
func PayloadFromMap(m map[string]any) Payload {
	p := make(Payload, len(m))
	for k, v := range m {
		p[k] = feature.FromAny(v)
	}
	return p
}

// Normalize returns exactly one normalized value per declared feature.
// Missing keys take the feature default.
func (s *Schema) Normalize(payload Payload) map[string]feature.Value {
	out, _ := s.normalize(payload)
	return out
}

// NormalizeWithFallbacks is Normalize that also lists, in canonical order,
// the features resolved through the default.
func (s *Schema) NormalizeWithFallbacks(payload Payload) (map[string]feature.Value, []string) {
	return s.normalize(payload)
}

func (s *Schema) normalize(payload Payload) (map[string]feature.Value, []string) {
	out := make(map[string]feature.Value, len(s.features))
	var fallbacks []string
	for _, f := range s.features {
		raw, ok := payload[f.Name()]
		if !ok {
			raw = f.Default()
		}
		v, fell := f.NormalizeWithOutcome(raw)
		if fell {
			fallbacks = append(fallbacks, f.Name())
		}
		out[f.Name()] = v
	}
	return out, fallbacks
}

// EnsureOrder normalizes the payload and lays it out in canonical order.
func (s *Schema) EnsureOrder(payload Payload) Ordered {
	o, _ := s.EnsureOrderWithFallbacks(payload)
	return o
}

// EnsureOrderWithFallbacks is EnsureOrder that also lists the features resolved through the default.
func (s *Schema) EnsureOrderWithFallbacks(payload Payload) (Ordered, []string) {
	normalized, fallbacks := s.normalize(payload)
	o := Ordered{
		names:  make([]string, len(s.features)),
		values: make([]feature.Value, len(s.features)),
	}
	for i, f := range s.features {
		o.names[i] = f.Name()
		o.values[i] = normalized[f.Name()]
	}
	return o, fallbacks
}

// Ordered is a normalized payload whose keys follow the canonical feature order.
type Ordered struct {
	names  []string
	values []feature.Value
}

// Len returns the number of entries.
func (o Ordered) Len() int { return len(o.names) }

// Names returns the keys in order.
func (o Ordered) Names() []string { return append([]string(nil), o.names...) }

// Values returns the values in key order.
func (o Ordered) Values() []feature.Value { return append([]feature.Value(nil), o.values...) }

// At returns the i-th entry.
func (o Ordered) At(i int) (string, feature.Value) { return o.names[i], o.values[i] }

// Get looks up a value by feature name.
func (o Ordered) Get(name string) (feature.Value, bool) {
	for i, n := range o.names {
		if n == name {
			return o.values[i], true
		}
	}
	return feature.Value{}, false
}

// Map returns the entries as a generic map (order is lost).
func (o Ordered) Map() map[string]any {
	m := make(map[string]any, len(o.names))
	for i, n := range o.names {
		m[n] = o.values[i].Any()
	}
	return m
}

// MarshalJSON writes a JSON object with keys in canonical order.
func (o Ordered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", name, err)
		}
		val, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
