package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/featurekit/internal/domain/feature"
)

// Schema is the immutable feature contract: the ordered feature registry plus target metadata.
// It is safe for concurrent use; nothing mutates it after New returns.
type Schema struct {
	features []feature.Feature
	index    map[string]int
	target   Target
	section  json.RawMessage
	doc      Document
}

// New builds a Schema from a decoded resource.
// Features keep declaration order; names must be unique.
func New(doc Document) (*Schema, error) {
	if doc.Features == nil {
		return nil, fmt.Errorf("schema missing 'features' definition")
	}

	features := make([]feature.Feature, 0, len(doc.Features))
	index := make(map[string]int, len(doc.Features))
	for i, spec := range doc.Features {
		f, err := feature.New(
			spec.Name, feature.Type(spec.Type), feature.FromAny(spec.Default),
			spec.Categories, spec.Min, spec.Max,
		)
		if err != nil {
			return nil, fmt.Errorf("features[%d]: %w", i, err)
		}
		if _, dup := index[f.Name()]; dup {
			return nil, fmt.Errorf("features[%d]: duplicate feature name %q", i, f.Name())
		}
		index[f.Name()] = len(features)
		features = append(features, f)
	}

	target := Target{Name: DefaultTargetName, Categories: []string{}}
	if doc.Target != nil {
		if doc.Target.Name != "" {
			target.Name = doc.Target.Name
		}
		if doc.Target.Categories != nil {
			target.Categories = append([]string(nil), doc.Target.Categories...)
		}
	}

	section, err := targetSection(doc)
	if err != nil {
		return nil, err
	}

	return &Schema{
		features: features,
		index:    index,
		target:   target,
		section:  section,
		doc:      cloneDocument(doc),
	}, nil
}

// targetSection extracts the "target" section as declared; {} when the resource has none.
func targetSection(doc Document) (json.RawMessage, error) {
	if len(doc.Raw) > 0 {
		var top map[string]json.RawMessage
		if err := json.Unmarshal(doc.Raw, &top); err != nil {
			return nil, fmt.Errorf("raw schema resource: %w", err)
		}
		if t, ok := top["target"]; ok {
			return append(json.RawMessage(nil), t...), nil
		}
		return json.RawMessage("{}"), nil
	}
	if doc.Target == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(doc.Target)
	if err != nil {
		return nil, fmt.Errorf("target section: %w", err)
	}
	return data, nil
}

func cloneDocument(doc Document) Document {
	out := Document{Features: make([]FeatureSpec, len(doc.Features))}
	for i, spec := range doc.Features {
		c := spec
		c.Categories = append([]string(nil), spec.Categories...)
		out.Features[i] = c
	}
	if doc.Raw != nil {
		out.Raw = append(json.RawMessage(nil), doc.Raw...)
	}
	if doc.Target != nil {
		t := *doc.Target
		t.Categories = append([]string(nil), doc.Target.Categories...)
		out.Target = &t
	}
	return out
}

// Document returns a copy of the resource the schema was built from.
func (s *Schema) Document() Document { return cloneDocument(s.doc) }

// Raw returns the resource as read, or nil when the schema was built from a typed Document.
func (s *Schema) Raw() json.RawMessage {
	if s.doc.Raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), s.doc.Raw...)
}

// Len returns the number of declared features.
func (s *Schema) Len() int { return len(s.features) }

// Features returns the feature definitions in canonical order.
func (s *Schema) Features() []feature.Feature {
	out := make([]feature.Feature, len(s.features))
	copy(out, s.features)
	return out
}

// FeatureByName looks up a feature by name.
func (s *Schema) FeatureByName(name string) (feature.Feature, bool) {
	i, ok := s.index[name]
	if !ok {
		return feature.Feature{}, false
	}
	return s.features[i], true
}

// FeatureNames returns all feature names in canonical order.
func (s *Schema) FeatureNames() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name()
	}
	return names
}

// NamesOf returns the names of features with the given type, in canonical order.
func (s *Schema) NamesOf(ft feature.Type) []string {
	names := make([]string, 0, len(s.features))
	for _, f := range s.features {
		if f.FieldType() == ft {
			names = append(names, f.Name())
		}
	}
	return names
}

// NumericFeatureNames returns numeric feature names in canonical order.
func (s *Schema) NumericFeatureNames() []string { return s.NamesOf(feature.Numeric) }

// BinaryFeatureNames returns binary feature names in canonical order.
func (s *Schema) BinaryFeatureNames() []string { return s.NamesOf(feature.Binary) }

// CategoricalFeatureNames returns categorical feature names in canonical order.
func (s *Schema) CategoricalFeatureNames() []string { return s.NamesOf(feature.Categorical) }

// Describe returns plain descriptors for every feature.
func (s *Schema) Describe() []Descriptor {
	out := make([]Descriptor, len(s.features))
	for i, f := range s.features {
		d := Descriptor{
			Name:       f.Name(),
			Type:       string(f.FieldType()),
			Default:    f.Default().Any(),
			Categories: f.Categories(),
		}
		if v, ok := f.Minimum(); ok {
			d.Min = &v
		}
		if v, ok := f.Maximum(); ok {
			d.Max = &v
		}
		out[i] = d
	}
	return out
}

// Target returns the target descriptor.
func (s *Schema) Target() Target {
	return Target{Name: s.target.Name, Categories: s.TargetCategories()}
}

// TargetSection returns the "target" section exactly as the resource declared it, or {} when absent.
// Target fills in a default name; this does not.
func (s *Schema) TargetSection() json.RawMessage {
	return append(json.RawMessage(nil), s.section...)
}

// TargetCategories returns the declared target labels, or an empty slice.
func (s *Schema) TargetCategories() []string {
	return append([]string{}, s.target.Categories...)
}

// InvertedBounds lists features whose declared minimum exceeds their maximum.
func (s *Schema) InvertedBounds() []string {
	var names []string
	for _, f := range s.features {
		lo, okLo := f.Minimum()
		hi, okHi := f.Maximum()
		if okLo && okHi && lo > hi {
			names = append(names, f.Name())
		}
	}
	return names
}
