package schema

import "encoding/json"

// Document is the decoded Schema Resource.
// Default holds whatever scalar the resource declared (number, string, bool or nil).
// Raw is the whole resource as compact JSON, unknown keys included; snapshots are rendered from it when set.
type Document struct {
	Features []FeatureSpec   `json:"features" yaml:"features"`
	Target   *TargetSpec     `json:"target,omitempty" yaml:"target,omitempty"`
	Raw      json.RawMessage `json:"-" yaml:"-"`
}

// FeatureSpec is one entry of the "features" section.
type FeatureSpec struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Default    any      `json:"default" yaml:"default"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Min        *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// TargetSpec is the optional "target" section.
type TargetSpec struct {
	Name       string   `json:"name" yaml:"name"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// DefaultTargetName is used when the resource declares no target.
const DefaultTargetName = "target"

// Descriptor is a plain feature description for introspection endpoints.
type Descriptor struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Default    any      `json:"default"`
	Categories []string `json:"categories"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
}

// Target is the target descriptor.
type Target struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}
