package featurekit

import (
	"github.com/kailas-cloud/featurekit/internal/domain/feature"
	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
)

// Value is a normalized feature value: a number, text or boolean.
type Value = feature.Value

// Row is a normalized payload laid out in canonical feature order.
// It marshals to a JSON object whose keys keep that order.
type Row = schema.Ordered

// Descriptor describes one declared feature.
type Descriptor = schema.Descriptor

// Target describes the label column.
type Target = schema.Target

// Importance is an aggregated (feature, weight) pair.
type Importance = domimp.Entry
