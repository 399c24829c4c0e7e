// Package features serves the loaded feature schema to request handlers.
package features

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain"
	"github.com/kailas-cloud/featurekit/internal/domain/feature"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	"github.com/kailas-cloud/featurekit/internal/logger"
)

// Service normalizes, orders and validates payloads against one schema.
type Service struct {
	schema   *schema.Schema
	recorder Recorder
}

// New creates a feature service. recorder can be nil.
func New(s *schema.Schema, recorder Recorder) *Service {
	return &Service{schema: s, recorder: recorder}
}

// Schema returns the underlying schema.
func (s *Service) Schema() *schema.Schema { return s.schema }

// Len returns the number of declared features.
func (s *Service) Len() int { return s.schema.Len() }

// Normalize returns one normalized value per declared feature.
func (s *Service) Normalize(ctx context.Context, payload schema.Payload) map[string]feature.Value {
	out, fallbacks := s.schema.NormalizeWithFallbacks(payload)
	s.observeNormalize(ctx, fallbacks)
	return out
}

// Order normalizes the payload and returns it in canonical order.
func (s *Service) Order(ctx context.Context, payload schema.Payload) schema.Ordered {
	out, fallbacks := s.schema.EnsureOrderWithFallbacks(payload)
	s.observeNormalize(ctx, fallbacks)
	return out
}

// Validate checks the payload and reports every violation.
func (s *Service) Validate(ctx context.Context, payload schema.Payload) (bool, []string) {
	violations := s.schema.Violations(payload)

	msgs := make([]string, len(violations))
	names := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
		names[i] = v.Feature
	}
	valid := len(violations) == 0

	if s.recorder != nil {
		s.recorder.Validated(valid, names)
	}
	if !valid {
		logger.FromContext(ctx).Debug("payload failed validation",
			zap.Int("violations", len(msgs)),
			zap.Strings("errors", msgs),
		)
	}
	return valid, msgs
}

// Describe returns plain descriptors of every feature.
func (s *Service) Describe() []schema.Descriptor { return s.schema.Describe() }

// Target returns the target descriptor.
func (s *Service) Target() schema.Target { return s.schema.Target() }

// TargetSection returns the target section as declared, {} when absent.
func (s *Service) TargetSection() json.RawMessage { return s.schema.TargetSection() }

// Names returns feature names of the given type, or all names when typ is empty.
func (s *Service) Names(typ string) ([]string, error) {
	if typ == "" {
		return s.schema.FeatureNames(), nil
	}
	ft := feature.Type(typ)
	if !ft.IsKnown() {
		return nil, fmt.Errorf("unknown feature type %q: %w", typ, domain.ErrInvalidRequest)
	}
	return s.schema.NamesOf(ft), nil
}

func (s *Service) observeNormalize(ctx context.Context, fallbacks []string) {
	if s.recorder != nil {
		s.recorder.Normalized(fallbacks)
	}
	if len(fallbacks) > 0 {
		logger.FromContext(ctx).Debug("feature defaults applied", zap.Strings("features", fallbacks))
	}
}
