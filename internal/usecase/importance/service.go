// Package importance aggregates model feature importances and stores the resulting reports.
package importance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain"
	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
	"github.com/kailas-cloud/featurekit/internal/logger"
)

// Service handles importance report submission and lookup.
type Service struct {
	repo     Repository
	schema   FingerprintSource
	recorder Recorder
}

// New creates an importance service. schema and recorder can be nil.
func New(repo Repository, schema FingerprintSource, recorder Recorder) *Service {
	return &Service{repo: repo, schema: schema, recorder: recorder}
}

// Submit aggregates encoded importances into a report and stores it under the model name.
func (s *Service) Submit(ctx context.Context, model string, names []string, weights []float64) (domimp.Report, error) {
	if err := domimp.ValidateModelName(model); err != nil {
		return domimp.Report{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	log := logger.FromContext(ctx)
	if len(names) != len(weights) {
		log.Warn("importance lengths differ, aggregating the common prefix",
			zap.String("model", model),
			zap.Int("names", len(names)),
			zap.Int("weights", len(weights)),
		)
	}

	var fingerprint string
	if s.schema != nil {
		fingerprint = s.schema.Fingerprint()
	}

	rep, err := domimp.NewReport(model, fingerprint, names, weights)
	if err != nil {
		return domimp.Report{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if s.recorder != nil {
		s.recorder.ImportancesAggregated()
	}

	if err := s.repo.Save(ctx, rep); err != nil {
		return domimp.Report{}, fmt.Errorf("store importance report: %w", err)
	}

	log.Info("importance report stored",
		zap.String("model", model),
		zap.String("report_id", rep.ID()),
		zap.Int("features", len(rep.Entries())),
	)
	return rep, nil
}

// Get returns the stored report of a model.
func (s *Service) Get(ctx context.Context, model string) (domimp.Report, error) {
	if err := domimp.ValidateModelName(model); err != nil {
		return domimp.Report{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	rep, err := s.repo.Get(ctx, model)
	if err != nil {
		return domimp.Report{}, fmt.Errorf("get importance report: %w", err)
	}
	return rep, nil
}

// Delete removes the stored report of a model.
func (s *Service) Delete(ctx context.Context, model string) error {
	if err := domimp.ValidateModelName(model); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if _, err := s.repo.Get(ctx, model); err != nil {
		return fmt.Errorf("delete importance report: %w", err)
	}
	if err := s.repo.Delete(ctx, model); err != nil {
		return fmt.Errorf("delete importance report: %w", err)
	}
	return nil
}

// List returns the names of models with a stored report.
func (s *Service) List(ctx context.Context) ([]string, error) {
	models, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list importance reports: %w", err)
	}
	return models, nil
}
