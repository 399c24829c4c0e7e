// Package snapshot publishes the loaded schema so trained artifacts can pin the exact version they used.
package snapshot

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	"github.com/kailas-cloud/featurekit/internal/logger"
	"github.com/kailas-cloud/featurekit/internal/repository/schemafile"
)

var fingerprintRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Service publishes and reads schema snapshots.
type Service struct {
	repo        Repository
	schema      *schema.Schema
	data        []byte
	fingerprint string
}

// New renders the schema snapshot once and creates the service. repo can be nil
// when only file export is needed.
func New(repo Repository, s *schema.Schema) (*Service, error) {
	data, err := schemafile.Marshal(s)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:        repo,
		schema:      s,
		data:        data,
		fingerprint: schemafile.Sum(data),
	}, nil
}

// Fingerprint returns the fingerprint of the loaded schema.
func (s *Service) Fingerprint() string { return s.fingerprint }

// Publish stores the loaded schema snapshot and marks it as latest. Publishing twice is harmless.
func (s *Service) Publish(ctx context.Context) (string, error) {
	if s.repo == nil {
		return "", fmt.Errorf("publish snapshot: no store configured")
	}
	if err := s.repo.Save(ctx, s.fingerprint, s.data); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	logger.FromContext(ctx).Info("schema snapshot published",
		zap.String("fingerprint", s.fingerprint),
		zap.Int("features", s.schema.Len()),
	)
	return s.fingerprint, nil
}

// Get returns the snapshot stored under fingerprint.
func (s *Service) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	if !fingerprintRegex.MatchString(fingerprint) {
		return nil, fmt.Errorf("%w: fingerprint must be 64 lowercase hex chars", domain.ErrInvalidRequest)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("get snapshot: no store configured")
	}
	data, err := s.repo.Get(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

// Latest returns the most recently published snapshot.
func (s *Service) Latest(ctx context.Context) (string, []byte, error) {
	if s.repo == nil {
		return "", nil, fmt.Errorf("latest snapshot: no store configured")
	}
	fp, data, err := s.repo.Latest(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return fp, data, nil
}

// List returns every published fingerprint.
func (s *Service) List(ctx context.Context) ([]string, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("list snapshots: no store configured")
	}
	fps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return fps, nil
}

// Export writes the loaded schema snapshot to a file.
func (s *Service) Export(ctx context.Context, path string) error {
	if err := schemafile.WriteSnapshot(path, s.schema); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("schema snapshot exported",
		zap.String("path", path),
		zap.String("fingerprint", s.fingerprint),
	)
	return nil
}
