package importance

import (
	"context"

	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
)

// Repository defines the storage contract for importance reports.
type Repository interface {
	Save(ctx context.Context, rep domimp.Report) error
	Get(ctx context.Context, model string) (domimp.Report, error)
	Delete(ctx context.Context, model string) error
	List(ctx context.Context) ([]string, error)
}

// FingerprintSource returns the fingerprint of the active schema.
type FingerprintSource interface {
	Fingerprint() string
}

// Recorder receives aggregation events.
type Recorder interface {
	ImportancesAggregated()
}
