package snapshot

import "context"

// Repository defines the storage contract for schema snapshots.
type Repository interface {
	Save(ctx context.Context, fingerprint string, data []byte) error
	Get(ctx context.Context, fingerprint string) ([]byte, error)
	Latest(ctx context.Context) (string, []byte, error)
	List(ctx context.Context) ([]string, error)
}
