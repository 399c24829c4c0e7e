// Package snapshot persists published schema snapshots keyed by fingerprint.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/featurekit/internal/db"
	"github.com/kailas-cloud/featurekit/internal/domain"
)

const latestSuffix = "latest"

// store is the consumer interface for snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/snapshot.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a snapshot repository. Keys live under <prefix>schema:.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "schema:"}
}

// Save stores the snapshot bytes and moves the latest pointer to it.
func (r *Repo) Save(ctx context.Context, fingerprint string, data []byte) error {
	if err := r.store.Set(ctx, r.key(fingerprint), data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", fingerprint, err)
	}
	if err := r.store.Set(ctx, r.key(latestSuffix), []byte(fingerprint)); err != nil {
		return fmt.Errorf("update latest snapshot pointer: %w", err)
	}
	return nil
}

// Get returns the snapshot bytes for a fingerprint.
func (r *Repo) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	data, err := r.store.Get(ctx, r.key(fingerprint))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", fingerprint, err)
	}
	return data, nil
}

// Latest returns the most recently published fingerprint and its bytes.
func (r *Repo) Latest(ctx context.Context) (string, []byte, error) {
	fp, err := r.store.Get(ctx, r.key(latestSuffix))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil, domain.ErrNotFound
		}
		return "", nil, fmt.Errorf("get latest snapshot pointer: %w", err)
	}
	data, err := r.Get(ctx, string(fp))
	if err != nil {
		return "", nil, err
	}
	return string(fp), data, nil
}

// List returns every stored fingerprint, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		fp := strings.TrimPrefix(k, r.prefix)
		if fp == latestSuffix || fp == "" {
			continue
		}
		out = append(out, fp)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repo) key(suffix string) string {
	return r.prefix + suffix
}
