// Package importance persists aggregated importance reports, one per model.
package importance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/featurekit/internal/db"
	"github.com/kailas-cloud/featurekit/internal/domain"
	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
)

// store is the consumer interface for importance reports (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/importance.Repository.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an importance repository. ttl <= 0 keeps reports forever.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "importance:", ttl: ttl}
}

// Save stores the report, replacing any previous report for the same model.
func (r *Repo) Save(ctx context.Context, rep domimp.Report) error {
	data, err := reportToJSON(rep)
	if err != nil {
		return err
	}
	if err := r.store.SetWithTTL(ctx, r.key(rep.Model()), data, r.ttl); err != nil {
		return fmt.Errorf("save importance report %s: %w", rep.Model(), err)
	}
	return nil
}

// Get returns the report of a model.
func (r *Repo) Get(ctx context.Context, model string) (domimp.Report, error) {
	data, err := r.store.Get(ctx, r.key(model))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domimp.Report{}, domain.ErrNotFound
		}
		return domimp.Report{}, fmt.Errorf("get importance report %s: %w", model, err)
	}
	return reportFromJSON(data)
}

// Delete removes the report of a model.
func (r *Repo) Delete(ctx context.Context, model string) error {
	if err := r.store.Del(ctx, r.key(model)); err != nil {
		return fmt.Errorf("delete importance report %s: %w", model, err)
	}
	return nil
}

// List returns the names of models with a stored report, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan importance reports: %w", err)
	}
	models := make([]string, 0, len(keys))
	for _, k := range keys {
		if m := strings.TrimPrefix(k, r.prefix); m != "" {
			models = append(models, m)
		}
	}
	sort.Strings(models)
	return models, nil
}

func (r *Repo) key(model string) string {
	return r.prefix + model
}
