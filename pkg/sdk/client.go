package featurekit

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/featurekit/internal/domain"
	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	"github.com/kailas-cloud/featurekit/internal/repository/schemafile"
)

// Client is the featurekit SDK entry point. It is safe for concurrent use.
type Client struct {
	schema      *schema.Schema
	fingerprint string
	obs         *observer
}

// Load reads a schema resource (JSON, or YAML for .yaml/.yml paths) and creates a Client.
// Schema errors match ErrSchema.
func Load(path string, opts ...Option) (*Client, error) {
	start := time.Now()
	sch, err := schemafile.Load(path)
	return newClient(sch, err, start, opts)
}

// Parse is Load for a resource already in memory. name selects the format like a path does.
func Parse(name string, data []byte, opts ...Option) (*Client, error) {
	start := time.Now()
	sch, err := schemafile.Parse(name, data)
	return newClient(sch, err, start, opts)
}

func newClient(sch *schema.Schema, loadErr error, start time.Time, opts []Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		obs.observe("load", start, loadErr)
		return nil, loadErr
	}

	fp, err := schemafile.Fingerprint(sch)
	if err != nil {
		obs.observe("load", start, err)
		return nil, fmt.Errorf("featurekit: fingerprint schema: %w", err)
	}
	obs.observe("load", start, nil)

	if cfg.logger != nil {
		if inverted := sch.InvertedBounds(); len(inverted) > 0 {
			cfg.logger.Warn("features declare min greater than max", "features", inverted)
		}
	}

	return &Client{schema: sch, fingerprint: fp, obs: obs}, nil
}

// Fingerprint identifies the loaded schema: the hex sha256 of its snapshot.
func (c *Client) Fingerprint() string { return c.fingerprint }

// FeatureNames returns every feature name in canonical order.
func (c *Client) FeatureNames() []string { return c.schema.FeatureNames() }

// NumericFeatureNames returns numeric feature names in canonical order.
func (c *Client) NumericFeatureNames() []string { return c.schema.NumericFeatureNames() }

// BinaryFeatureNames returns binary feature names in canonical order.
func (c *Client) BinaryFeatureNames() []string { return c.schema.BinaryFeatureNames() }

// CategoricalFeatureNames returns categorical feature names in canonical order.
func (c *Client) CategoricalFeatureNames() []string { return c.schema.CategoricalFeatureNames() }

// Describe returns one descriptor per feature in canonical order.
func (c *Client) Describe() []Descriptor { return c.schema.Describe() }

// Target returns the target descriptor.
func (c *Client) Target() Target { return c.schema.Target() }

// TargetCategories returns the declared target labels, or an empty slice.
func (c *Client) TargetCategories() []string { return c.schema.TargetCategories() }

// Normalize returns exactly one value per declared feature. Unknown keys are dropped,
// missing or unusable values take the feature default.
func (c *Client) Normalize(payload map[string]any) map[string]any {
	start := time.Now()
	normalized, fallbacks := c.schema.NormalizeWithFallbacks(schema.PayloadFromMap(payload))
	c.obs.fellBack(fallbacks)
	c.obs.observe("normalize", start, nil)

	out := make(map[string]any, len(normalized))
	for name, v := range normalized {
		out[name] = v.Any()
	}
	return out
}

// EnsureOrder normalizes the payload and lays it out in canonical feature order.
func (c *Client) EnsureOrder(payload map[string]any) Row {
	start := time.Now()
	row, fallbacks := c.schema.EnsureOrderWithFallbacks(schema.PayloadFromMap(payload))
	c.obs.fellBack(fallbacks)
	c.obs.observe("ensure_order", start, nil)
	return row
}

// Validate checks the payload without modifying it and returns every violation message.
func (c *Client) Validate(payload map[string]any) (bool, []string) {
	start := time.Now()
	violations := c.schema.Violations(schema.PayloadFromMap(payload))
	c.obs.violated(violatedFeatures(violations))
	c.obs.observe("validate", start, nil)

	errs := make([]string, len(violations))
	for i, v := range violations {
		errs[i] = v.Message
	}
	return len(errs) == 0, errs
}

// Check is Validate returning a *ValidationError (matching ErrPayloadInvalid) for an invalid payload.
func (c *Client) Check(payload map[string]any) error {
	if ok, errs := c.Validate(payload); !ok {
		return &domain.ValidationError{Violations: errs}
	}
	return nil
}

// AggregateImportances sums encoded feature importances ("age__num", "age__sq") per base
// feature and ranks them by weight, descending. Names and weights pair over their common prefix.
func (c *Client) AggregateImportances(names []string, weights []float64) []Importance {
	start := time.Now()
	entries := domimp.Aggregate(names, weights)
	var err error
	if len(names) != len(weights) {
		err = fmt.Errorf("featurekit: %d names and %d importances, aggregated the common prefix", len(names), len(weights))
	}
	c.obs.observe("aggregate_importances", start, err)
	return entries
}

// WriteSnapshot writes the loaded schema as indented JSON to path, creating parent directories.
func (c *Client) WriteSnapshot(path string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("write_snapshot", start, err) }()

	if err = schemafile.WriteSnapshot(path, c.schema); err != nil {
		return fmt.Errorf("featurekit: %w", err)
	}
	return nil
}

func violatedFeatures(vs []schema.Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Feature)
	}
	return out
}
