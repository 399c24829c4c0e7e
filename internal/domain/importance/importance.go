package importance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Separator splits an encoded feature name into its base name and the encoder branch.
const Separator = "__"

var modelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// Entry is an aggregated (base name, weight) pair.
type Entry struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// BaseName recovers the declared feature name from an encoded one.
func BaseName(encoded string) string {
	base, _, _ := strings.Cut(encoded, Separator)
	return base
}

// Aggregate sums importances per base feature name and ranks them by weight, descending.
// Names and weights are paired positionally over their common prefix.
// Ties keep the order in which base names were first seen.
func Aggregate(names []string, weights []float64) []Entry {
	n := min(len(names), len(weights))

	entries := make([]Entry, 0, n)
	pos := make(map[string]int, n)
	for i := 0; i < n; i++ {
		base := BaseName(names[i])
		idx, ok := pos[base]
		if !ok {
			idx = len(entries)
			pos[base] = idx
			entries = append(entries, Entry{Name: base})
		}
		entries[idx].Weight += weights[i]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})
	return entries
}

// Report is an aggregated importance ranking for one trained model.
type Report struct {
	id                string
	model             string
	schemaFingerprint string
	entries           []Entry
	createdAt         int64
}

// ValidateModelName checks a model identifier.
func ValidateModelName(model string) error {
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	if strings.Contains(model, "/") {
		return fmt.Errorf("model name must not contain directory separators")
	}
	if !modelNameRegex.MatchString(model) {
		return fmt.Errorf("model name must be 1-64 chars of letters, digits, '.', '_' or '-'")
	}
	return nil
}

// NewReport aggregates the given importances into a new report.
func NewReport(model, schemaFingerprint string, names []string, weights []float64) (Report, error) {
	if err := ValidateModelName(model); err != nil {
		return Report{}, err
	}
	return Report{
		id:                uuid.NewString(),
		model:             model,
		schemaFingerprint: schemaFingerprint,
		entries:           Aggregate(names, weights),
		createdAt:         time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Report without validation (storage hydration).
func Reconstruct(id, model, schemaFingerprint string, entries []Entry, createdAt int64) Report {
	return Report{
		id:                id,
		model:             model,
		schemaFingerprint: schemaFingerprint,
		entries:           entries,
		createdAt:         createdAt,
	}
}

// ID returns the report identifier.
func (r Report) ID() string { return r.id }

// Model returns the model name.
func (r Report) Model() string { return r.model }

// SchemaFingerprint returns the fingerprint of the schema the model was trained against.
func (r Report) SchemaFingerprint() string { return r.schemaFingerprint }

// Entries returns a copy of the ranked entries.
func (r Report) Entries() []Entry { return append([]Entry(nil), r.entries...) }

// CreatedAt returns the creation timestamp (unix millis).
func (r Report) CreatedAt() int64 { return r.createdAt }

// Top returns at most k leading entries.
func (r Report) Top(k int) []Entry {
	if k < 0 || k >= len(r.entries) {
		return r.Entries()
	}
	return append([]Entry(nil), r.entries[:k]...)
}
