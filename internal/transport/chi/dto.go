package chi

import (
	"encoding/json"

	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Features int               `json:"features"`
	Version  string            `json:"version"`
}

// SchemaResponse is the body of GET /schema.
type SchemaResponse struct {
	Features []schema.Descriptor `json:"features"`
	Target   json.RawMessage     `json:"target"`
}

// NamesResponse lists feature names.
type NamesResponse struct {
	Names []string `json:"names"`
}

// PayloadRequest wraps a raw feature payload.
type PayloadRequest struct {
	Data map[string]any `json:"data"`
}

// NormalizeResponse carries the normalized payload in canonical key order.
type NormalizeResponse struct {
	Features schema.Ordered `json:"features"`
}

// ValidateResponse reports validation results.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ImportanceRequest carries encoded feature names and their importances.
type ImportanceRequest struct {
	Names       *[]string  `json:"names"`
	Importances *[]float64 `json:"importances"`
}

// ImportanceReport is the public form of an aggregated report.
type ImportanceReport struct {
	ID                string         `json:"id"`
	Model             string         `json:"model"`
	SchemaFingerprint string         `json:"schema_fingerprint"`
	Importances       []domimp.Entry `json:"importances"`
	CreatedAt         int64          `json:"created_at"`
}

// ModelsResponse lists models with stored reports.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// SnapshotResponse identifies a published snapshot.
type SnapshotResponse struct {
	Fingerprint string `json:"fingerprint"`
}

// SnapshotsResponse lists published snapshots.
type SnapshotsResponse struct {
	Fingerprints []string `json:"fingerprints"`
}

func reportToDTO(r domimp.Report) ImportanceReport {
	entries := r.Entries()
	if entries == nil {
		entries = []domimp.Entry{}
	}
	return ImportanceReport{
		ID:                r.ID(),
		Model:             r.Model(),
		SchemaFingerprint: r.SchemaFingerprint(),
		Importances:       entries,
		CreatedAt:         r.CreatedAt(),
	}
}

// snapshotBody is raw snapshot JSON written verbatim.
type snapshotBody []byte

func (b snapshotBody) MarshalJSON() ([]byte, error) {
	if !json.Valid(b) {
		return json.Marshal(string(b))
	}
	return b, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
