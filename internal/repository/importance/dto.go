package importance

import (
	"encoding/json"
	"fmt"

	domimp "github.com/kailas-cloud/featurekit/internal/domain/importance"
)

// reportRow is the JSON-serializable representation of a report.
type reportRow struct {
	ID                string         `json:"id"`
	Model             string         `json:"model"`
	SchemaFingerprint string         `json:"schema_fingerprint"`
	Entries           []domimp.Entry `json:"entries"`
	CreatedAt         int64          `json:"created_at"`
}

func reportToJSON(r domimp.Report) ([]byte, error) {
	data, err := json.Marshal(reportRow{
		ID:                r.ID(),
		Model:             r.Model(),
		SchemaFingerprint: r.SchemaFingerprint(),
		Entries:           r.Entries(),
		CreatedAt:         r.CreatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func reportFromJSON(data []byte) (domimp.Report, error) {
	var row reportRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domimp.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	if row.Entries == nil {
		row.Entries = []domimp.Entry{}
	}
	return domimp.Reconstruct(row.ID, row.Model, row.SchemaFingerprint, row.Entries, row.CreatedAt), nil
}
