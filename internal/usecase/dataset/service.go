// Package dataset normalizes tabular training data through the feature schema.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain/feature"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	"github.com/kailas-cloud/featurekit/internal/logger"
)

// Options control a preprocessing run.
type Options struct {
	// TargetColumn names the label column. Empty means the schema target name.
	TargetColumn string
	// DropMissingTarget skips rows whose target cell is blank.
	DropMissingTarget bool
}

// Result summarizes a preprocessing run.
type Result struct {
	Rows      int     `json:"rows"`
	Written   int     `json:"written"`
	Dropped   int     `json:"dropped"`
	Invalid   int     `json:"invalid"`
	HasTarget bool    `json:"has_target"`
	Profile   Profile `json:"profile"`
}

// Service runs CSV preprocessing against one schema.
type Service struct {
	schema *schema.Schema
}

// New creates a dataset service.
func New(s *schema.Schema) *Service {
	return &Service{schema: s}
}

// Preprocess reads a CSV with a header row from in and writes the normalized rows to out.
// Output columns are the features in canonical order, followed by the target column when
// the input has one. Rows whose raw values fail validation are still written but counted.
func (s *Service) Preprocess(ctx context.Context, in io.Reader, out io.Writer, opts Options) (Result, error) {
	targetName := opts.TargetColumn
	if targetName == "" {
		targetName = s.schema.Target().Name
	}

	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("read csv header: empty input")
		}
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}

	targetIdx := -1
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		if header[i] == targetName {
			targetIdx = i
		}
	}

	features := s.schema.Features()
	outHeader := s.schema.FeatureNames()
	if targetIdx >= 0 {
		outHeader = append(outHeader, targetName)
	}

	w := csv.NewWriter(out)
	if err := w.Write(outHeader); err != nil {
		return Result{}, fmt.Errorf("write csv header: %w", err)
	}

	prof := newProfiler(
		s.schema.NumericFeatureNames(),
		s.schema.CategoricalFeatureNames(),
		s.schema.BinaryFeatureNames(),
	)
	res := Result{HasTarget: targetIdx >= 0}
	record := make([]string, len(outHeader))

	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("preprocess canceled: %w", err)
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv row %d: %w", res.Rows+1, err)
		}
		res.Rows++

		var target string
		if targetIdx >= 0 {
			target = strings.TrimSpace(row[targetIdx])
			if target == "" && opts.DropMissingTarget {
				res.Dropped++
				continue
			}
		}

		payload := make(schema.Payload, len(header))
		for i, col := range header {
			if i == targetIdx {
				continue
			}
			payload[col] = feature.Text(row[i])
		}

		if ok, _ := s.schema.Validate(payload); !ok {
			res.Invalid++
		}

		normalized := s.schema.Normalize(payload)
		for i, f := range features {
			v := normalized[f.Name()]
			record[i] = v.String()
			switch f.FieldType() {
			case feature.Numeric:
				if n, ok := v.Float(); ok {
					prof.addNumber(f.Name(), n)
				}
			case feature.Categorical:
				prof.addCategory(f.Name(), v.String())
			case feature.Binary:
				b, _ := v.Boolean()
				prof.addBinary(f.Name(), b)
			}
		}
		if targetIdx >= 0 {
			record[len(features)] = target
			prof.addTarget(target)
		}

		if err := w.Write(record); err != nil {
			return res, fmt.Errorf("write csv row %d: %w", res.Rows, err)
		}
		res.Written++
		prof.rows++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return res, fmt.Errorf("flush csv: %w", err)
	}

	res.Profile, err = prof.build()
	if err != nil {
		return res, err
	}

	logger.FromContext(ctx).Info("dataset preprocessed",
		zap.Int("rows", res.Rows),
		zap.Int("written", res.Written),
		zap.Int("dropped", res.Dropped),
		zap.Int("invalid", res.Invalid),
		zap.Bool("has_target", res.HasTarget),
	)
	return res, nil
}
