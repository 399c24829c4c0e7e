// Package schemafile loads the feature schema resource from disk and writes schema snapshots.
package schemafile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/featurekit/internal/domain"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
)

// Load reads the schema resource at path exactly once and builds the Schema.
// Files ending in .yaml/.yml are decoded as YAML, everything else as JSON.
// Every failure is a *domain.SchemaError.
func Load(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewSchemaError(path, "feature schema not found", nil)
		}
		return nil, domain.NewSchemaError(path, "read feature schema", err)
	}
	return Parse(path, data)
}

// Parse decodes a schema resource. path is used for the format choice and error context.
func Parse(path string, data []byte) (*schema.Schema, error) {
	doc, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	s, err := schema.New(doc)
	if err != nil {
		return nil, domain.NewSchemaError(path, "build schema", err)
	}
	return s, nil
}

func decode(path string, data []byte) (schema.Document, error) {
	var (
		probe map[string]any
		doc   schema.Document
	)

	if isYAML(path) {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return schema.Document{}, domain.NewSchemaError(path, "parse yaml", err)
		}
		if err := checkFeaturesSection(path, probe); err != nil {
			return schema.Document{}, err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return schema.Document{}, domain.NewSchemaError(path, "decode yaml", err)
		}
		raw, err := json.Marshal(probe)
		if err != nil {
			return schema.Document{}, domain.NewSchemaError(path, "yaml resource is not representable as json", err)
		}
		doc.Raw = raw
		return doc, nil
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return schema.Document{}, domain.NewSchemaError(path, "parse json", err)
	}
	if err := checkFeaturesSection(path, probe); err != nil {
		return schema.Document{}, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return schema.Document{}, domain.NewSchemaError(path, "decode json", err)
	}
	var raw bytes.Buffer
	if err := json.Compact(&raw, data); err != nil {
		return schema.Document{}, domain.NewSchemaError(path, "parse json", err)
	}
	doc.Raw = raw.Bytes()
	return doc, nil
}

func checkFeaturesSection(path string, probe map[string]any) error {
	raw, ok := probe["features"]
	if !ok {
		return domain.NewSchemaError(path, "schema missing 'features' definition", nil)
	}
	if _, ok := raw.([]any); !ok {
		return domain.NewSchemaError(path, "'features' must be a list", nil)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Marshal renders the schema resource as indented JSON.
// A resource read from disk is rendered as read, keys the schema does not use included.
func Marshal(s *schema.Schema) ([]byte, error) {
	if raw := s.Raw(); len(raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("marshal schema snapshot: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema snapshot: %w", err)
	}
	return data, nil
}

// Fingerprint is the hex sha256 of the schema snapshot bytes.
func Fingerprint(s *schema.Schema) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	return Sum(data), nil
}

// Sum is the hex sha256 of raw snapshot bytes.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteSnapshot serializes the loaded schema to outputPath, creating parent directories.
func WriteSnapshot(outputPath string, s *schema.Schema) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	path := filepath.Clean(outputPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
