package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Schema:   SchemaConfig{Path: "config/feature_schema.json"},
		Database: DatabaseConfig{Driver: "redis", Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = []string{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_Driver(t *testing.T) {
	for _, driver := range []string{"redis", "valkey"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.Driver = driver
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "redis" or "valkey", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ImportanceTTLHours = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestValidate_SchemaPath(t *testing.T) {
	for _, path := range []string{"a.json", "b.YAML", "dir/c.yml"} {
		cfg := validConfig()
		cfg.Schema.Path = path
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", path, err)
		}
	}
	cfg := validConfig()
	cfg.Schema.Path = "schema.toml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported schema format")
	}
}

func TestStorage_ImportanceTTL(t *testing.T) {
	if got := (StorageConfig{}).ImportanceTTL(); got != 0 {
		t.Errorf("zero ttl = %v", got)
	}
	if got := (StorageConfig{ImportanceTTLHours: 48}).ImportanceTTL(); got != 48*time.Hour {
		t.Errorf("ttl = %v", got)
	}
}

func TestSchema_SnapshotFile(t *testing.T) {
	if got := (SchemaConfig{SnapshotDir: "artifacts"}).SnapshotFile(); got != filepath.Join("artifacts", "feature_schema.json") {
		t.Errorf("SnapshotFile = %q", got)
	}
	if got := (SchemaConfig{SnapshotDir: "-"}).SnapshotFile(); got != "" {
		t.Errorf("disabled SnapshotFile = %q", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Schema.Path != "config/feature_schema.json" {
		t.Errorf("expected default schema path, got %q", cfg.Schema.Path)
	}
	if cfg.Schema.SnapshotDir != "artifacts" {
		t.Errorf("expected SnapshotDir='artifacts', got %q", cfg.Schema.SnapshotDir)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected Driver='redis', got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "featurekit:" {
		t.Errorf("expected KeyPrefix='featurekit:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Schema:   SchemaConfig{Path: "/etc/schema.yaml", SnapshotDir: "/tmp/out"},
		Database: DatabaseConfig{Driver: "valkey", ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Schema.Path != "/etc/schema.yaml" {
		t.Errorf("expected schema path kept, got %q", cfg.Schema.Path)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver='valkey', got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("FK_TEST_PORT", "9090")
	t.Setenv("FK_TEST_ADDR", "")

	data := []byte(strings.Join([]string{
		"http:",
		"  port: ${FK_TEST_PORT}",
		"database:",
		"  addrs:",
		"    - ${FK_TEST_ADDR:-localhost:6379}",
		"schema:",
		"  path: ${FK_TEST_SCHEMA:-schemas/students.yaml}",
	}, "\n"))

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("Addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Schema.Path != "schemas/students.yaml" {
		t.Errorf("Schema.Path = %q", cfg.Schema.Path)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http:\n  port: 0\n")); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv = %q, want prod", got)
	}
}
