package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Name    string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
	Limit   int           `split_words:"true" default:"3"`
}

func (c *sampleConfig) Validate() error {
	if c.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

func TestNewReadsEnvWithPrefix(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "booking")
	t.Setenv("SAMPLE_LIMIT", "7")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "booking" {
		t.Fatalf("Name = %q, want %q", conf.Name, "booking")
	}
	if conf.Limit != 7 {
		t.Fatalf("Limit = %d, want 7", conf.Limit)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want 5s", conf.Timeout)
	}
}

func TestNewRunsValidator(t *testing.T) {
	t.Setenv("SAMPLEBAD_NAME", "booking")
	t.Setenv("SAMPLEBAD_LIMIT", "0")

	_, err := New[sampleConfig]("SAMPLEBAD")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewMissingRequired(t *testing.T) {
	_, err := New[sampleConfig]("SAMPLEMISSING")
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "CFGTEST_FROM_FILE=file-value\nCFGTEST_OVERRIDDEN=file-value\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGTEST_OVERRIDDEN", "process-value")
	t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_FROM_FILE") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGTEST_FROM_FILE"); got != "file-value" {
		t.Fatalf("CFGTEST_FROM_FILE = %q, want %q", got, "file-value")
	}
	if got := os.Getenv("CFGTEST_OVERRIDDEN"); got != "process-value" {
		t.Fatalf("CFGTEST_OVERRIDDEN = %q, want %q", got, "process-value")
	}
}
