package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Run.Replicas != 0 {
		t.Errorf("expected Run.Replicas 0, got %d", config.Run.Replicas)
	}
	if config.Analysis.Workers <= 0 {
		t.Errorf("expected positive default Workers, got %d", config.Analysis.Workers)
	}
	if config.Data.Dir == "" {
		t.Error("expected non-empty default Data.Dir")
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
run:
  replicas: 4
  iterations: 20
  states: 9
  dt: 0.002
  shifts: [0, 2, 4, 6]

analysis:
  workers: 2

data:
  dir: /tmp/rexkin-test

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if config.Run.Replicas != 4 || config.Run.Iterations != 20 || config.Run.States != 9 {
		t.Errorf("Run = %+v", config.Run)
	}
	if config.Run.DT != 0.002 {
		t.Errorf("Run.DT = %f, want 0.002", config.Run.DT)
	}
	if !reflect.DeepEqual(config.Run.Shifts, []int{0, 2, 4, 6}) {
		t.Errorf("Run.Shifts = %v, want [0 2 4 6]", config.Run.Shifts)
	}
	if config.Analysis.Workers != 2 {
		t.Errorf("Analysis.Workers = %d, want 2", config.Analysis.Workers)
	}
	if config.Data.Dir != "/tmp/rexkin-test" {
		t.Errorf("Data.Dir = %s", config.Data.Dir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", config.Logging.Level)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Unspecified sections keep their defaults.
	if err := os.WriteFile(configPath, []byte("run:\n  replicas: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if config.Run.Replicas != 3 {
		t.Errorf("Run.Replicas = %d, want 3", config.Run.Replicas)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want default info", config.Logging.Level)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("run: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(configPath); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"negative replicas", func(c *Config) { c.Run.Replicas = -1 }, true},
		{"negative iterations", func(c *Config) { c.Run.Iterations = -2 }, true},
		{"negative dt", func(c *Config) { c.Run.DT = -0.1 }, true},
		{"shift count mismatch", func(c *Config) {
			c.Run.Replicas = 3
			c.Run.Shifts = []int{0, 4}
		}, true},
		{"matching shifts", func(c *Config) {
			c.Run.Replicas = 2
			c.Run.Shifts = []int{0, 4}
		}, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"empty log level ok", func(c *Config) { c.Logging.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REXKIN_REPLICAS", "5")
	t.Setenv("REXKIN_DT", "0.004")
	t.Setenv("REXKIN_SHIFTS", "0, 3, 6, 9, 12")
	t.Setenv("REXKIN_WORKERS", "8")
	t.Setenv("REXKIN_LOG_LEVEL", "trace")

	config := Default()
	applyEnvOverrides(config)

	if config.Run.Replicas != 5 {
		t.Errorf("Run.Replicas = %d, want 5", config.Run.Replicas)
	}
	if config.Run.DT != 0.004 {
		t.Errorf("Run.DT = %f, want 0.004", config.Run.DT)
	}
	if !reflect.DeepEqual(config.Run.Shifts, []int{0, 3, 6, 9, 12}) {
		t.Errorf("Run.Shifts = %v", config.Run.Shifts)
	}
	if config.Analysis.Workers != 8 {
		t.Errorf("Analysis.Workers = %d, want 8", config.Analysis.Workers)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("Logging.Level = %s, want trace", config.Logging.Level)
	}
}

func TestEnvOverridesIgnoreMalformed(t *testing.T) {
	t.Setenv("REXKIN_REPLICAS", "many")
	t.Setenv("REXKIN_SHIFTS", "0,x,8")

	config := Default()
	applyEnvOverrides(config)

	if config.Run.Replicas != 0 {
		t.Errorf("Run.Replicas = %d, want untouched 0", config.Run.Replicas)
	}
	if config.Run.Shifts != nil {
		t.Errorf("Run.Shifts = %v, want untouched nil", config.Run.Shifts)
	}
}
