// Package config provides unified configuration loading for rexkin.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains all rexkin configuration settings.
type Config struct {
	// Run describes the ensemble layout of the simulation being analyzed.
	Run RunConfig `json:"run" yaml:"run"`

	// Analysis contains knobs for the analysis itself.
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`

	// Data contains storage settings.
	Data DataConfig `json:"data" yaml:"data"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// RunConfig describes a replica-exchange expanded-ensemble run.
type RunConfig struct {
	// Replicas is the number of replicas in the ensemble.
	Replicas int `json:"replicas" yaml:"replicas"`

	// Iterations is the number of exchange iterations.
	Iterations int `json:"iterations" yaml:"iterations"`

	// States is the total number of alchemical states across all replicas.
	States int `json:"states" yaml:"states"`

	// DT is the sampling interval in ps per trajectory frame. Zero means
	// durations are reported as step counts.
	DT float64 `json:"dt" yaml:"dt"`

	// Shifts are the per-replica offsets into the global state space.
	// Empty means uniform spacing derived from the replica overlap.
	Shifts []int `json:"shifts,omitempty" yaml:"shifts,omitempty"`
}

// AnalysisConfig configures how analyses execute.
type AnalysisConfig struct {
	// Workers caps the number of concurrently stitched configurations.
	// Zero or negative means one worker per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// DataConfig configures where rexkin keeps its run database.
type DataConfig struct {
	// Dir is the data directory. Defaults to ~/.rexkin.
	Dir string `json:"dir" yaml:"dir"`
}

// LoggingConfig configures rexkin's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables analysis tracing to <data dir>/trace.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers: runtime.NumCPU(),
		},
		Data: DataConfig{
			Dir: defaultDataDir(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rexkin"
	}
	return filepath.Join(homeDir, ".rexkin")
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.rexkin/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".rexkin", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Run.Replicas < 0 {
		return fmt.Errorf("replicas must be non-negative, got %d", c.Run.Replicas)
	}
	if c.Run.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", c.Run.Iterations)
	}
	if c.Run.States < 0 {
		return fmt.Errorf("states must be non-negative, got %d", c.Run.States)
	}
	if c.Run.DT < 0 {
		return fmt.Errorf("dt must be non-negative, got %f", c.Run.DT)
	}
	if len(c.Run.Shifts) > 0 && c.Run.Replicas > 0 && len(c.Run.Shifts) != c.Run.Replicas {
		return fmt.Errorf("shifts has %d entries for %d replicas", len(c.Run.Shifts), c.Run.Replicas)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("REXKIN_REPLICAS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Run.Replicas = n
		}
	}
	if v := os.Getenv("REXKIN_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Run.Iterations = n
		}
	}
	if v := os.Getenv("REXKIN_STATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Run.States = n
		}
	}
	if v := os.Getenv("REXKIN_DT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Run.DT = f
		}
	}
	if v := os.Getenv("REXKIN_SHIFTS"); v != "" {
		if shifts, err := parseShiftList(v); err == nil {
			config.Run.Shifts = shifts
		}
	}
	if v := os.Getenv("REXKIN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Analysis.Workers = n
		}
	}
	if v := os.Getenv("REXKIN_DATA_DIR"); v != "" {
		config.Data.Dir = v
	}
	if v := os.Getenv("REXKIN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// parseShiftList parses a comma-separated shift list like "0,4,8".
func parseShiftList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shifts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad shift %q: %w", p, err)
		}
		shifts = append(shifts, n)
	}
	return shifts, nil
}
