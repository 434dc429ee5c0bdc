package config

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads .env (if present, non-fatal if absent) then a run-config YAML
// file at path, expands environment variables, and merges it onto
// Default() — user-supplied fields win, matching merge.go's "user
// overrides built-in" rule. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: .env load failed, continuing without it", "error", err)
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var user Config
	if err := yaml.Unmarshal(ExpandEnv(raw), &user); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge %s onto defaults: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// MergeRunOverrides mergo-merges a caller-supplied per-request RunConfig
// (e.g. from an API payload) onto the loaded base, the same override
// discipline Load uses for the YAML file. Used when a single process
// serves many runs each with its own config overrides.
func MergeRunOverrides(base *Config, overrides RunConfig) (*Config, error) {
	merged := *base
	if err := mergo.Merge(&merged.Run, overrides, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge run overrides: %w", err)
	}
	return &merged, nil
}
