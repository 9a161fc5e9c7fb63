// Package config loads the optional ambient configuration file
// (log level, aggregation depth, output path). The CLI's input file
// argument never depends on this file's presence; the output path
// comes from it (or its environment override) when set. A missing
// config file just means the defaults (plus any environment
// overrides) apply.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the reconstruction service's tunables. All fields have
// defaults; a missing config file is not an error.
type Config struct {
	LogLevel   string `yaml:"log_level"`
	Depth      int    `yaml:"depth"`
	OutputPath string `yaml:"output_path"`
}

// Default returns the configuration used when no config file is
// present: info logging, depth 10, output.csv in the working
// directory.
func Default() Config {
	return Config{
		LogLevel:   "info",
		Depth:      10,
		OutputPath: "output.csv",
	}
}

// Load reads path (if it exists) over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Absence is not an error; defaults (plus env overrides) apply.
		default:
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg = overrideWithEnv(cfg)
	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	if cfg.Depth <= 0 {
		return fmt.Errorf("config: depth must be positive, got %d", cfg.Depth)
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("config: output_path must not be empty")
	}
	return nil
}

// overrideWithEnv applies CRYPTO_MBP_* environment variables over the
// loaded config.
func overrideWithEnv(cfg Config) Config {
	if level := os.Getenv("CRYPTO_MBP_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if output := os.Getenv("CRYPTO_MBP_OUTPUT"); output != "" {
		cfg.OutputPath = output
	}
	return cfg
}
