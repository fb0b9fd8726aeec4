// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the engine's process-level configuration. The rule and
// operator paths are optional overrides; when empty the built-in tables are
// used.
type Config struct {
	RulesPath     string
	OperatorsPath string
	Provider      string
}

const defaultProvider = "image-discerner"

// Load reads configuration from the environment, with an optional .env file.
// A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RulesPath:     os.Getenv("DISCERNER_RULES"),
		OperatorsPath: os.Getenv("DISCERNER_OPERATORS"),
		Provider:      os.Getenv("DISCERNER_PROVIDER"),
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}
	return cfg, nil
}
