package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envConfig holds settings read from the environment. They supply flag
// defaults; flags given on the command line win.
type envConfig struct {
	// Seed is nil when PROMAGE_SEED is unset, so an explicit 0 is kept.
	Seed     *uint64 `env:"PROMAGE_SEED"`
	Tiles    string  `env:"PROMAGE_TILES"`
	CacheDir string  `env:"PROMAGE_CACHE_DIR"`
	NoCache  bool    `env:"PROMAGE_NO_CACHE"`
	NoColor  bool    `env:"NO_COLOR"`
}

// loadEnvConfig parses the environment into an envConfig.
func loadEnvConfig() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
