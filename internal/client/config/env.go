package config

import (
	"github.com/caarlos0/env/v11"
)

const envPrefix = "ACCOUNTLINK_"

// parseEnv overlays cfg with ACCOUNTLINK_* variables. Panics on malformed
// values.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		panic(err)
	}
}
