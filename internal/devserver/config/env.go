package config

import (
	"github.com/caarlos0/env/v11"
)

const envPrefix = "ACCOUNTLINK_DEV_"

// parseEnv overlays cfg with ACCOUNTLINK_DEV_* variables. Unset variables
// keep the current value. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		panic(err)
	}
}
