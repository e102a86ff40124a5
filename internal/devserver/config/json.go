package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountlink/internal/flagx"
	"github.com/dmitrijs2005/accountlink/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept "1h"
// or integer nanoseconds.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	SecretKey       string         `json:"secret_key"`
	TokenValidity   timex.Duration `json:"token_validity"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	Users           []SeedUser     `json:"users"`
}

// parseJson overlays cfg with the file named by -c/-config. Fields missing
// from the file keep their current value. Panics on unreadable or invalid
// files.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.TokenValidity.Duration != 0 {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.ShutdownTimeout.Duration != 0 {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.Users != nil {
		cfg.Users = jc.Users
	}
}
