// Package config handles configuration for the dev API server: defaults,
// an optional JSON file (-c/-config), ACCOUNTLINK_DEV_* environment variables
// and finally command-line flags.
package config

import "time"

// SeedUser is an account the dev server knows at startup.
type SeedUser struct {
	AccountID string `json:"account_id"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// Config holds runtime settings for the dev API server.
//
// SecretKey signs HS256 tokens; the default is for local use only.
type Config struct {
	EndpointAddr    string        `env:"ADDR"`
	SecretKey       string        `env:"SECRET_KEY"`
	TokenValidity   time.Duration `env:"TOKEN_VALIDITY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	Users           []SeedUser
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = "127.0.0.1:8080"
	c.SecretKey = "devSecretKey"
	c.TokenValidity = 24 * time.Hour
	c.ShutdownTimeout = 5 * time.Second
	c.Users = []SeedUser{
		{AccountID: "1001", Phone: "0599000000", Password: "parent-pass", Name: "Layla Haddad", Role: "parent"},
		{AccountID: "1002", Phone: "0599111111", Password: "student-pass", Name: "Omar Haddad", Role: "student"},
		{AccountID: "1003", Phone: "0599222222", Password: "staff-pass", Name: "Noor Saleh", Role: "staff"},
	}
}

// LoadConfig builds a Config by applying defaults, then the JSON file, the
// environment and flags, each overriding the previous.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
