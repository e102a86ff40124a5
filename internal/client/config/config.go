package config

import "time"

// Config holds runtime settings for the accountlink CLI.
//
// VerifyTimeout bounds the start-up token check (fail closed) and
// UpdateCheckTimeout the version check running beside it (fail open).
type Config struct {
	APIBaseURL         string        `env:"API_URL"`
	DatabasePath       string        `env:"DB_PATH"`
	KeyFilePath        string        `env:"KEY_FILE"`
	Passphrase         string        `env:"PASSPHRASE"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	VerifyTimeout      time.Duration `env:"VERIFY_TIMEOUT"`
	UpdateCheckTimeout time.Duration `env:"UPDATE_CHECK_TIMEOUT"`
	Debug              bool          `env:"DEBUG"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "accountlink.db"
	c.KeyFilePath = "accountlink.key"
	c.Passphrase = ""
	c.RequestTimeout = 10 * time.Second
	c.VerifyTimeout = 5 * time.Second
	c.UpdateCheckTimeout = 2 * time.Second
	c.Debug = false
}

// LoadConfig constructs a Config, applies defaults, then overlays the JSON
// file, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
