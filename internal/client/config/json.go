package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountlink/internal/flagx"
	"github.com/dmitrijs2005/accountlink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations go
// through timex.Duration so the file may say "5s".
type JsonConfig struct {
	APIBaseURL         string         `json:"api_base_url"`
	DatabasePath       string         `json:"database_path"`
	KeyFilePath        string         `json:"key_file_path"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	VerifyTimeout      timex.Duration `json:"verify_timeout"`
	UpdateCheckTimeout timex.Duration `json:"update_check_timeout"`
	Debug              *bool          `json:"debug"`
}

// parseJson overlays cfg with the file named by -c/-config. Fields missing
// from the file keep their current value. Panics on read or unmarshal errors.
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

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.KeyFilePath != "" {
		cfg.KeyFilePath = jc.KeyFilePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.VerifyTimeout.Duration != 0 {
		cfg.VerifyTimeout = jc.VerifyTimeout.Duration
	}
	if jc.UpdateCheckTimeout.Duration != 0 {
		cfg.UpdateCheckTimeout = jc.UpdateCheckTimeout.Duration
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
}
