package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"api_base_url":         "http://www.example:9000",
		"verify_timeout":       "10s",
		"update_check_timeout": float64(500 * time.Millisecond),
		"debug":                true,
	})

	t.Run("loads from flags", func(t *testing.T) {
		withArgs(t, "-config", pathFlag)

		cfg := &Config{DatabasePath: "kept.db"}
		parseJson(cfg)

		assert.Equal(t, "http://www.example:9000", cfg.APIBaseURL)
		assert.Equal(t, 10*time.Second, cfg.VerifyTimeout)
		assert.Equal(t, 500*time.Millisecond, cfg.UpdateCheckTimeout)
		assert.True(t, cfg.Debug)
		assert.Equal(t, "kept.db", cfg.DatabasePath)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		withArgs(t)

		cfg := &Config{
			APIBaseURL:    "http://defaults:1234",
			VerifyTimeout: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.APIBaseURL)
		assert.Equal(t, 42*time.Second, cfg.VerifyTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-config", bad)

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(dir, "absent.json"))

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
