package securestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/accountlink/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKey_CreatesThenReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device.key")

	k1, err := LoadOrCreateKey(path, "")
	require.NoError(t, err)
	assert.Len(t, k1, cryptox.KeySize)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	k2, err := LoadOrCreateKey(path, "")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestLoadOrCreateKey_PassphraseChangesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.key")

	k1, err := LoadOrCreateKey(path, "one")
	require.NoError(t, err)
	k2, err := LoadOrCreateKey(path, "two")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestLoadOrCreateKey_DistinctDevices(t *testing.T) {
	k1, err := LoadOrCreateKey(filepath.Join(t.TempDir(), "a.key"), "")
	require.NoError(t, err)
	k2, err := LoadOrCreateKey(filepath.Join(t.TempDir(), "b.key"), "")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestLoadOrCreateKey_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.key")
	require.NoError(t, os.WriteFile(path, []byte("not-hex"), 0o600))

	_, err := LoadOrCreateKey(path, "")
	require.ErrorContains(t, err, "corrupt")

	require.NoError(t, os.WriteFile(path, []byte("abcd"), 0o600))
	_, err = LoadOrCreateKey(path, "")
	require.ErrorContains(t, err, "corrupt")
}
