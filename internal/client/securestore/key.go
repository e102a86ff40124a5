package securestore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/cryptox"
	"github.com/dmitrijs2005/accountlink/internal/filex"
)

const deviceSecretSize = 32

// LoadOrCreateKey reads the device secret from path, creating it on first
// use, and derives the store key from it and passphrase.
func LoadOrCreateKey(path, passphrase string) ([]byte, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, fmt.Errorf("key file: %w", err)
	}

	secret, err := readSecret(abs)
	if errors.Is(err, fs.ErrNotExist) {
		secret, err = createSecret(abs)
	}
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	return cryptox.DeriveKey([]byte(passphrase), secret), nil
}

func readSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	secret, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("key file %s is corrupt: %w", path, err)
	}
	if len(secret) != deviceSecretSize {
		return nil, fmt.Errorf("key file %s is corrupt: %d bytes", path, len(secret))
	}
	return secret, nil
}

func createSecret(path string) ([]byte, error) {
	secret := common.GenerateRandByteArray(deviceSecretSize)
	if err := filex.WriteFileAtomic(path, []byte(hex.EncodeToString(secret)), 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return secret, nil
}
