package securestore

import (
	"fmt"

	"github.com/dmitrijs2005/accountlink/internal/cryptox"
)

// Cipher seals values under the device key. It also satisfies
// accounts.Sealer for the registry's secret columns.
type Cipher struct {
	key []byte
}

// NewCipher copies key, which must be cryptox.KeySize bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("invalid key size %d, want %d", len(key), cryptox.KeySize)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Cipher{key: k}, nil
}

func (c *Cipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	return cryptox.Seal(c.key, plaintext, additionalData)
}

func (c *Cipher) Open(sealed, additionalData []byte) ([]byte, error) {
	return cryptox.Open(c.key, sealed, additionalData)
}
