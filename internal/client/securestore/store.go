package securestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountlink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/accountlink/internal/common"
)

// Store persists small string values by key. Every error wraps
// common.ErrStorage.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLiteStore is a Store over a metadata.Repository. Bind the repository to a
// *sql.Tx to make several writes commit together.
type SQLiteStore struct {
	repo   metadata.Repository
	cipher *Cipher
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(repo metadata.Repository, cipher *Cipher) *SQLiteStore {
	return &SQLiteStore{repo: repo, cipher: cipher}
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", common.ErrStorage, op, key, err)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	if !ok {
		return "", false, nil
	}

	plain, err := s.cipher.Open(sealed, []byte(key))
	if err != nil {
		return "", false, storageErr("decrypt", key, err)
	}
	return string(plain), true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.cipher.Seal([]byte(value), []byte(key))
	if err != nil {
		return storageErr("encrypt", key, err)
	}
	if err := s.repo.Set(ctx, key, sealed); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

// DeleteMany removes several keys in one statement.
func (s *SQLiteStore) DeleteMany(ctx context.Context, keys ...string) error {
	if err := s.repo.Delete(ctx, keys...); err != nil {
		return storageErr("delete", fmt.Sprint(keys), err)
	}
	return nil
}
