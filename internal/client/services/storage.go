package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountlink/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/accountlink/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/accountlink/internal/client/securestore"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/dbx"
)

// Storage gives access to the secure store and the registry table, either
// directly or bound to one transaction.
type Storage struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cipher *securestore.Cipher
}

// Handles are repositories bound to one DBTX.
type Handles struct {
	Store    *securestore.SQLiteStore
	Accounts accounts.Repository
	Tracker  *MasterTracker
}

func NewStorage(db *sql.DB, repos repomanager.RepositoryManager, cipher *securestore.Cipher) *Storage {
	return &Storage{db: db, repos: repos, cipher: cipher}
}

func (s *Storage) bind(db dbx.DBTX) Handles {
	store := securestore.NewSQLiteStore(s.repos.Metadata(db), s.cipher)
	return Handles{
		Store:    store,
		Accounts: s.repos.Accounts(db),
		Tracker:  NewMasterTracker(store),
	}
}

// Direct returns handles on the connection pool. Each call commits on its
// own. Never use them inside InTx: the pool has a single connection.
func (s *Storage) Direct() Handles {
	return s.bind(s.db)
}

// InTx runs fn with transaction-bound handles and commits when fn returns
// nil. fn's error is returned as is (errors.Is keeps matching it); failures
// to begin or commit wrap common.ErrStorage.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, h Handles) error) error {
	var fnErr error
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		fnErr = fn(ctx, s.bind(tx))
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storageErr(err)
	}
	return err
}

// storageErr wraps err with common.ErrStorage unless it already is one.
func storageErr(err error) error {
	if err == nil || errors.Is(err, common.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStorage, err)
}
