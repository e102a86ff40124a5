package accounts

import (
	"context"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
)

// Repository describes storage operations for AccountRecord rows.
type Repository interface {
	// Get returns common.ErrNotFound when no row exists for accountID.
	Get(ctx context.Context, accountID string) (*models.AccountRecord, error)

	// Upsert inserts r or overwrites every column of the existing row.
	Upsert(ctx context.Context, r models.AccountRecord) error

	// Delete removes the row and reports whether one existed.
	Delete(ctx context.Context, accountID string) (bool, error)

	// ListByMaster returns the members of one group ordered by account id.
	ListByMaster(ctx context.Context, masterID string) ([]models.AccountRecord, error)

	// ListAll returns every row ordered by master id then account id.
	ListAll(ctx context.Context) ([]models.AccountRecord, error)

	// Reparent moves every member of fromMaster under toMaster.
	Reparent(ctx context.Context, fromMaster, toMaster string) (int64, error)
}

// Sealer encrypts secret columns. additionalData binds a ciphertext to the
// row and column it belongs to.
type Sealer interface {
	Seal(plaintext, additionalData []byte) ([]byte, error)
	Open(sealed, additionalData []byte) ([]byte, error)
}
