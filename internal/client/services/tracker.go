package services

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/accountlink/internal/client/securestore"
	"github.com/dmitrijs2005/accountlink/internal/common"
)

// MasterTracker persists the device's master account id and whether the
// current session came from an explicit credential-entry login.
type MasterTracker struct {
	store securestore.Store
}

func NewMasterTracker(store securestore.Store) *MasterTracker {
	return &MasterTracker{store: store}
}

func (t *MasterTracker) MasterAccountID(ctx context.Context) (string, bool, error) {
	id, ok, err := t.store.Get(ctx, common.KeyMasterAccountID)
	if err != nil {
		return "", false, err
	}
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

func (t *MasterTracker) SetMasterAccountID(ctx context.Context, accountID string) error {
	return t.store.Set(ctx, common.KeyMasterAccountID, accountID)
}

func (t *MasterTracker) ClearMasterAccountID(ctx context.Context) error {
	return t.store.Delete(ctx, common.KeyMasterAccountID)
}

// IsDirectLogin reports false when the flag was never written or cannot be
// parsed.
func (t *MasterTracker) IsDirectLogin(ctx context.Context) (bool, error) {
	v, ok, err := t.store.Get(ctx, common.KeyDirectLogin)
	if err != nil || !ok {
		return false, err
	}
	direct, perr := strconv.ParseBool(v)
	return perr == nil && direct, nil
}

func (t *MasterTracker) SetDirectLogin(ctx context.Context, direct bool) error {
	return t.store.Set(ctx, common.KeyDirectLogin, strconv.FormatBool(direct))
}
