package services

import (
	"context"

	"github.com/dmitrijs2005/accountlink/internal/client/securestore"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/google/uuid"
)

// DeviceID returns the installation id, creating it on first use.
func DeviceID(ctx context.Context, store securestore.Store) (string, error) {
	id, ok, err := store.Get(ctx, common.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.Set(ctx, common.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
