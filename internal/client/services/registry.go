package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
)

// AddMode selects what AddAccount does with an id that is already linked.
type AddMode int

const (
	// AddOnly fails with common.ErrAlreadyLinked and leaves the row alone.
	AddOnly AddMode = iota
	// AddOrRefresh overwrites token, profile and credentials.
	AddOrRefresh
)

// AccountRegistry keeps the linked AccountRecords of this device, grouped by
// master. It does not order listings for display; see models.SortMasterFirst.
type AccountRegistry struct {
	storage *Storage
	session *SessionManager
	locks   *keyedMutex
	logger  logging.Logger
}

func NewAccountRegistry(storage *Storage, session *SessionManager, logger logging.Logger) *AccountRegistry {
	return &AccountRegistry{
		storage: storage,
		session: session,
		locks:   newKeyedMutex(),
		logger:  logger.With("module", "registry"),
	}
}

// lockMaster serializes registry mutations of one group.
func (r *AccountRegistry) lockMaster(masterID string) func() {
	return r.locks.Lock(masterID)
}

// resolveMaster picks the group a new record joins: its own MasterID when
// set, else the tracked master, else the record itself.
func resolveMaster(ctx context.Context, h Handles, rec models.AccountRecord) (string, error) {
	if rec.MasterID != "" {
		return rec.MasterID, nil
	}
	id, ok, err := h.Tracker.MasterAccountID(ctx)
	if err != nil {
		return "", storageErr(err)
	}
	if ok {
		return id, nil
	}
	return rec.AccountID, nil
}

// activeGroup returns the master of the group the device operates in: the
// active account's group when it is linked, else the tracked master.
func activeGroup(ctx context.Context, h Handles, current models.SessionState) (string, bool, error) {
	if current.Authenticated {
		rec, err := h.Accounts.Get(ctx, current.AccountID)
		switch {
		case err == nil:
			return rec.MasterID, true, nil
		case !errors.Is(err, common.ErrNotFound):
			return "", false, storageErr(err)
		}
	}
	id, ok, err := h.Tracker.MasterAccountID(ctx)
	if err != nil {
		return "", false, storageErr(err)
	}
	return id, ok, nil
}

// AddAccount links rec under the resolved master. The master is resolved
// under the session lock, so a concurrent removal that promotes a new master
// either completes first or waits for the add.
func (r *AccountRegistry) AddAccount(ctx context.Context, rec models.AccountRecord, mode AddMode) error {
	if rec.AccountID == "" {
		return errors.New("add account: empty account id")
	}

	r.session.op.Lock()
	defer r.session.op.Unlock()

	master, err := resolveMaster(ctx, r.storage.Direct(), rec)
	if err != nil {
		return err
	}

	unlock := r.lockMaster(master)
	defer unlock()

	var stored models.AccountRecord
	err = r.storage.InTx(ctx, func(ctx context.Context, h Handles) error {
		stored, err = addTx(ctx, h, rec, master, mode)
		return err
	})
	if err != nil {
		return err
	}

	r.logger.Info(ctx, "account linked", "account_id", stored.AccountID, "master_id", stored.MasterID, "mode", mode.String())
	return nil
}

// addTx inserts or refreshes rec inside an open transaction. The caller holds
// the master lock.
func addTx(ctx context.Context, h Handles, rec models.AccountRecord, master string, mode AddMode) (models.AccountRecord, error) {
	existing, err := h.Accounts.Get(ctx, rec.AccountID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		existing = nil
	case err != nil:
		return models.AccountRecord{}, storageErr(err)
	}

	if existing != nil {
		if mode == AddOnly {
			return models.AccountRecord{}, fmt.Errorf("account %s: %w", rec.AccountID, common.ErrAlreadyLinked)
		}
		rec = mergeRecord(*existing, rec)
	} else {
		rec.MasterID = master
		rec.UpdatedAt = time.Time{}
	}
	if rec.Credentials == nil {
		rec.Credentials = models.TokenOnly{}
	}

	if err := h.Accounts.Upsert(ctx, rec); err != nil {
		return models.AccountRecord{}, storageErr(err)
	}
	return rec, nil
}

// mergeRecord refreshes existing with whatever incoming knows. The record
// stays in its group and never loses replayable credentials to a token-only
// refresh.
func mergeRecord(existing, incoming models.AccountRecord) models.AccountRecord {
	out := existing.WithProfile(models.ProfileOf(incoming))
	if incoming.SessionToken != "" {
		out.SessionToken = incoming.SessionToken
	}
	if c, ok := incoming.Switchable(); ok {
		out.Credentials = c
	}
	out.UpdatedAt = time.Time{}
	return out
}

// RemoveAccount deletes accountID. When it anchored its group, another member
// is promoted: the active session's account when it is in the group,
// otherwise the smallest remaining id. An emptied group clears the master
// pointer. Removing the active account logs the device out.
func (r *AccountRegistry) RemoveAccount(ctx context.Context, accountID string) error {
	r.session.op.Lock()
	defer r.session.op.Unlock()

	rec, err := r.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	unlock := r.lockMaster(rec.MasterID)
	defer unlock()

	current := r.session.Current()
	var promoted string
	var loggedOut bool

	err = r.storage.InTx(ctx, func(ctx context.Context, h Handles) error {
		rec, err := h.Accounts.Get(ctx, accountID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return err
			}
			return storageErr(err)
		}
		if _, err := h.Accounts.Delete(ctx, accountID); err != nil {
			return storageErr(err)
		}

		tracked, hasMaster, err := h.Tracker.MasterAccountID(ctx)
		if err != nil {
			return storageErr(err)
		}
		wasTracked := hasMaster && tracked == accountID

		if rec.IsMaster() || wasTracked {
			remaining, err := h.Accounts.ListByMaster(ctx, rec.MasterID)
			if err != nil {
				return storageErr(err)
			}

			if len(remaining) == 0 {
				if wasTracked {
					if err := h.Tracker.ClearMasterAccountID(ctx); err != nil {
						return storageErr(err)
					}
				}
			} else {
				promoted = promoteNewMaster(remaining, current)
				if _, err := h.Accounts.Reparent(ctx, rec.MasterID, promoted); err != nil {
					return storageErr(err)
				}
				if wasTracked || !hasMaster {
					if err := h.Tracker.SetMasterAccountID(ctx, promoted); err != nil {
						return storageErr(err)
					}
				}
			}
		}

		if current.Authenticated && current.AccountID == accountID {
			if err := h.Store.DeleteMany(ctx, common.KeySessionToken, common.KeySessionAccountID); err != nil {
				return err
			}
			loggedOut = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if loggedOut {
		r.session.SetLoggedOut()
	}
	r.logger.Info(ctx, "account removed", "account_id", accountID, "promoted", promoted)
	return nil
}

// promoteNewMaster picks the next master from a non-empty group.
func promoteNewMaster(remaining []models.AccountRecord, current models.SessionState) string {
	if current.Authenticated {
		for _, m := range remaining {
			if m.AccountID == current.AccountID {
				return m.AccountID
			}
		}
	}
	best := remaining[0].AccountID
	for _, m := range remaining[1:] {
		if lessID(m.AccountID, best) {
			best = m.AccountID
		}
	}
	return best
}

// lessID orders numeric ids numerically and anything else lexically.
func lessID(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// GetAccount returns common.ErrNotFound when accountID is not linked.
func (r *AccountRegistry) GetAccount(ctx context.Context, accountID string) (*models.AccountRecord, error) {
	rec, err := r.storage.Direct().Accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	return rec, nil
}

// GetAccountsForMaster returns every member of the group, the master included.
func (r *AccountRegistry) GetAccountsForMaster(ctx context.Context, masterID string) ([]models.AccountRecord, error) {
	list, err := r.storage.Direct().Accounts.ListByMaster(ctx, masterID)
	if err != nil {
		return nil, storageErr(err)
	}
	return list, nil
}

// GetAllAccounts lists every linked account on the device.
func (r *AccountRegistry) GetAllAccounts(ctx context.Context) ([]models.AccountRecord, error) {
	list, err := r.storage.Direct().Accounts.ListAll(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return list, nil
}

func (m AddMode) String() string {
	switch m {
	case AddOnly:
		return "add_only"
	case AddOrRefresh:
		return "add_or_refresh"
	default:
		return "unknown"
	}
}
