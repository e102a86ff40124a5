package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/auth"
	"github.com/dmitrijs2005/accountlink/internal/client/client"
	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
)

// Switcher moves the active session to another linked account.
type Switcher struct {
	storage  *Storage
	registry *AccountRegistry
	session  *SessionManager
	client   client.Client
	logger   logging.Logger
	now      func() time.Time
}

func NewSwitcher(storage *Storage, registry *AccountRegistry, session *SessionManager, c client.Client, logger logging.Logger) *Switcher {
	return &Switcher{
		storage:  storage,
		registry: registry,
		session:  session,
		client:   c,
		logger:   logger.With("module", "switcher"),
		now:      time.Now,
	}
}

// SwitchTo makes accountID the active session. The target must belong to
// the group the device operates in; other linked ids report common.ErrNotFound.
//
// The current session is cleared and the direct-login flag dropped before the
// target is authenticated, so every failure after that point leaves the
// device logged out with the registry untouched. Accounts with replayable
// credentials log in again; token-only accounts reuse their cached token
// unless it is a JWT that has already expired.
func (s *Switcher) SwitchTo(ctx context.Context, accountID string) error {
	s.session.op.Lock()
	defer s.session.op.Unlock()

	target, err := s.registry.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	current := s.session.Current()
	if current.Authenticated && current.AccountID == accountID {
		return fmt.Errorf("switch to %s: %w", accountID, common.ErrSameAccount)
	}

	h := s.storage.Direct()
	group, hasGroup, err := activeGroup(ctx, h, current)
	if err != nil {
		return fmt.Errorf("switch to %s: %w", accountID, err)
	}
	if hasGroup && target.MasterID != group {
		return fmt.Errorf("switch to %s: not linked to %s: %w", accountID, group, common.ErrNotFound)
	}

	wasDirect, err := h.Tracker.IsDirectLogin(ctx)
	if err != nil {
		s.logger.Warn(ctx, "direct-login flag unreadable", "error", err)
	}
	s.logger.Info(ctx, "switching account", "from", current.AccountID, "to", accountID, "was_direct_login", wasDirect)

	// Past this point the switch runs to completion.
	wctx := context.WithoutCancel(ctx)

	clearErr := h.Store.DeleteMany(wctx, common.KeySessionToken, common.KeySessionAccountID)
	s.session.SetLoggedOut()
	if clearErr != nil {
		return fmt.Errorf("clear session: %w", clearErr)
	}

	if err := h.Tracker.SetDirectLogin(wctx, false); err != nil {
		return fmt.Errorf("reset direct login: %w", err)
	}

	if creds, ok := target.Switchable(); ok {
		return s.switchWithCredentials(wctx, *target, creds)
	}
	return s.switchWithToken(wctx, *target)
}

func (s *Switcher) switchWithCredentials(ctx context.Context, target models.AccountRecord, creds models.SwitchableCredentials) error {
	res, err := s.client.Login(ctx, creds.Phone, creds.Password)
	if err != nil {
		s.logger.Warn(ctx, "switch login failed", "account_id", target.AccountID, "error", err)
		return fmt.Errorf("switch to %s: %w", target.AccountID, err)
	}
	if res.AccountID != target.AccountID {
		return fmt.Errorf("switch to %s: login returned account %s: %w", target.AccountID, res.AccountID, common.ErrInvalidCredentials)
	}

	refreshed := target.WithProfile(res.Profile(creds.Phone))
	refreshed.SessionToken = res.Token
	refreshed.Credentials = creds

	unlock := s.registry.lockMaster(target.MasterID)
	defer unlock()

	err = s.storage.InTx(ctx, func(ctx context.Context, h Handles) error {
		if err := persistSession(ctx, h, res.AccountID, res.Token); err != nil {
			return err
		}
		_, err := addTx(ctx, h, refreshed, target.MasterID, AddOrRefresh)
		return err
	})
	if err != nil {
		return fmt.Errorf("switch to %s: %w", target.AccountID, err)
	}

	s.session.SetAuthenticated(refreshed.AccountID, refreshed.SessionToken, models.ProfileOf(refreshed), false)
	s.logger.Info(ctx, "switched account", "account_id", refreshed.AccountID, "mode", "credentials")
	return nil
}

func (s *Switcher) switchWithToken(ctx context.Context, target models.AccountRecord) error {
	if target.SessionToken == "" {
		return fmt.Errorf("switch to %s: %w", target.AccountID, common.ErrNoCachedCredentials)
	}
	if auth.Expired(target.SessionToken, s.now()) {
		s.logger.Info(ctx, "cached token expired", "account_id", target.AccountID)
		return fmt.Errorf("switch to %s: cached token expired: %w", target.AccountID, common.ErrTokenInvalid)
	}

	err := s.storage.InTx(ctx, func(ctx context.Context, h Handles) error {
		return persistSession(ctx, h, target.AccountID, target.SessionToken)
	})
	if err != nil {
		return fmt.Errorf("switch to %s: %w", target.AccountID, err)
	}

	s.session.SetAuthenticated(target.AccountID, target.SessionToken, models.ProfileOf(target), false)
	s.logger.Info(ctx, "switched account", "account_id", target.AccountID, "mode", "token")
	return nil
}

// persistSession writes the active token and account id.
func persistSession(ctx context.Context, h Handles, accountID, token string) error {
	if err := h.Store.Set(ctx, common.KeySessionToken, token); err != nil {
		return err
	}
	return h.Store.Set(ctx, common.KeySessionAccountID, accountID)
}
