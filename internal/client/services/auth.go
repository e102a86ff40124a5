package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountlink/internal/client/client"
	"github.com/dmitrijs2005/accountlink/internal/client/locale"
	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"golang.org/x/text/language"
)

// AuthService covers the user-initiated identity operations: explicit login,
// linking another account, logout and the account listings shown to the user.
type AuthService struct {
	storage  *Storage
	registry *AccountRegistry
	session  *SessionManager
	client   client.Client
	logger   logging.Logger
}

func NewAuthService(storage *Storage, registry *AccountRegistry, session *SessionManager, c client.Client, logger logging.Logger) *AuthService {
	return &AuthService{
		storage:  storage,
		registry: registry,
		session:  session,
		client:   c,
		logger:   logger.With("module", "auth"),
	}
}

// Login authenticates with credentials the user typed. The account is linked
// with replayable credentials, becomes master when none is set, and the
// session is marked as a direct login.
func (a *AuthService) Login(ctx context.Context, phone, password string) (*models.Profile, error) {
	a.session.op.Lock()
	defer a.session.op.Unlock()

	res, err := a.client.Login(ctx, phone, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	profile := res.Profile(phone)

	wctx := context.WithoutCancel(ctx)
	master, err := resolveMaster(wctx, a.storage.Direct(), models.AccountRecord{AccountID: res.AccountID})
	if err != nil {
		return nil, err
	}

	unlock := a.registry.lockMaster(master)
	defer unlock()

	rec := models.AccountRecord{
		AccountID:    res.AccountID,
		DisplayName:  res.Name,
		Phone:        phone,
		Role:         res.Role,
		SessionToken: res.Token,
		Credentials:  models.SwitchableCredentials{Phone: phone, Password: password},
	}

	err = a.storage.InTx(wctx, func(ctx context.Context, h Handles) error {
		if err := persistSession(ctx, h, res.AccountID, res.Token); err != nil {
			return err
		}
		if _, err := addTx(ctx, h, rec, master, AddOrRefresh); err != nil {
			return err
		}
		_, hasMaster, err := h.Tracker.MasterAccountID(ctx)
		if err != nil {
			return err
		}
		if !hasMaster {
			if err := h.Tracker.SetMasterAccountID(ctx, res.AccountID); err != nil {
				return err
			}
		}
		return h.Tracker.SetDirectLogin(ctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	a.session.SetAuthenticated(res.AccountID, res.Token, profile, true)
	a.logger.Info(ctx, "logged in", "account_id", res.AccountID, "master_id", master)
	return &profile, nil
}

// AddLinkedAccount logs in a second account and links it into the current
// group. The active session is not changed.
func (a *AuthService) AddLinkedAccount(ctx context.Context, phone, password string) (*models.AccountRecord, error) {
	current := a.session.Current()
	if !current.Authenticated {
		return nil, common.ErrNotAuthenticated
	}

	res, err := a.client.Login(ctx, phone, password)
	if err != nil {
		return nil, fmt.Errorf("add account: %w", err)
	}
	if res.AccountID == current.AccountID {
		return nil, fmt.Errorf("add account %s: %w", res.AccountID, common.ErrAlreadyLinked)
	}

	rec := models.AccountRecord{
		AccountID:    res.AccountID,
		DisplayName:  res.Name,
		Phone:        phone,
		Role:         res.Role,
		SessionToken: res.Token,
		Credentials:  models.SwitchableCredentials{Phone: phone, Password: password},
	}
	if err := a.registry.AddAccount(context.WithoutCancel(ctx), rec, AddOnly); err != nil {
		return nil, fmt.Errorf("add account: %w", err)
	}

	stored, err := a.registry.GetAccount(ctx, res.AccountID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Logout forgets the active session. Linked accounts and the master stay.
func (a *AuthService) Logout(ctx context.Context) error {
	a.session.op.Lock()
	defer a.session.op.Unlock()

	err := a.storage.Direct().Store.DeleteMany(context.WithoutCancel(ctx), common.KeySessionToken, common.KeySessionAccountID)
	a.session.SetLoggedOut()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.logger.Info(ctx, "logged out")
	return nil
}

// currentGroup returns the current master id and its members, master first.
func (a *AuthService) currentGroup(ctx context.Context) (string, []models.AccountRecord, error) {
	current := a.session.Current()
	if !current.Authenticated {
		return "", nil, common.ErrNotAuthenticated
	}

	master, ok, err := activeGroup(ctx, a.storage.Direct(), current)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		master = current.AccountID
	}

	members, err := a.registry.GetAccountsForMaster(ctx, master)
	if err != nil {
		return "", nil, err
	}
	models.SortMasterFirst(members, master)
	return master, members, nil
}

// Accounts lists the current group, master first.
func (a *AuthService) Accounts(ctx context.Context) ([]models.AccountRecord, error) {
	_, members, err := a.currentGroup(ctx)
	return members, err
}

// OtherAccounts lists the switch targets: the current group without the
// active account, master first.
func (a *AuthService) OtherAccounts(ctx context.Context) ([]models.AccountRecord, error) {
	_, members, err := a.currentGroup(ctx)
	if err != nil {
		return nil, err
	}
	current := a.session.Current().AccountID
	others := make([]models.AccountRecord, 0, len(members))
	for _, m := range members {
		if m.AccountID != current {
			others = append(others, m)
		}
	}
	return others, nil
}

// SetLocale persists the preferred UI language and returns the supported tag
// it resolves to.
func (a *AuthService) SetLocale(ctx context.Context, raw string) (language.Tag, error) {
	tag := locale.Resolve(raw)
	if err := a.storage.Direct().Store.Set(ctx, common.KeyLocale, tag.String()); err != nil {
		return tag, err
	}
	return tag, nil
}
