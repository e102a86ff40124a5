package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/client/client"
	"github.com/dmitrijs2005/accountlink/internal/client/locale"
	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// State is a step of the start-up state machine.
type State int

const (
	StateLoadLocale State = iota
	StateLoadSession
	StateVerifyToken
	StateAuthenticated
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateLoadLocale:
		return "load_locale"
	case StateLoadSession:
		return "load_session"
	case StateVerifyToken:
		return "verify_token"
	case StateAuthenticated:
		return "authenticated"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a bootstrap run.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateLoggedOut
}

// UpdateChecker looks for a newer app version. Its outcome never blocks
// start-up.
type UpdateChecker interface {
	CheckForUpdate(ctx context.Context) error
}

// BootstrapResult is the terminal outcome of a run.
type BootstrapResult struct {
	State     State
	AccountID string
	Profile   *models.Profile
	Locale    language.Tag
}

// BootstrapTimeouts bounds the remote calls of a run. Token verification
// fails closed on timeout; the update check fails open.
type BootstrapTimeouts struct {
	Verify      time.Duration
	UpdateCheck time.Duration
}

type Bootstrapper struct {
	storage  *Storage
	registry *AccountRegistry
	session  *SessionManager
	client   client.Client
	updates  UpdateChecker
	timeouts BootstrapTimeouts
	logger   logging.Logger

	// OnState, when set, observes every state entered.
	OnState func(State)
}

// NewBootstrapper wires a start-up run. updates may be nil.
func NewBootstrapper(storage *Storage, registry *AccountRegistry, session *SessionManager, c client.Client,
	updates UpdateChecker, timeouts BootstrapTimeouts, logger logging.Logger) *Bootstrapper {
	return &Bootstrapper{
		storage:  storage,
		registry: registry,
		session:  session,
		client:   c,
		updates:  updates,
		timeouts: timeouts,
		logger:   logger.With("module", "bootstrap"),
	}
}

func (b *Bootstrapper) enter(ctx context.Context, s State) {
	b.logger.Debug(ctx, "bootstrap state", "state", s.String())
	if b.OnState != nil {
		b.OnState(s)
	}
}

// Run executes the state machine once. The result is always terminal. A
// non-nil error reports either a cancelled ctx (the device is left logged out
// in memory but the cached session is kept) or a failed registry
// reconciliation after a successful verification.
//
// The remote verification runs without the session lock. Its verdict is only
// applied if the cached session still holds the verified pair; when a switch,
// login or logout replaced it meanwhile, Run reports the session as it now is
// and touches neither the store nor the session.
func (b *Bootstrapper) Run(ctx context.Context) (BootstrapResult, error) {
	res := BootstrapResult{Locale: locale.Default}
	direct := b.storage.Direct()

	b.enter(ctx, StateLoadLocale)
	res.Locale = b.loadLocale(ctx, direct)

	b.enter(ctx, StateLoadSession)
	b.session.op.Lock()
	token, accountID, ok := b.loadSession(ctx, direct)
	if !ok {
		defer b.session.op.Unlock()
		return b.loggedOut(ctx, res), nil
	}
	b.session.op.Unlock()

	b.enter(ctx, StateVerifyToken)
	profile, err := b.verify(ctx, accountID, token)

	b.session.op.Lock()
	defer b.session.op.Unlock()

	if !b.stillCached(ctx, accountID, token) {
		b.logger.Info(ctx, "session replaced during verification", "account_id", accountID)
		return b.superseded(ctx, res), nil
	}

	if err != nil {
		if ctx.Err() != nil {
			b.session.SetLoggedOut()
			res.State = StateLoggedOut
			b.enter(ctx, StateLoggedOut)
			return res, ctx.Err()
		}
		b.logger.Info(ctx, "cached session rejected", "account_id", accountID, "error", err)
		b.onVerifyFail(ctx)
		return b.loggedOut(ctx, res), nil
	}

	err = b.onVerifyOk(ctx, accountID, token, *profile)
	res.State = StateAuthenticated
	res.AccountID = accountID
	res.Profile = profile
	b.enter(ctx, StateAuthenticated)
	return res, err
}

func (b *Bootstrapper) loggedOut(ctx context.Context, res BootstrapResult) BootstrapResult {
	b.session.SetLoggedOut()
	res.State = StateLoggedOut
	b.enter(ctx, StateLoggedOut)
	return res
}

// stillCached reports whether the store still holds accountID and token as
// the active session. The caller holds the session lock.
func (b *Bootstrapper) stillCached(ctx context.Context, accountID, token string) bool {
	gotToken, gotID, ok := b.loadSession(context.WithoutCancel(ctx), b.storage.Direct())
	return ok && gotToken == token && gotID == accountID
}

// superseded reports the current session without changing it.
func (b *Bootstrapper) superseded(ctx context.Context, res BootstrapResult) BootstrapResult {
	cur := b.session.Current()
	if cur.Authenticated {
		res.State = StateAuthenticated
		res.AccountID = cur.AccountID
		res.Profile = cur.Profile
	} else {
		res.State = StateLoggedOut
	}
	b.enter(ctx, res.State)
	return res
}

func (b *Bootstrapper) loadLocale(ctx context.Context, h Handles) language.Tag {
	raw, ok, err := h.Store.Get(ctx, common.KeyLocale)
	if err != nil {
		b.logger.Warn(ctx, "locale unreadable, using default", "error", err)
		return locale.Default
	}
	if !ok {
		return locale.Default
	}
	return locale.Resolve(raw)
}

// loadSession treats unreadable values as absent.
func (b *Bootstrapper) loadSession(ctx context.Context, h Handles) (token, accountID string, ok bool) {
	token, okToken, err := h.Store.Get(ctx, common.KeySessionToken)
	if err != nil {
		b.logger.Warn(ctx, "session token unreadable", "error", err)
		return "", "", false
	}
	accountID, okID, err := h.Store.Get(ctx, common.KeySessionAccountID)
	if err != nil {
		b.logger.Warn(ctx, "session account unreadable", "error", err)
		return "", "", false
	}
	if !okToken || !okID || token == "" || accountID == "" {
		return "", "", false
	}
	return token, accountID, true
}

// verify fetches the profile for the cached token while the update check
// runs alongside under its own deadline.
func (b *Bootstrapper) verify(ctx context.Context, accountID, token string) (*models.Profile, error) {
	var (
		g         errgroup.Group
		profile   *models.Profile
		verifyErr error
	)

	g.Go(func() error {
		vctx, cancel := context.WithTimeout(ctx, b.timeouts.Verify)
		defer cancel()
		profile, verifyErr = b.client.GetUser(vctx, accountID, token)
		if verifyErr == nil && profile == nil {
			verifyErr = common.ErrTokenInvalid
		}
		return nil
	})

	if b.updates != nil {
		g.Go(func() error {
			uctx, cancel := context.WithTimeout(ctx, b.timeouts.UpdateCheck)
			defer cancel()
			if err := b.updates.CheckForUpdate(uctx); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					b.logger.Info(ctx, "update check timed out, continuing")
				} else {
					b.logger.Warn(ctx, "update check failed, continuing", "error", err)
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	return profile, verifyErr
}

// onVerifyFail forgets the cached session. Registry and master are kept. The
// caller holds the session lock.
func (b *Bootstrapper) onVerifyFail(ctx context.Context) {
	h := b.storage.Direct()
	if err := h.Store.DeleteMany(context.WithoutCancel(ctx), common.KeySessionToken, common.KeySessionAccountID); err != nil {
		b.logger.Error(ctx, "failed to clear rejected session", "error", err)
	}
}

// onVerifyOk publishes the verified session and reconciles it into the
// registry: a direct login is upserted into its group, a missing master is
// set to this account, and an existing record gets the fresh profile. The
// caller holds the session lock.
func (b *Bootstrapper) onVerifyOk(ctx context.Context, accountID, token string, profile models.Profile) error {
	h := b.storage.Direct()
	isDirect, err := h.Tracker.IsDirectLogin(ctx)
	if err != nil {
		b.logger.Warn(ctx, "direct-login flag unreadable", "error", err)
	}
	b.session.SetAuthenticated(accountID, token, profile, isDirect)

	master, hasMaster, err := h.Tracker.MasterAccountID(ctx)
	if err != nil {
		return storageErr(err)
	}
	if !hasMaster {
		master = accountID
	}

	rec := models.AccountRecord{
		AccountID:    accountID,
		MasterID:     master,
		DisplayName:  profile.Name,
		Phone:        profile.Phone,
		Role:         profile.Role,
		SessionToken: token,
	}

	unlock := b.registry.lockMaster(master)
	defer unlock()

	wctx := context.WithoutCancel(ctx)
	return b.storage.InTx(wctx, func(ctx context.Context, h Handles) error {
		if !hasMaster {
			if err := h.Tracker.SetMasterAccountID(ctx, accountID); err != nil {
				return err
			}
			b.logger.Info(ctx, "master set from verified session", "account_id", accountID)
		}

		existing, err := h.Accounts.Get(ctx, accountID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return storageErr(err)
		}
		if existing == nil && !isDirect && hasMaster {
			return nil
		}

		_, err = addTx(ctx, h, rec, master, AddOrRefresh)
		return err
	})
}
