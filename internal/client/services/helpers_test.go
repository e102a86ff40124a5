package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/accountlink/internal/client/securestore"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/cryptox"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake client ----

type fakeAccount struct {
	AccountID string
	Password  string
	Name      string
	Role      string
}

// fakeClient implements client.Client over an in-memory user table.
type fakeClient struct {
	mu sync.Mutex

	Users map[string]fakeAccount // by phone

	LoginErr     error
	GetUserErr   error
	GetUserDelay time.Duration
	// OnGetUser runs while a verification is in flight.
	OnGetUser func()

	LoginCalls        int
	LastLoginPhone    string
	LastLoginPassword string
	GetUserCalls      int
	LastGetUserID     string
	LastGetUserToken  string

	seq int
}

func newFakeClient() *fakeClient {
	return &fakeClient{Users: map[string]fakeAccount{
		"0599000000": {AccountID: "1001", Password: "parent-pass", Name: "Layla", Role: "parent"},
		"0599111111": {AccountID: "1002", Password: "student-pass", Name: "Omar", Role: "student"},
		"0599222222": {AccountID: "1003", Password: "staff-pass", Name: "Noor", Role: "staff"},
	}}
}

func (f *fakeClient) Login(ctx context.Context, phone, password string) (*models.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LoginCalls++
	f.LastLoginPhone = phone
	f.LastLoginPassword = password
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	u, ok := f.Users[phone]
	if !ok || u.Password != password {
		return nil, common.ErrInvalidCredentials
	}
	f.seq++
	return &models.LoginResult{
		AccountID: u.AccountID,
		Token:     fmt.Sprintf("tok-%s-%d", u.AccountID, f.seq),
		Name:      u.Name,
		Role:      u.Role,
	}, nil
}

func (f *fakeClient) GetUser(ctx context.Context, accountID, token string) (*models.Profile, error) {
	f.mu.Lock()
	f.GetUserCalls++
	f.LastGetUserID = accountID
	f.LastGetUserToken = token
	delay, getErr, hook := f.GetUserDelay, f.GetUserErr, f.OnGetUser
	f.mu.Unlock()

	if hook != nil {
		hook()
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", common.ErrNetwork, ctx.Err())
		}
	}
	if getErr != nil {
		return nil, getErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for phone, u := range f.Users {
		if u.AccountID == accountID {
			return &models.Profile{AccountID: accountID, Name: u.Name, Phone: phone, Role: u.Role}, nil
		}
	}
	return nil, common.ErrTokenInvalid
}

// ---- fake update checker ----

type fakeUpdates struct {
	Delay time.Duration
	Err   error

	mu       sync.Mutex
	Calls    int
	TimedOut bool
}

func (u *fakeUpdates) CheckForUpdate(ctx context.Context) error {
	u.mu.Lock()
	u.Calls++
	u.mu.Unlock()

	select {
	case <-time.After(u.Delay):
		return u.Err
	case <-ctx.Done():
		u.mu.Lock()
		u.TimedOut = true
		u.mu.Unlock()
		return ctx.Err()
	}
}

// ---- environment ----

type env struct {
	db        *sql.DB
	storage   *Storage
	session   *SessionManager
	registry  *AccountRegistry
	client    *fakeClient
	switcher  *Switcher
	auth      *AuthService
	bootstrap *Bootstrapper
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cipher, err := securestore.NewCipher(make([]byte, cryptox.KeySize))
	require.NoError(t, err)
	repos := repomanager.NewSQLiteRepositoryManager(cipher, logging.Nop())

	db, err := repomanager.OpenDatabase(context.Background(), ":memory:", repos)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.Nop()
	e := &env{db: db, client: newFakeClient()}
	e.storage = NewStorage(db, repos, cipher)
	e.session = NewSessionManager()
	e.registry = NewAccountRegistry(e.storage, e.session, log)
	e.switcher = NewSwitcher(e.storage, e.registry, e.session, e.client, log)
	e.auth = NewAuthService(e.storage, e.registry, e.session, e.client, log)
	e.bootstrap = NewBootstrapper(e.storage, e.registry, e.session, e.client, nil,
		BootstrapTimeouts{Verify: time.Second, UpdateCheck: time.Second}, log)
	return e
}

func (e *env) get(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := e.storage.Direct().Store.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func (e *env) set(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, e.storage.Direct().Store.Set(context.Background(), key, value))
}

func (e *env) master(t *testing.T) (string, bool) {
	t.Helper()
	id, ok, err := e.storage.Direct().Tracker.MasterAccountID(context.Background())
	require.NoError(t, err)
	return id, ok
}

func (e *env) direct(t *testing.T) bool {
	t.Helper()
	d, err := e.storage.Direct().Tracker.IsDirectLogin(context.Background())
	require.NoError(t, err)
	return d
}

func (e *env) group(t *testing.T, master string) []models.AccountRecord {
	t.Helper()
	list, err := e.registry.GetAccountsForMaster(context.Background(), master)
	require.NoError(t, err)
	return list
}

func (e *env) record(t *testing.T, id string) models.AccountRecord {
	t.Helper()
	rec, err := e.registry.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return *rec
}

// seed writes a record straight into the table.
func (e *env) seed(t *testing.T, rec models.AccountRecord) {
	t.Helper()
	if rec.Credentials == nil {
		rec.Credentials = models.TokenOnly{}
	}
	require.NoError(t, e.storage.Direct().Accounts.Upsert(context.Background(), rec))
}

// failAccountWrites makes every later insert or update of the accounts table
// abort.
func (e *env) failAccountWrites(t *testing.T) {
	t.Helper()
	_, err := e.db.Exec(`
CREATE TRIGGER accounts_fail_insert BEFORE INSERT ON accounts BEGIN SELECT RAISE(ABORT, 'disk full'); END;
CREATE TRIGGER accounts_fail_update BEFORE UPDATE ON accounts BEGIN SELECT RAISE(ABORT, 'disk full'); END;
CREATE TRIGGER accounts_fail_delete BEFORE DELETE ON accounts BEGIN SELECT RAISE(ABORT, 'disk full'); END;`)
	require.NoError(t, err)
}

func ids(records []models.AccountRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.AccountID)
	}
	return out
}
