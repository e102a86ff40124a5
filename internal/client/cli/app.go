package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/accountlink/internal/client/client"
	"github.com/dmitrijs2005/accountlink/internal/client/config"
	"github.com/dmitrijs2005/accountlink/internal/client/locale"
	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/accountlink/internal/client/securestore"
	"github.com/dmitrijs2005/accountlink/internal/client/services"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"golang.org/x/text/language"
)

type authService interface {
	Login(ctx context.Context, phone, password string) (*models.Profile, error)
	AddLinkedAccount(ctx context.Context, phone, password string) (*models.AccountRecord, error)
	Logout(ctx context.Context) error
	Accounts(ctx context.Context) ([]models.AccountRecord, error)
	SetLocale(ctx context.Context, raw string) (language.Tag, error)
}

type accountSwitcher interface {
	SwitchTo(ctx context.Context, accountID string) error
}

type accountRemover interface {
	RemoveAccount(ctx context.Context, accountID string) error
}

type App struct {
	config    *config.Config
	db        *sql.DB
	logger    logging.Logger
	session   *services.SessionManager
	auth      authService
	switcher  accountSwitcher
	registry  accountRemover
	bootstrap *services.Bootstrapper
	reader    *bufio.Reader
	out       io.Writer
	locale    language.Tag
}

// NewApp opens the encrypted local database under c and wires the services
// against the account API.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	key, err := securestore.LoadOrCreateKey(c.KeyFilePath, c.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("error loading device key: %w", err)
	}
	cipher, err := securestore.NewCipher(key)
	common.WipeByteArray(key)
	if err != nil {
		return nil, err
	}

	repos := repomanager.NewSQLiteRepositoryManager(cipher, logger)
	db, err := repomanager.OpenDatabase(ctx, c.DatabasePath, repos)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	storage := services.NewStorage(db, repos, cipher)
	deviceID, err := services.DeviceID(ctx, storage.Direct().Store)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL, deviceID, c.RequestTimeout, logger)
	return newApp(c, db, storage, api, logger), nil
}

func newApp(c *config.Config, db *sql.DB, storage *services.Storage, api client.Client, logger logging.Logger) *App {
	session := services.NewSessionManager()
	registry := services.NewAccountRegistry(storage, session, logger)
	timeouts := services.BootstrapTimeouts{Verify: c.VerifyTimeout, UpdateCheck: c.UpdateCheckTimeout}

	return &App{
		config:    c,
		db:        db,
		logger:    logger,
		session:   session,
		auth:      services.NewAuthService(storage, registry, session, api, logger),
		switcher:  services.NewSwitcher(storage, registry, session, api, logger),
		registry:  registry,
		bootstrap: services.NewBootstrapper(storage, registry, session, api, nil, timeouts, logger),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		locale:    locale.Default,
	}
}

// Run restores the previous session and serves the REPL until the user exits
// or ctx is done. The database is closed on return.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.watchSession(watchCtx)

	a.Start(ctx)

	fmt.Fprintln(a.out, "accountlink CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Start runs the bootstrap. Its failures are logged, never shown: the user
// simply starts logged out.
func (a *App) Start(ctx context.Context) {
	res, err := a.bootstrap.Run(ctx)
	a.locale = res.Locale
	if err != nil {
		a.logger.Warn(ctx, "bootstrap finished with error", "state", res.State.String(), "error", err)
	}
	if res.State == services.StateAuthenticated && res.Profile != nil {
		fmt.Fprintf(a.out, "Welcome back, %s\n", displayName(*res.Profile))
	}
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// watchSession logs every published session change.
func (a *App) watchSession(ctx context.Context) {
	ch, cancel := a.session.Subscribe()
	defer cancel()

	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return
			}
			a.logger.Debug(ctx, "session changed", "authenticated", s.Authenticated, "account_id", s.AccountID)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	who := "logged out"
	if s := a.session.Current(); s.Authenticated {
		who = s.AccountID
		if s.Profile != nil && s.Profile.Name != "" {
			who = s.Profile.Name
		}
	}
	return fmt.Sprintf("(%s %s)", who, a.locale)
}

func displayName(p models.Profile) string {
	if p.Name == "" {
		return p.AccountID
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.AccountID)
}
