// Package repomanager wires the SQLite-backed client repositories together
// and applies the embedded goose migrations to the device database.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accountlink/internal/client/migrations"
	"github.com/dmitrijs2005/accountlink/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/accountlink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/accountlink/internal/dbx"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code can
// run against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
type SQLiteRepositoryManager struct {
	sealer accounts.Sealer
	logger logging.Logger
}

// NewSQLiteRepositoryManager returns a manager whose account repositories
// seal secret columns with sealer. Migration progress goes to logger at
// debug level.
func NewSQLiteRepositoryManager(sealer accounts.Sealer, logger logging.Logger) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{sealer: sealer, logger: logger.With("module", "migrations")}
}

// gooseLogger adapts logging.Logger to goose.Logger.
type gooseLogger struct {
	l logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf only logs; goose reports migration failures as returned errors too.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Metadata returns a metadata.Repository bound to db.
func (m *SQLiteRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Accounts returns an accounts.Repository bound to db.
func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db, m.sealer)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{l: m.logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// OpenDatabase opens the SQLite database at dsn and migrates it. The pool is
// limited to one connection: SQLite serializes writers anyway, and an
// in-memory dsn is only shared within a single connection.
func OpenDatabase(ctx context.Context, dsn string, m RepositoryManager) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
