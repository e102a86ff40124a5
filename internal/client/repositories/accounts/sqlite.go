package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/dbx"
)

const selectColumns = `account_id, master_id, display_name, phone, role,
	session_token, login_phone, login_password, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db     dbx.DBTX
	sealer Sealer
	now    func() time.Time
}

// NewSQLiteRepository returns a repository bound to db that seals secrets
// with sealer.
func NewSQLiteRepository(db dbx.DBTX, sealer Sealer) *SQLiteRepository {
	return &SQLiteRepository{db: db, sealer: sealer, now: time.Now}
}

func tokenAD(accountID string) []byte    { return []byte("accounts/" + accountID + "/session_token") }
func passwordAD(accountID string) []byte { return []byte("accounts/" + accountID + "/login_password") }

func (r *SQLiteRepository) seal(value string, ad []byte) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return r.sealer.Seal([]byte(value), ad)
}

func (r *SQLiteRepository) open(value []byte, ad []byte) (string, error) {
	if len(value) == 0 {
		return "", nil
	}
	plain, err := r.sealer.Open(value, ad)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Upsert inserts or overwrites the row for rec.AccountID.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec models.AccountRecord) error {
	if rec.AccountID == "" || rec.MasterID == "" {
		return fmt.Errorf("failed to upsert account: empty account or master id")
	}

	token, err := r.seal(rec.SessionToken, tokenAD(rec.AccountID))
	if err != nil {
		return fmt.Errorf("failed to seal session token: %w", err)
	}

	var loginPhone sql.NullString
	var loginPassword []byte
	if c, ok := rec.Switchable(); ok {
		loginPhone = sql.NullString{String: c.Phone, Valid: true}
		if loginPassword, err = r.seal(c.Password, passwordAD(rec.AccountID)); err != nil {
			return fmt.Errorf("failed to seal password: %w", err)
		}
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now().UTC()
	}

	query := `INSERT INTO accounts (account_id, master_id, display_name, phone, role,
			session_token, login_phone, login_password, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			master_id = excluded.master_id,
			display_name = excluded.display_name,
			phone = excluded.phone,
			role = excluded.role,
			session_token = excluded.session_token,
			login_phone = excluded.login_phone,
			login_password = excluded.login_password,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		rec.AccountID, rec.MasterID, rec.DisplayName, rec.Phone, rec.Role,
		token, loginPhone, loginPassword, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scan(row scanner) (*models.AccountRecord, error) {
	var (
		rec           models.AccountRecord
		token         []byte
		loginPhone    sql.NullString
		loginPassword []byte
	)
	if err := row.Scan(&rec.AccountID, &rec.MasterID, &rec.DisplayName, &rec.Phone, &rec.Role,
		&token, &loginPhone, &loginPassword, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.SessionToken, err = r.open(token, tokenAD(rec.AccountID)); err != nil {
		return nil, fmt.Errorf("failed to open session token of %s: %w", rec.AccountID, err)
	}

	rec.Credentials = models.TokenOnly{}
	if loginPhone.Valid && len(loginPassword) > 0 {
		password, err := r.open(loginPassword, passwordAD(rec.AccountID))
		if err != nil {
			return nil, fmt.Errorf("failed to open password of %s: %w", rec.AccountID, err)
		}
		rec.Credentials = models.SwitchableCredentials{Phone: loginPhone.String, Password: password}
	}

	return &rec, nil
}

// Get returns a single record.
func (r *SQLiteRepository) Get(ctx context.Context, accountID string) (*models.AccountRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM accounts WHERE account_id = ?`, accountID)
	rec, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return rec, nil
}

// Delete removes a record.
func (r *SQLiteRepository) Delete(ctx context.Context, accountID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ?`, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.AccountRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	result := make([]models.AccountRecord, 0)
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return result, nil
}

// ListByMaster returns one group.
func (r *SQLiteRepository) ListByMaster(ctx context.Context, masterID string) ([]models.AccountRecord, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM accounts WHERE master_id = ? ORDER BY account_id`, masterID)
}

// ListAll returns every group.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.AccountRecord, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM accounts ORDER BY master_id, account_id`)
}

// Reparent moves a whole group to a new master.
func (r *SQLiteRepository) Reparent(ctx context.Context, fromMaster, toMaster string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET master_id = ? WHERE master_id = ?`, toMaster, fromMaster)
	if err != nil {
		return 0, fmt.Errorf("failed to reparent accounts: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra, nil
}
