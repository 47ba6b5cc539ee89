package postgres

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository"
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Enroll(ctx context.Context, tpl *domain.BiometricTemplate) error {
	const query = `INSERT INTO templates (account_id, vector, enrolled_at)
	VALUES ($1, $2, now())
	ON CONFLICT (account_id) DO UPDATE SET vector = EXCLUDED.vector, enrolled_at = EXCLUDED.enrolled_at`

	if _, err := r.db.ExecContext(ctx, query, tpl.AccountID, tpl.Vector); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *TemplateRepository) Lookup(ctx context.Context, accountID string) (*domain.BiometricTemplate, error) {
	const query = `SELECT account_id, vector, enrolled_at FROM templates WHERE account_id = $1`

	var tpl domain.BiometricTemplate
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&tpl.AccountID, &tpl.Vector, &tpl.EnrolledAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: template for account %s", repository.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return &tpl, nil
}

func (r *TemplateRepository) All(ctx context.Context) ([]*domain.BiometricTemplate, error) {
	const query = `SELECT account_id, vector, enrolled_at FROM templates ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer rows.Close()

	var templates []*domain.BiometricTemplate
	for rows.Next() {
		var tpl domain.BiometricTemplate
		if err := rows.Scan(&tpl.AccountID, &tpl.Vector, &tpl.EnrolledAt); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		templates = append(templates, &tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return templates, nil
}

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	const query = `INSERT INTO accounts (id, name, balance, status, created_at)
	VALUES ($1, $2, $3, $4, now())`

	_, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.Balance, account.Status)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT id, name, balance, status, created_at FROM accounts WHERE id = $1`

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return &account, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	const query = `UPDATE accounts SET status = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: account %s", repository.ErrNotFound, id)
	}
	return nil
}

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append writes the entry and the account's new balance in one database
// transaction, so the caller only sees success once both are durable.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry, balance decimal.Decimal) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const insertEntry = `INSERT INTO ledger_entries (id, account_id, kind, amount, balance, status, sequence, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = dbTx.ExecContext(ctx, insertEntry,
		entry.ID, entry.AccountID, entry.Kind, entry.Amount, entry.Balance, entry.Status, entry.Sequence, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}

	const updateBalance = `UPDATE accounts SET balance = $2 WHERE id = $1`

	_, err = dbTx.ExecContext(ctx, updateBalance, entry.AccountID, balance)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *LedgerRepository) NextSequence(ctx context.Context, accountID string) (uint64, error) {
	const query = `SELECT coalesce(max(sequence), 0) + 1 FROM ledger_entries WHERE account_id = $1`

	var seq uint64
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return seq, nil
}

func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	const query = `SELECT id, account_id, kind, amount, balance, status, sequence, created_at
	FROM ledger_entries WHERE account_id = $1 ORDER BY sequence`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Kind,
			&entry.Amount,
			&entry.Balance,
			&entry.Status,
			&entry.Sequence,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: ledger for account %s", repository.ErrNotFound, accountID)
	}
	return entries, nil
}

var (
	_ repository.TemplateRepository = (*TemplateRepository)(nil)
	_ repository.AccountRepository  = (*AccountRepository)(nil)
	_ repository.LedgerRepository   = (*LedgerRepository)(nil)
)
