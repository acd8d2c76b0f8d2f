package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates no account matched the lookup (including ownership
// scoped lookups where the account exists but belongs to someone else).
var ErrNotFound = errors.New("account not found")

// Repository persists accounts. Balance mutation happens only through
// DebitIfSufficient and Credit so the sufficiency check and the decrement are
// a single indivisible store operation.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	// Get loads an account by number alone; payees may belong to any customer.
	Get(ctx context.Context, accountNumber string) (Account, error)
	// GetOwned loads an account scoped by both number and owning customer.
	GetOwned(ctx context.Context, accountNumber, customerID string) (Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Account, error)
	// DebitIfSufficient decrements the balance by amount only when the account
	// is owned by customerID and the balance covers the amount. It reports
	// false, nil when the precondition did not hold and nothing changed.
	DebitIfSufficient(ctx context.Context, accountNumber, customerID string, amount decimal.Decimal) (bool, error)
	// Credit unconditionally increments the balance. It reports false, nil
	// when the account no longer exists.
	Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (bool, error)
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `account_number, nickname, account_type, balance, customer_id, tpin_hash`

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (account_number, nickname, account_type, balance, customer_id, tpin_hash)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		acct.AccountNumber, acct.Nickname, string(acct.Type), acct.Balance, acct.CustomerID, acct.TPINHash)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Get fetches an account by number regardless of owner.
func (r *PostgresRepository) Get(ctx context.Context, accountNumber string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
	return scanAccount(row)
}

// GetOwned fetches an account scoped to its owning customer.
func (r *PostgresRepository) GetOwned(ctx context.Context, accountNumber, customerID string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE account_number = $1 AND customer_id = $2`, accountNumber, customerID)
	return scanAccount(row)
}

// ListByCustomer returns every account owned by the customer.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE customer_id = $1 ORDER BY account_number`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// DebitIfSufficient applies the balance guard and decrement as one statement.
// Zero rows affected means the precondition failed and nothing was written.
func (r *PostgresRepository) DebitIfSufficient(ctx context.Context, accountNumber, customerID string, amount decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET balance = balance - $1
        WHERE account_number = $2 AND customer_id = $3 AND balance >= $1`,
		amount, accountNumber, customerID)
	if err != nil {
		return false, fmt.Errorf("debit account: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Credit increments the balance without preconditions.
func (r *PostgresRepository) Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET balance = balance + $1
        WHERE account_number = $2`, amount, accountNumber)
	if err != nil {
		return false, fmt.Errorf("credit account: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		acct     Account
		acctType string
	)
	if err := row.Scan(&acct.AccountNumber, &acct.Nickname, &acctType, &acct.Balance, &acct.CustomerID, &acct.TPINHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.Type = Type(acctType)
	return acct, nil
}
