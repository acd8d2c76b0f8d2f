package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists ledger entries in PostgreSQL, indexed by
// (account_number, created_at DESC) for recent-first reads.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a Postgres-backed ledger repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertEntry = `INSERT INTO transactions
    (transaction_id, account_number, direction, amount, counterparty, counterparty_account, description, created_at, balance_after, customer_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// AppendPair inserts both entries of a transfer in one transaction so the
// audit trail never carries half a transfer.
func (r *PostgresRepository) AppendPair(ctx context.Context, debit, credit Entry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin ledger append: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, e := range []Entry{debit, credit} {
		if _, err := tx.Exec(ctx, insertEntry,
			e.TransactionID, e.AccountNumber, string(e.Direction), e.Amount,
			e.Counterparty, e.CounterpartyAccount, e.Description,
			e.CreatedAt.UTC(), e.BalanceAfter, e.CustomerID); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListRecent reads entries newest-first with optional direction and
// counterparty filters.
func (r *PostgresRepository) ListRecent(ctx context.Context, accountNumber string, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT transaction_id, account_number, direction, amount, counterparty, counterparty_account, description, created_at, balance_after, customer_id
        FROM transactions WHERE account_number = $1`
	args := []any{accountNumber}

	if q.Direction != "" {
		args = append(args, string(q.Direction))
		query += fmt.Sprintf(" AND direction = $%d", len(args))
	}
	if q.Counterparty != "" {
		args = append(args, q.Counterparty)
		query += fmt.Sprintf(" AND counterparty = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			direction string
		)
		if err := rows.Scan(&e.TransactionID, &e.AccountNumber, &direction, &e.Amount,
			&e.Counterparty, &e.CounterpartyAccount, &e.Description,
			&e.CreatedAt, &e.BalanceAfter, &e.CustomerID); err != nil {
			return nil, err
		}
		e.Direction = Direction(direction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
