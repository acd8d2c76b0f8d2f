package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Direction marks which side of a transfer an entry records.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Entry is one immutable ledger transaction record. Internal transfers always
// produce a matched debit/credit pair sharing the same timestamp.
type Entry struct {
	TransactionID string          `json:"transaction_id"`
	AccountNumber string          `json:"account_number"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	// Counterparty is a display name; CounterpartyAccount carries only the
	// last four digits of the other side's account number.
	Counterparty        string          `json:"counterparty,omitempty"`
	CounterpartyAccount string          `json:"counterparty_account,omitempty"`
	Description         string          `json:"description,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	BalanceAfter        decimal.Decimal `json:"balance_after"`
	CustomerID          string          `json:"-"`
}

// Query filters a recent-first transaction listing.
type Query struct {
	Limit        int
	Direction    Direction
	Counterparty string
}

// DefaultLimit applies when a listing request carries no positive limit.
const DefaultLimit = 3

// Repository appends and reads ledger entries. Entries are never updated or
// deleted once written.
type Repository interface {
	// AppendPair writes the debit and credit entries of one transfer
	// together. A failure leaves the audit trail incomplete but must never
	// trigger a reversal of the balance movement it records.
	AppendPair(ctx context.Context, debit, credit Entry) error
	// ListRecent returns entries for the account, most recent first.
	ListRecent(ctx context.Context, accountNumber string, q Query) ([]Entry, error)
}
