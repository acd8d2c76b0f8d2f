package account

import (
	"github.com/shopspring/decimal"
)

// Type classifies an account for display purposes.
type Type string

const (
	TypeSalary  Type = "Salary"
	TypeSavings Type = "Savings"
	TypeCurrent Type = "Current"
)

// ValidType reports whether t is one of the known account categories.
func ValidType(t Type) bool {
	switch t {
	case TypeSalary, TypeSavings, TypeCurrent:
		return true
	default:
		return false
	}
}

// Account is a customer bank account. The full account number never leaves the
// API layer unmasked; the transaction PIN is stored only as a bcrypt hash.
type Account struct {
	AccountNumber string
	Nickname      string
	Type          Type
	Balance       decimal.Decimal
	CustomerID    string
	TPINHash      []byte
}

// Masked is the only account representation that may cross back into the
// conversation: last-4 digits, nickname and category.
type Masked struct {
	ID       string `json:"id"`
	Last4    string `json:"last4"`
	Nickname string `json:"nickname"`
	Type     Type   `json:"type"`
}

// Mask derives the conversation-safe view of the account. The ID field keeps
// the full number so the frontend can reference the account in selections; it
// is never spoken.
func (a Account) Mask() Masked {
	return Masked{
		ID:       a.AccountNumber,
		Last4:    Last4(a.AccountNumber),
		Nickname: a.Nickname,
		Type:     a.Type,
	}
}

// Last4 returns the final four characters of an account number, or the whole
// value when it is already that short.
func Last4(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return accountNumber[len(accountNumber)-4:]
}
