// Package seed loads demo users and accounts into the in-memory backends so a
// dev instance is usable immediately after boot.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/customer"
)

const (
	demoPassword = "demo-pass-123"
	demoTPIN     = "1234"
)

type seedAccount struct {
	number   string
	nickname string
	kind     account.Type
	balance  string
}

type seedUser struct {
	userID     string
	name       string
	customerID string
	accounts   []seedAccount
}

var demoUsers = []seedUser{
	{
		userID:     "asha",
		name:       "Asha Rao",
		customerID: "CUST001",
		accounts: []seedAccount{
			{number: "1001002003", nickname: "salary", kind: account.TypeSalary, balance: "52340.75"},
			{number: "1001002011", nickname: "rainy day", kind: account.TypeSavings, balance: "120000.00"},
		},
	},
	{
		userID:     "ravi",
		name:       "Ravi Kumar",
		customerID: "CUST002",
		accounts: []seedAccount{
			{number: "2002003004", nickname: "current", kind: account.TypeCurrent, balance: "8750.00"},
		},
	},
}

// Demo inserts the demo customers and their accounts. All demo accounts share
// the same password and TPIN; this data never ships outside dev.
func Demo(ctx context.Context, customers customer.Repository, accounts account.Repository, logger *slog.Logger) error {
	// MinCost keeps dev boot fast; real signups hash at DefaultCost.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	tpinHash, err := bcrypt.GenerateFromPassword([]byte(demoTPIN), bcrypt.MinCost)
	if err != nil {
		return err
	}

	for _, u := range demoUsers {
		if err := customers.CreateUser(ctx, customer.User{
			UserID:       u.userID,
			Name:         u.name,
			CustomerID:   u.customerID,
			PasswordHash: passwordHash,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.userID, err)
		}
		if err := customers.EnsureCustomer(ctx, customer.Customer{CustomerID: u.customerID, Name: u.name}); err != nil {
			return fmt.Errorf("seed customer %s: %w", u.customerID, err)
		}

		for _, a := range u.accounts {
			if err := accounts.Create(ctx, account.Account{
				AccountNumber: a.number,
				Nickname:      a.nickname,
				Type:          a.kind,
				Balance:       decimal.RequireFromString(a.balance),
				CustomerID:    u.customerID,
				TPINHash:      tpinHash,
			}); err != nil {
				return fmt.Errorf("seed account for %s: %w", u.customerID, err)
			}
			if err := customers.AddAccountNumber(ctx, u.customerID, a.number); err != nil {
				return fmt.Errorf("link seed account for %s: %w", u.customerID, err)
			}
		}
		logger.Info("seeded demo user", "user_id", u.userID, "accounts", len(u.accounts))
	}
	return nil
}
