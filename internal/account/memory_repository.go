package account

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Account
}

// NewMemoryRepository constructs an in-memory repository for tests and dev
// mode. The mutex makes the guard-and-decrement indivisible, mirroring the
// conditional UPDATE of the Postgres implementation.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[acct.AccountNumber]; exists {
		return errors.New("account exists")
	}
	r.storage[acct.AccountNumber] = acct
	return nil
}

func (r *memoryRepository) Get(_ context.Context, accountNumber string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.storage[accountNumber]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) GetOwned(_ context.Context, accountNumber, customerID string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.storage[accountNumber]
	if !ok || acct.CustomerID != customerID {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) ListByCustomer(_ context.Context, customerID string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var accounts []Account
	for _, acct := range r.storage {
		if acct.CustomerID == customerID {
			accounts = append(accounts, acct)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})
	return accounts, nil
}

func (r *memoryRepository) DebitIfSufficient(_ context.Context, accountNumber, customerID string, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.storage[accountNumber]
	if !ok || acct.CustomerID != customerID || acct.Balance.LessThan(amount) {
		return false, nil
	}
	acct.Balance = acct.Balance.Sub(amount)
	r.storage[accountNumber] = acct
	return true, nil
}

func (r *memoryRepository) Credit(_ context.Context, accountNumber string, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.storage[accountNumber]
	if !ok {
		return false, nil
	}
	acct.Balance = acct.Balance.Add(amount)
	r.storage[accountNumber] = acct
	return true, nil
}
