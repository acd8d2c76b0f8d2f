package customer

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu        sync.RWMutex
	users     map[string]User
	customers map[string]Customer
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:     make(map[string]User),
		customers: make(map[string]Customer),
	}
}

func (r *memoryRepository) CreateUser(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.UserID]; exists {
		return ErrUserExists
	}
	r.users[user.UserID] = user
	return nil
}

func (r *memoryRepository) FindUser(_ context.Context, userID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) EnsureCustomer(_ context.Context, cust Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.customers[cust.CustomerID]; !exists {
		r.customers[cust.CustomerID] = cust
	}
	return nil
}

func (r *memoryRepository) FindCustomer(_ context.Context, customerID string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cust, ok := r.customers[customerID]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return cust, nil
}

func (r *memoryRepository) AddAccountNumber(_ context.Context, customerID, accountNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cust, ok := r.customers[customerID]
	if !ok {
		cust = Customer{CustomerID: customerID}
	}
	for _, existing := range cust.AccountNumbers {
		if existing == accountNumber {
			return nil
		}
	}
	cust.AccountNumbers = append(cust.AccountNumbers, accountNumber)
	sort.Strings(cust.AccountNumbers)
	r.customers[customerID] = cust
	return nil
}
