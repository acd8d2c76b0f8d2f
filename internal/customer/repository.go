package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrCustomerNotFound indicates no customer matched the lookup.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrUserExists indicates a signup collision on user id.
	ErrUserExists = errors.New("user already exists")
)

// Repository persists users and customers.
type Repository interface {
	CreateUser(ctx context.Context, user User) error
	FindUser(ctx context.Context, userID string) (User, error)
	// EnsureCustomer creates the customer record when absent; an existing
	// record is left untouched.
	EnsureCustomer(ctx context.Context, cust Customer) error
	FindCustomer(ctx context.Context, customerID string) (Customer, error)
	// AddAccountNumber links an account to the customer, ignoring duplicates.
	AddAccountNumber(ctx context.Context, customerID, accountNumber string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateUser inserts a new user.
func (r *PostgresRepository) CreateUser(ctx context.Context, user User) error {
	tag, err := r.db.Exec(ctx, `INSERT INTO users (user_id, name, customer_id, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id) DO NOTHING`,
		user.UserID, user.Name, user.CustomerID, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserExists
	}
	return nil
}

// FindUser fetches a user by id.
func (r *PostgresRepository) FindUser(ctx context.Context, userID string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT user_id, name, customer_id, password_hash, created_at
        FROM users WHERE user_id = $1`, userID)
	var (
		user      User
		createdAt time.Time
	)
	if err := row.Scan(&user.UserID, &user.Name, &user.CustomerID, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

// EnsureCustomer inserts the customer unless it already exists.
func (r *PostgresRepository) EnsureCustomer(ctx context.Context, cust Customer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO customers (customer_id, name) VALUES ($1, $2)
        ON CONFLICT (customer_id) DO NOTHING`, cust.CustomerID, cust.Name)
	return err
}

// FindCustomer fetches a customer and its linked account numbers.
func (r *PostgresRepository) FindCustomer(ctx context.Context, customerID string) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT customer_id, name FROM customers WHERE customer_id = $1`, customerID)
	var cust Customer
	if err := row.Scan(&cust.CustomerID, &cust.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT account_number FROM customer_accounts
        WHERE customer_id = $1 ORDER BY account_number`, customerID)
	if err != nil {
		return Customer{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return Customer{}, err
		}
		cust.AccountNumbers = append(cust.AccountNumbers, number)
	}
	return cust, rows.Err()
}

// AddAccountNumber links an account to a customer, ignoring duplicates.
func (r *PostgresRepository) AddAccountNumber(ctx context.Context, customerID, accountNumber string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO customer_accounts (customer_id, account_number)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`, customerID, accountNumber)
	return err
}
