package customer

import "time"

// User is a login principal tied to exactly one bank customer.
type User struct {
	UserID       string
	Name         string
	CustomerID   string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Customer groups the accounts belonging to one person.
type Customer struct {
	CustomerID     string   `json:"customer_id"`
	Name           string   `json:"name"`
	AccountNumbers []string `json:"account_numbers"`
}

// Credentials carries a signup or login request.
type Credentials struct {
	UserID   string
	Password string
}
