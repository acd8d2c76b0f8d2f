package customer

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates a failed login. The same error covers an
// unknown user and a wrong password so callers cannot probe for user ids.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages user signup and credential verification.
type Service struct {
	repo Repository
}

// NewService creates a customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SignupInput captures data required to register a user.
type SignupInput struct {
	UserID     string
	Password   string
	Name       string
	CustomerID string
}

// Signup registers a user and guarantees the backing customer record exists.
func (s *Service) Signup(ctx context.Context, input SignupInput) (User, error) {
	if len(input.UserID) < 3 {
		return User{}, errors.New("user id must be at least 3 characters")
	}
	if len(input.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		UserID:       input.UserID,
		Name:         input.Name,
		CustomerID:   input.CustomerID,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return User{}, err
	}

	if err := s.repo.EnsureCustomer(ctx, Customer{CustomerID: input.CustomerID, Name: input.Name}); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies a user id and password pair.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindUser(ctx, creds.UserID)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}
