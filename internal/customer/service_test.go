package customer

import (
	"context"
	"errors"
	"testing"
)

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{
		UserID:     "asha",
		Password:   "long-enough-pass",
		Name:       "Asha Rao",
		CustomerID: "CUST001",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.CustomerID != "CUST001" {
		t.Fatalf("expected customer id CUST001, got %q", user.CustomerID)
	}
	if len(user.PasswordHash) == 0 {
		t.Fatal("expected a password hash")
	}

	got, err := svc.Authenticate(ctx, Credentials{UserID: "asha", Password: "long-enough-pass"})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.Name != "Asha Rao" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{UserID: "ab", Password: "long-enough-pass", Name: "X", CustomerID: "C1"}); err == nil {
		t.Fatal("expected short user id to fail")
	}
	if _, err := svc.Signup(ctx, SignupInput{UserID: "abc", Password: "short", Name: "X", CustomerID: "C1"}); err == nil {
		t.Fatal("expected short password to fail")
	}
}

func TestSignupDuplicateUser(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	input := SignupInput{UserID: "asha", Password: "long-enough-pass", Name: "Asha", CustomerID: "CUST001"}
	if _, err := svc.Signup(ctx, input); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, err := svc.Signup(ctx, input); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticateFailuresLookAlike(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{UserID: "asha", Password: "long-enough-pass", Name: "Asha", CustomerID: "CUST001"}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	_, wrongPass := svc.Authenticate(ctx, Credentials{UserID: "asha", Password: "not-the-password"})
	_, unknownUser := svc.Authenticate(ctx, Credentials{UserID: "nobody", Password: "whatever-pass"})

	if !errors.Is(wrongPass, ErrInvalidCredentials) || !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials, got %v and %v", wrongPass, unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("failure messages must not differ: %q vs %q", wrongPass, unknownUser)
	}
}

func TestAddAccountNumberIgnoresDuplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.EnsureCustomer(ctx, Customer{CustomerID: "CUST001", Name: "Asha"}); err != nil {
		t.Fatalf("ensure customer failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.AddAccountNumber(ctx, "CUST001", "1001002003"); err != nil {
			t.Fatalf("add account number failed: %v", err)
		}
	}

	cust, err := repo.FindCustomer(ctx, "CUST001")
	if err != nil {
		t.Fatalf("find customer failed: %v", err)
	}
	if len(cust.AccountNumbers) != 1 {
		t.Fatalf("expected 1 linked account, got %d", len(cust.AccountNumbers))
	}
}
