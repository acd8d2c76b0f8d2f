package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/ledger"
	"github.com/voicebank/voicebank/internal/logging"
)

func seedAccount(t *testing.T, repo account.Repository, number, customerID, nickname, balance, tpin string) account.Account {
	t.Helper()
	var hash []byte
	if tpin != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(tpin), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash tpin: %v", err)
		}
	}
	acct := account.Account{
		AccountNumber: number,
		Nickname:      nickname,
		Type:          account.TypeSavings,
		Balance:       decimal.RequireFromString(balance),
		CustomerID:    customerID,
		TPINHash:      hash,
	}
	if err := repo.Create(context.Background(), acct); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}

func newCoordinator(accounts account.Repository, entries ledger.Repository) *Coordinator {
	return NewCoordinator(accounts, entries, nil, logging.Discard(), "INR")
}

func TestTransferSuccess(t *testing.T) {
	accounts := account.NewMemoryRepository()
	entries := ledger.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "50.00", "0003")

	svc := newCoordinator(accounts, entries)
	out, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		PayeeName:           "Mariam",
		Amount:              decimal.RequireFromString("1000.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1", Name: "Srinjoy"})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if !out.NewSourceBalance.Equal(decimal.RequireFromString("0.00")) {
		t.Fatalf("expected source balance 0.00, got %s", out.NewSourceBalance)
	}
	if out.SourceLast4 != "2222" || out.PayeeLast4 != "4444" {
		t.Fatalf("unexpected masking: %+v", out)
	}

	debits, err := entries.ListRecent(context.Background(), "11112222", ledger.Query{})
	if err != nil || len(debits) != 1 {
		t.Fatalf("expected one debit entry, got %d (%v)", len(debits), err)
	}
	credits, err := entries.ListRecent(context.Background(), "33334444", ledger.Query{})
	if err != nil || len(credits) != 1 {
		t.Fatalf("expected one credit entry, got %d (%v)", len(credits), err)
	}
	if debits[0].Direction != ledger.DirectionDebit || credits[0].Direction != ledger.DirectionCredit {
		t.Fatalf("entry directions wrong: %s / %s", debits[0].Direction, credits[0].Direction)
	}
	if !debits[0].Amount.Equal(credits[0].Amount) {
		t.Fatalf("entry amounts differ: %s vs %s", debits[0].Amount, credits[0].Amount)
	}
	if !debits[0].CreatedAt.Equal(credits[0].CreatedAt) {
		t.Fatalf("entries must share one timestamp")
	}
	if debits[0].CounterpartyAccount != "4444" || credits[0].CounterpartyAccount != "2222" {
		t.Fatalf("counterparty references must be masked: %+v %+v", debits[0], credits[0])
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	accounts := account.NewMemoryRepository()
	entries := ledger.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "500.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, entries)
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("500.01"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	src, _ := accounts.Get(context.Background(), "11112222")
	if !src.Balance.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("source balance changed: %s", src.Balance)
	}
	if ledger.Count(entries) != 0 {
		t.Fatalf("failed transfer must leave no ledger entries")
	}
}

func TestTransferWrongPIN(t *testing.T) {
	accounts := account.NewMemoryRepository()
	entries := ledger.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, entries)
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("10.00"),
		TPIN:                "9999",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrPINInvalid) {
		t.Fatalf("expected invalid PIN, got %v", err)
	}

	src, _ := accounts.Get(context.Background(), "11112222")
	if !src.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("balance must be unchanged, got %s", src.Balance)
	}
	if ledger.Count(entries) != 0 {
		t.Fatalf("no ledger entries expected")
	}
}

func TestTransferMissingPINHash(t *testing.T) {
	accounts := account.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, ledger.NewMemoryRepository())
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("10.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrPINNotSet) {
		t.Fatalf("expected missing PIN error, got %v", err)
	}
}

func TestTransferSourceNotOwned(t *testing.T) {
	accounts := account.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, ledger.NewMemoryRepository())
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("10.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_2"})
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected source not found for foreign owner, got %v", err)
	}
}

func TestTransferInvalidAmount(t *testing.T) {
	accounts := account.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, ledger.NewMemoryRepository())
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.Zero,
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

// vanishingRepo makes credits to one account report no effect, simulating a
// payee deleted between lookup and credit.
type vanishingRepo struct {
	account.Repository
	gone string
}

func (r vanishingRepo) Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (bool, error) {
	if accountNumber == r.gone {
		return false, nil
	}
	return r.Repository.Credit(ctx, accountNumber, amount)
}

func TestTransferCreditFailedCompensates(t *testing.T) {
	accounts := account.NewMemoryRepository()
	entries := ledger.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "750.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(vanishingRepo{Repository: accounts, gone: "33334444"}, entries)
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("200.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrCreditFailed) {
		t.Fatalf("expected credit failure, got %v", err)
	}

	src, _ := accounts.Get(context.Background(), "11112222")
	if !src.Balance.Equal(decimal.RequireFromString("750.00")) {
		t.Fatalf("compensation must restore source balance, got %s", src.Balance)
	}
	if ledger.Count(entries) != 0 {
		t.Fatalf("compensated transfer must leave no ledger entries")
	}
}

// frozenRepo rejects every credit, so both the payee credit and the
// compensating refund fail.
type frozenRepo struct {
	account.Repository
}

func (r frozenRepo) Credit(context.Context, string, decimal.Decimal) (bool, error) {
	return false, nil
}

func TestTransferCompensationFailureIsLoud(t *testing.T) {
	accounts := account.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "750.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(frozenRepo{Repository: accounts}, ledger.NewMemoryRepository())
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("200.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrCompensationFailed) {
		t.Fatalf("expected compensation failure, got %v", err)
	}
	if !errors.Is(err, ErrCreditFailed) {
		t.Fatalf("compensation failure must still carry the credit failure, got %v", err)
	}
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	accounts := account.NewMemoryRepository()
	entries := ledger.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "100.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, entries)
	req := Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("60.00"),
		TPIN:                "0001",
	}

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(context.Background(), req, Caller{CustomerID: "cust_1"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientFunds):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("only one 60.00 transfer fits in 100.00, got %d successes", succeeded)
	}

	src, _ := accounts.Get(context.Background(), "11112222")
	if src.Balance.IsNegative() {
		t.Fatalf("balance went negative: %s", src.Balance)
	}
	if !src.Balance.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected 40.00 remaining, got %s", src.Balance)
	}
}

func TestLedgerWriteFailureDoesNotReverse(t *testing.T) {
	accounts := account.NewMemoryRepository()
	seedAccount(t, accounts, "11112222", "cust_1", "Salary", "1000.00", "0001")
	seedAccount(t, accounts, "33334444", "cust_2", "Payroll", "0.00", "0003")

	svc := newCoordinator(accounts, failingLedger{})
	_, err := svc.Transfer(context.Background(), Request{
		SourceAccountNumber: "11112222",
		PayeeAccountNumber:  "33334444",
		Amount:              decimal.RequireFromString("100.00"),
		TPIN:                "0001",
	}, Caller{CustomerID: "cust_1"})
	if !errors.Is(err, ErrLedgerWrite) {
		t.Fatalf("expected ledger write failure, got %v", err)
	}

	src, _ := accounts.Get(context.Background(), "11112222")
	payee, _ := accounts.Get(context.Background(), "33334444")
	if !src.Balance.Equal(decimal.RequireFromString("900.00")) || !payee.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("ledger failure must not reverse balances: src=%s payee=%s", src.Balance, payee.Balance)
	}
}

type failingLedger struct{}

func (failingLedger) AppendPair(context.Context, ledger.Entry, ledger.Entry) error {
	return errors.New("ledger unavailable")
}

func (failingLedger) ListRecent(context.Context, string, ledger.Query) ([]ledger.Entry, error) {
	return nil, nil
}
