// Package agent holds the tool orchestration layer the conversational agent
// invokes. Tools resolve the caller's session, gather sensitive input through
// the out-of-band broker, call the banking API, and mask everything before it
// crosses back into the conversation.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/bankapi"
	"github.com/voicebank/voicebank/internal/broker"
	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/ledger"
	"github.com/voicebank/voicebank/internal/loan"
	"github.com/voicebank/voicebank/internal/transfer"
)

// BankAPI is the slice of the banking API surface the tools consume.
type BankAPI interface {
	ListAccounts(ctx context.Context, sessionID string) ([]bankapi.Account, error)
	GetAccount(ctx context.Context, sessionID, accountNumber string) (bankapi.Account, error)
	ListTransactions(ctx context.Context, sessionID, accountNumber string, q bankapi.TransactionQuery) ([]ledger.Entry, error)
	Transfer(ctx context.Context, sessionID string, req bankapi.TransferRequest) (transfer.Outcome, error)
	Customer(ctx context.Context, sessionID string) (customer.Customer, error)
}

// Asker is the broker's ask surface.
type Asker interface {
	Ask(ctx context.Context, endpoint string, req broker.Request) (broker.Answer, error)
}

// Tools composes the broker and the banking API into the flows the
// conversational agent calls.
type Tools struct {
	api             BankAPI
	asker           Asker
	fallbackSession string
	currency        string
	logger          *slog.Logger
}

// NewTools wires the tool orchestrator.
func NewTools(api BankAPI, asker Asker, fallbackSession, currency string, logger *slog.Logger) *Tools {
	if currency == "" {
		currency = "INR"
	}
	return &Tools{api: api, asker: asker, fallbackSession: fallbackSession, currency: currency, logger: logger}
}

// ListAccounts returns the caller's accounts in masked form.
func (t *Tools) ListAccounts(ctx context.Context, room RoomContext) ([]account.Masked, error) {
	sessionID, err := ResolveSessionID(room, t.fallbackSession)
	if err != nil {
		return nil, err
	}
	accounts, err := t.api.ListAccounts(ctx, sessionID)
	if err != nil {
		t.logger.Error("list accounts failed", "error", err)
		return nil, fmt.Errorf("unable to load accounts right now")
	}

	masked := make([]account.Masked, 0, len(accounts))
	for _, acct := range accounts {
		masked = append(masked, acct.Mask())
	}
	return masked, nil
}

// BalanceReport is the masked balance answer spoken back to the user.
type BalanceReport struct {
	Nickname string          `json:"nickname"`
	Type     account.Type    `json:"type"`
	Last4    string          `json:"last4"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// FetchBalance asks the user to choose one of their accounts out of band and
// reports its balance. The conversational turn must not be interrupted while
// the selection is pending.
func (t *Tools) FetchBalance(ctx context.Context, room RoomContext) (BalanceReport, error) {
	sessionID, err := ResolveSessionID(room, t.fallbackSession)
	if err != nil {
		return BalanceReport{}, err
	}
	user, err := room.UserParticipant()
	if err != nil {
		return BalanceReport{}, err
	}

	masked, err := t.maskedAccounts(ctx, sessionID)
	if err != nil {
		return BalanceReport{}, err
	}

	ans, err := t.asker.Ask(ctx, user.Identity, broker.Request{
		Kind:     broker.KindChooseAccount,
		Accounts: masked,
	})
	if err != nil {
		return BalanceReport{}, err
	}

	acct, err := t.api.GetAccount(ctx, sessionID, ans.AccountID)
	if err != nil {
		t.logger.Error("fetch balance detail failed", "error", err)
		return BalanceReport{}, fmt.Errorf("unable to fetch that account right now")
	}
	return BalanceReport{
		Nickname: acct.Nickname,
		Type:     acct.Type,
		Last4:    account.Last4(acct.AccountNumber),
		Balance:  acct.Balance,
		Currency: t.currency,
	}, nil
}

// TransactionOptions filters a transaction listing; a non-positive K falls
// back to the API default of 3.
type TransactionOptions struct {
	K            int
	Direction    ledger.Direction
	Counterparty string
}

// TransactionView is one masked ledger entry; the owning account appears only
// as last-4 in the surrounding report.
type TransactionView struct {
	Direction           ledger.Direction `json:"direction"`
	Amount              decimal.Decimal  `json:"amount"`
	Counterparty        string           `json:"counterparty,omitempty"`
	CounterpartyAccount string           `json:"counterparty_account,omitempty"`
	Description         string           `json:"description,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	BalanceAfter        decimal.Decimal  `json:"balance_after"`
}

// TransactionsReport is the masked answer for a transaction review.
type TransactionsReport struct {
	AccountLast4 string            `json:"account_last4"`
	Count        int               `json:"count"`
	Transactions []TransactionView `json:"transactions"`
}

// ListRecentTransactions asks the user to pick an account and reports its
// recent entries, most recent first.
func (t *Tools) ListRecentTransactions(ctx context.Context, room RoomContext, opts TransactionOptions) (TransactionsReport, error) {
	sessionID, err := ResolveSessionID(room, t.fallbackSession)
	if err != nil {
		return TransactionsReport{}, err
	}
	user, err := room.UserParticipant()
	if err != nil {
		return TransactionsReport{}, err
	}

	masked, err := t.maskedAccounts(ctx, sessionID)
	if err != nil {
		return TransactionsReport{}, err
	}

	ans, err := t.asker.Ask(ctx, user.Identity, broker.Request{
		Kind:     broker.KindChooseAccount,
		Prompt:   "Choose account to review transactions",
		Accounts: masked,
	})
	if err != nil {
		return TransactionsReport{}, err
	}

	entries, err := t.api.ListTransactions(ctx, sessionID, ans.AccountID, bankapi.TransactionQuery{
		Limit:        opts.K,
		Direction:    opts.Direction,
		Counterparty: opts.Counterparty,
	})
	if err != nil {
		t.logger.Error("list transactions failed", "error", err)
		return TransactionsReport{}, fmt.Errorf("unable to fetch transactions right now")
	}

	views := make([]TransactionView, 0, len(entries))
	for _, e := range entries {
		views = append(views, TransactionView{
			Direction:           e.Direction,
			Amount:              e.Amount,
			Counterparty:        e.Counterparty,
			CounterpartyAccount: e.CounterpartyAccount,
			Description:         e.Description,
			CreatedAt:           e.CreatedAt,
			BalanceAfter:        e.BalanceAfter,
		})
	}
	return TransactionsReport{
		AccountLast4: account.Last4(ans.AccountID),
		Count:        len(views),
		Transactions: views,
	}, nil
}

// ListLoanOptions returns the indicative loan catalogue.
func (t *Tools) ListLoanOptions() []loan.Product {
	return loan.Products()
}

// CalculateEMI quotes a loan repayment schedule.
func (t *Tools) CalculateEMI(principal, annualRatePercent decimal.Decimal, tenureMonths int) (loan.Quote, error) {
	return loan.EMI(principal, annualRatePercent, tenureMonths)
}

// UserProfile is the masked profile slice the conversation may use.
type UserProfile struct {
	Name       string `json:"name"`
	CustomerID string `json:"customer_id"`
}

// GetUserName fetches the signed-in user's name via the current session.
func (t *Tools) GetUserName(ctx context.Context, room RoomContext) (UserProfile, error) {
	sessionID, err := ResolveSessionID(room, t.fallbackSession)
	if err != nil {
		return UserProfile{}, err
	}
	cust, err := t.api.Customer(ctx, sessionID)
	if err != nil {
		t.logger.Error("fetch profile failed", "error", err)
		return UserProfile{}, fmt.Errorf("unable to fetch your profile right now")
	}
	return UserProfile{Name: cust.Name, CustomerID: cust.CustomerID}, nil
}

func (t *Tools) maskedAccounts(ctx context.Context, sessionID string) ([]account.Masked, error) {
	accounts, err := t.api.ListAccounts(ctx, sessionID)
	if err != nil {
		t.logger.Error("list accounts failed", "error", err)
		return nil, fmt.Errorf("unable to load accounts right now")
	}
	masked := make([]account.Masked, 0, len(accounts))
	for _, acct := range accounts {
		masked = append(masked, acct.Mask())
	}
	return masked, nil
}
