package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/ledger"
	"github.com/voicebank/voicebank/internal/notification"
)

// Request carries the data needed to move funds between accounts. The TPIN is
// ephemeral: it is verified against the stored hash and never persisted or
// logged.
type Request struct {
	SourceAccountNumber string
	PayeeAccountNumber  string
	PayeeName           string
	Amount              decimal.Decimal
	TPIN                string
}

// Outcome reports a completed transfer with both account numbers masked to
// their last four digits.
type Outcome struct {
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	SourceLast4      string          `json:"source_last4"`
	PayeeLast4       string          `json:"payee_last4"`
	SourceNickname   string          `json:"source_nickname,omitempty"`
	PayeeNickname    string          `json:"payee_nickname,omitempty"`
	NewSourceBalance decimal.Decimal `json:"new_source_balance"`
}

// Caller identifies the authenticated owner of the source account.
type Caller struct {
	CustomerID string
	Name       string
}

// Coordinator owns the debit, credit and compensate protocol. It holds no
// state of its own beyond the in-flight request.
type Coordinator struct {
	accounts account.Repository
	entries  ledger.Repository
	notifier notification.Notifier
	logger   *slog.Logger
	currency string
}

// NewCoordinator wires a transfer coordinator.
func NewCoordinator(accounts account.Repository, entries ledger.Repository, notifier notification.Notifier, logger *slog.Logger, currency string) *Coordinator {
	if currency == "" {
		currency = "INR"
	}
	return &Coordinator{accounts: accounts, entries: entries, notifier: notifier, logger: logger, currency: currency}
}

// Transfer debits the caller's source account and credits the payee.
//
// The sufficiency check and the decrement are a single conditional store
// update, so concurrent transfers from the same account can never drive the
// balance negative. There is no cross-document transaction: a credit failure
// after the debit is compensated by refunding the source, and a ledger append
// failure after the balances moved is surfaced as ErrLedgerWrite without ever
// reversing the movement.
func (c *Coordinator) Transfer(ctx context.Context, req Request, caller Caller) (Outcome, error) {
	source, err := c.accounts.GetOwned(ctx, req.SourceAccountNumber, caller.CustomerID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, ErrSourceNotFound
		}
		return Outcome{}, fmt.Errorf("load source account: %w", err)
	}
	if len(source.TPINHash) == 0 {
		return Outcome{}, ErrPINNotSet
	}
	if bcrypt.CompareHashAndPassword(source.TPINHash, []byte(req.TPIN)) != nil {
		return Outcome{}, ErrPINInvalid
	}

	payee, err := c.accounts.Get(ctx, req.PayeeAccountNumber)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Outcome{}, ErrPayeeNotFound
		}
		return Outcome{}, fmt.Errorf("load payee account: %w", err)
	}

	if !req.Amount.IsPositive() {
		return Outcome{}, ErrInvalidAmount
	}

	debited, err := c.accounts.DebitIfSufficient(ctx, source.AccountNumber, caller.CustomerID, req.Amount)
	if err != nil {
		return Outcome{}, err
	}
	if !debited {
		return Outcome{}, ErrInsufficientFunds
	}

	credited, err := c.accounts.Credit(ctx, payee.AccountNumber, req.Amount)
	if err != nil || !credited {
		return Outcome{}, c.compensate(ctx, source.AccountNumber, req.Amount)
	}

	updatedSource, err := c.accounts.GetOwned(ctx, source.AccountNumber, caller.CustomerID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: read back source: %v", ErrLedgerWrite, err)
	}
	updatedPayee, err := c.accounts.Get(ctx, payee.AccountNumber)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: read back payee: %v", ErrLedgerWrite, err)
	}

	payeeName := req.PayeeName
	if payeeName == "" {
		payeeName = "payee"
	}

	now := time.Now().UTC()
	debitEntry := ledger.Entry{
		TransactionID:       uuid.NewString(),
		AccountNumber:       source.AccountNumber,
		Direction:           ledger.DirectionDebit,
		Amount:              req.Amount,
		Counterparty:        req.PayeeName,
		CounterpartyAccount: account.Last4(payee.AccountNumber),
		Description:         fmt.Sprintf("Transfer to %s", payeeName),
		CreatedAt:           now,
		BalanceAfter:        updatedSource.Balance,
		CustomerID:          caller.CustomerID,
	}
	creditEntry := ledger.Entry{
		TransactionID:       uuid.NewString(),
		AccountNumber:       payee.AccountNumber,
		Direction:           ledger.DirectionCredit,
		Amount:              req.Amount,
		Counterparty:        caller.Name,
		CounterpartyAccount: account.Last4(source.AccountNumber),
		Description:         fmt.Sprintf("Transfer from %s", caller.Name),
		CreatedAt:           now,
		BalanceAfter:        updatedPayee.Balance,
		CustomerID:          updatedPayee.CustomerID,
	}

	if err := c.entries.AppendPair(ctx, debitEntry, creditEntry); err != nil {
		c.logger.Error("ledger append failed after balances moved",
			"source_last4", account.Last4(source.AccountNumber),
			"payee_last4", account.Last4(payee.AccountNumber),
			"error", err)
		return Outcome{}, ErrLedgerWrite
	}

	if c.notifier != nil {
		_ = c.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferCompleted,
			Destination: updatedPayee.CustomerID,
			Body:        fmt.Sprintf("You received %s %s on account ending %s", c.currency, req.Amount.StringFixed(2), account.Last4(payee.AccountNumber)),
		})
	}

	return Outcome{
		Status:           "success",
		Amount:           req.Amount,
		Currency:         c.currency,
		SourceLast4:      account.Last4(source.AccountNumber),
		PayeeLast4:       account.Last4(payee.AccountNumber),
		SourceNickname:   source.Nickname,
		PayeeNickname:    payee.Nickname,
		NewSourceBalance: updatedSource.Balance,
	}, nil
}

// compensate refunds a debited amount after a failed credit. It runs exactly
// once; if the refund itself fails the inconsistency is logged loudly and
// surfaced as ErrCompensationFailed for out-of-band reconciliation.
func (c *Coordinator) compensate(ctx context.Context, sourceAccountNumber string, amount decimal.Decimal) error {
	refunded, err := c.accounts.Credit(ctx, sourceAccountNumber, amount)
	if err != nil || !refunded {
		c.logger.Error("compensating refund failed, manual reconciliation required",
			"source_last4", account.Last4(sourceAccountNumber),
			"amount", amount.StringFixed(2),
			"error", err)
		return fmt.Errorf("%w: %w", ErrCompensationFailed, ErrCreditFailed)
	}
	return ErrCreditFailed
}
