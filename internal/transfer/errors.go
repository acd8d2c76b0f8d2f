package transfer

import "errors"

var (
	// ErrSourceNotFound indicates the source account does not exist or is not
	// owned by the caller.
	ErrSourceNotFound = errors.New("source account not found")

	// ErrPINNotSet indicates the source account carries no transaction PIN
	// hash and therefore cannot authorize transfers.
	ErrPINNotSet = errors.New("source account has no transaction PIN")

	// ErrPINInvalid indicates the supplied PIN failed hash verification.
	ErrPINInvalid = errors.New("invalid transaction PIN")

	// ErrPayeeNotFound indicates the payee account does not exist.
	ErrPayeeNotFound = errors.New("payee account not found")

	// ErrInvalidAmount indicates a non-positive transfer amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds indicates the conditional debit found the balance
	// short of the amount; nothing was written.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCreditFailed indicates the payee vanished between lookup and credit;
	// the debit was compensated.
	ErrCreditFailed = errors.New("failed to credit payee")

	// ErrCompensationFailed indicates the refund after a failed credit also
	// failed. Balances are inconsistent and need manual reconciliation.
	ErrCompensationFailed = errors.New("compensating refund failed")

	// ErrLedgerWrite indicates balances moved but the audit trail is
	// incomplete. Callers must not treat this as "nothing happened".
	ErrLedgerWrite = errors.New("transfer recorded but ledger write failed")
)
