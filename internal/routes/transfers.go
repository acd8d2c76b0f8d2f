package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/voicebank/voicebank/internal/transfer"
)

// RegisterTransferRoutes wires the funds-transfer endpoint. Error responses
// never echo the TPIN or full account numbers back to the caller.
func RegisterTransferRoutes(r fiber.Router, transfers *transfer.Coordinator) {
	r.Post("/transfers", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		callerName, _ := c.Locals("user_name").(string)

		var req struct {
			SourceAccountNumber string          `json:"source_account_number"`
			PayeeAccountNumber  string          `json:"payee_account_number"`
			PayeeName           string          `json:"payee_name"`
			Amount              decimal.Decimal `json:"amount"`
			TPIN                string          `json:"tpin"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		outcome, err := transfers.Transfer(c.UserContext(), transfer.Request{
			SourceAccountNumber: req.SourceAccountNumber,
			PayeeAccountNumber:  req.PayeeAccountNumber,
			PayeeName:           req.PayeeName,
			Amount:              req.Amount,
			TPIN:                req.TPIN,
		}, transfer.Caller{CustomerID: customerID, Name: callerName})
		if err != nil {
			return transferError(err)
		}
		return c.Status(http.StatusOK).JSON(outcome)
	})
}

// transferError maps coordinator sentinels onto HTTP statuses.
func transferError(err error) error {
	switch {
	case errors.Is(err, transfer.ErrSourceNotFound):
		return fiber.NewError(http.StatusNotFound, "source account not found")
	case errors.Is(err, transfer.ErrPayeeNotFound):
		return fiber.NewError(http.StatusNotFound, "payee account not found")
	case errors.Is(err, transfer.ErrPINInvalid):
		return fiber.NewError(http.StatusUnauthorized, "incorrect transaction pin")
	case errors.Is(err, transfer.ErrPINNotSet):
		return fiber.NewError(http.StatusBadRequest, "no transaction pin set for this account")
	case errors.Is(err, transfer.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, transfer.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, transfer.ErrCompensationFailed):
		return fiber.NewError(http.StatusInternalServerError, "transfer failed; contact support")
	case errors.Is(err, transfer.ErrCreditFailed):
		return fiber.NewError(http.StatusInternalServerError, "transfer failed and was reversed")
	case errors.Is(err, transfer.ErrLedgerWrite):
		return fiber.NewError(http.StatusInternalServerError, "transfer completed but could not be recorded")
	default:
		return fiber.NewError(http.StatusInternalServerError, "transfer failed")
	}
}
