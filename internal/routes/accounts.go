package routes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/ledger"
)

// RegisterAccountRoutes wires the authenticated customer and account surface.
// Responses on this surface carry full account numbers; only the agent-facing
// conversation layer masks them.
func RegisterAccountRoutes(r fiber.Router, accounts account.Repository, customers customer.Repository, entries ledger.Repository) {
	r.Get("/customer", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		cust, err := customers.FindCustomer(c.UserContext(), customerID)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "customer not found")
		}
		return c.JSON(cust)
	})

	r.Get("/accounts", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		owned, err := accounts.ListByCustomer(c.UserContext(), customerID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not list accounts")
		}
		out := make([]fiber.Map, 0, len(owned))
		for _, acct := range owned {
			out = append(out, accountJSON(acct))
		}
		return c.JSON(out)
	})

	r.Post("/accounts", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		var req struct {
			Nickname       string          `json:"nickname"`
			Type           account.Type    `json:"account_type"`
			TPIN           string          `json:"tpin"`
			InitialBalance decimal.Decimal `json:"initial_balance"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		if !account.ValidType(req.Type) {
			return fiber.NewError(http.StatusBadRequest, "account_type must be Salary, Savings or Current")
		}
		if !validTPIN(req.TPIN) {
			return fiber.NewError(http.StatusBadRequest, "tpin must be exactly 4 digits")
		}
		if req.InitialBalance.IsNegative() {
			return fiber.NewError(http.StatusBadRequest, "initial_balance must not be negative")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.TPIN), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not create account")
		}
		acct := account.Account{
			AccountNumber: newAccountNumber(),
			Nickname:      strings.TrimSpace(req.Nickname),
			Type:          req.Type,
			Balance:       req.InitialBalance,
			CustomerID:    customerID,
			TPINHash:      hash,
		}
		if err := accounts.Create(c.UserContext(), acct); err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not create account")
		}
		if err := customers.AddAccountNumber(c.UserContext(), customerID, acct.AccountNumber); err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not link account")
		}

		return c.Status(http.StatusCreated).JSON(accountJSON(acct))
	})

	r.Get("/accounts/:number", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		acct, err := accounts.GetOwned(c.UserContext(), c.Params("number"), customerID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "account not found")
			}
			return fiber.NewError(http.StatusInternalServerError, "could not load account")
		}
		return c.JSON(accountJSON(acct))
	})

	r.Get("/accounts/:number/transactions", func(c *fiber.Ctx) error {
		customerID, _ := c.Locals("customer_id").(string)
		acct, err := accounts.GetOwned(c.UserContext(), c.Params("number"), customerID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "account not found")
			}
			return fiber.NewError(http.StatusInternalServerError, "could not load account")
		}

		q := ledger.Query{Counterparty: c.Query("counterparty")}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				return fiber.NewError(http.StatusBadRequest, "limit must be a positive integer")
			}
			q.Limit = limit
		}
		switch dir := ledger.Direction(c.Query("direction")); dir {
		case "", ledger.DirectionCredit, ledger.DirectionDebit:
			q.Direction = dir
		default:
			return fiber.NewError(http.StatusBadRequest, "direction must be credit or debit")
		}

		list, err := entries.ListRecent(c.UserContext(), acct.AccountNumber, q)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not list transactions")
		}
		return c.JSON(list)
	})
}

func accountJSON(a account.Account) fiber.Map {
	return fiber.Map{
		"account_number": a.AccountNumber,
		"nickname":       a.Nickname,
		"account_type":   a.Type,
		"balance":        a.Balance,
		"customer_id":    a.CustomerID,
	}
}

func validTPIN(tpin string) bool {
	if len(tpin) != 4 {
		return false
	}
	for _, r := range tpin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// newAccountNumber draws a random 10-digit account number. Uniqueness is
// enforced by the store's primary key, not here.
func newAccountNumber() string {
	max := big.NewInt(9_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(fmt.Sprintf("account number entropy: %v", err))
	}
	return strconv.FormatInt(n.Int64()+1_000_000_000, 10)
}
