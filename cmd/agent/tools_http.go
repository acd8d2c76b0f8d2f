package main

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/voicebank/voicebank/internal/agent"
	"github.com/voicebank/voicebank/internal/ledger"
)

// roomPayload is the room snapshot the conversation runtime sends with every
// tool invocation.
type roomPayload struct {
	Metadata     string `json:"metadata"`
	Participants []struct {
		Identity string `json:"identity"`
		Metadata string `json:"metadata"`
	} `json:"participants"`
}

func (p roomPayload) toRoom() agent.RoomContext {
	room := agent.RoomContext{Metadata: p.Metadata}
	for _, part := range p.Participants {
		room.Participants = append(room.Participants, agent.Participant{
			Identity: part.Identity,
			Metadata: part.Metadata,
		})
	}
	return room
}

// newToolServer exposes each tool as an HTTP endpoint for the conversation
// runtime. The surface is internal; it binds on the agent's own port and
// returns the same masked payloads the tools produce.
func newToolServer(tools *agent.Tools) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "voicebank-agent"})
	app.Use(recover.New())

	app.Post("/tools/list_accounts", func(c *fiber.Ctx) error {
		var req struct {
			Room roomPayload `json:"room"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		masked, err := tools.ListAccounts(c.UserContext(), req.Room.toRoom())
		if err != nil {
			return toolError(err)
		}
		return c.JSON(masked)
	})

	app.Post("/tools/fetch_balance", func(c *fiber.Ctx) error {
		var req struct {
			Room roomPayload `json:"room"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		report, err := tools.FetchBalance(c.UserContext(), req.Room.toRoom())
		if err != nil {
			return toolError(err)
		}
		return c.JSON(report)
	})

	app.Post("/tools/list_transactions", func(c *fiber.Ctx) error {
		var req struct {
			Room         roomPayload `json:"room"`
			K            int         `json:"k"`
			Direction    string      `json:"direction"`
			Counterparty string      `json:"counterparty"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		report, err := tools.ListRecentTransactions(c.UserContext(), req.Room.toRoom(), agent.TransactionOptions{
			K:            req.K,
			Direction:    ledger.Direction(req.Direction),
			Counterparty: req.Counterparty,
		})
		if err != nil {
			return toolError(err)
		}
		return c.JSON(report)
	})

	app.Post("/tools/initiate_transfer", func(c *fiber.Ctx) error {
		var req struct {
			Room          roomPayload     `json:"room"`
			Amount        decimal.Decimal `json:"amount"`
			PayeeNickname string          `json:"payee_nickname"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		result, err := tools.InitiateTransfer(c.UserContext(), req.Room.toRoom(), req.Amount, req.PayeeNickname)
		if err != nil {
			return toolError(err)
		}
		return c.JSON(result)
	})

	app.Get("/tools/loan_options", func(c *fiber.Ctx) error {
		return c.JSON(tools.ListLoanOptions())
	})

	app.Post("/tools/calculate_emi", func(c *fiber.Ctx) error {
		var req struct {
			Principal         decimal.Decimal `json:"principal"`
			AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
			TenureMonths      int             `json:"tenure_months"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		quote, err := tools.CalculateEMI(req.Principal, req.AnnualRatePercent, req.TenureMonths)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(quote)
	})

	app.Post("/tools/user_name", func(c *fiber.Ctx) error {
		var req struct {
			Room roomPayload `json:"room"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		profile, err := tools.GetUserName(c.UserContext(), req.Room.toRoom())
		if err != nil {
			return toolError(err)
		}
		return c.JSON(profile)
	})

	return app
}

// toolError keeps tool failures generic on the wire; the tools already logged
// the underlying cause.
func toolError(err error) error {
	if errors.Is(err, agent.ErrSessionMissing) || errors.Is(err, agent.ErrNoParticipant) {
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}
	return fiber.NewError(http.StatusBadGateway, err.Error())
}
