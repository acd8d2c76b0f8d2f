package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/session"
)

// RegisterAuthRoutes wires signup and login. Login failures stay generic so
// the endpoints cannot be used to probe for user ids.
func RegisterAuthRoutes(r fiber.Router, customers *customer.Service, sessions session.Store, rateLimiter fiber.Handler) {
	r.Post("/signup", func(c *fiber.Ctx) error {
		var req struct {
			UserID     string `json:"user_id"`
			Password   string `json:"password"`
			Name       string `json:"name"`
			CustomerID string `json:"customer_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Name) == "" {
			return fiber.NewError(http.StatusBadRequest, "name is required")
		}
		if req.CustomerID == "" {
			req.CustomerID = "CUST-" + uuid.NewString()
		}

		user, err := customers.Signup(c.UserContext(), customer.SignupInput{
			UserID:     strings.TrimSpace(req.UserID),
			Password:   req.Password,
			Name:       strings.TrimSpace(req.Name),
			CustomerID: req.CustomerID,
		})
		if err != nil {
			if errors.Is(err, customer.ErrUserExists) {
				return fiber.NewError(http.StatusConflict, "user already exists")
			}
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":     user.UserID,
			"customer_id": user.CustomerID,
			"name":        user.Name,
			"created_at":  user.CreatedAt,
		})
	})

	login := func(c *fiber.Ctx) error {
		var req struct {
			UserID   string `json:"user_id"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}

		user, err := customers.Authenticate(c.UserContext(), customer.Credentials{
			UserID:   strings.TrimSpace(req.UserID),
			Password: req.Password,
		})
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}

		sess, err := sessions.Create(c.UserContext(), user.UserID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not create session")
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"session_id": sess.SessionID,
			"user_id":    sess.UserID,
			"expires_at": sess.ExpiresAt,
		})
	}
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, login)
	} else {
		r.Post("/login", login)
	}
}

// RegisterLogoutRoute deactivates the caller's own session.
func RegisterLogoutRoute(r fiber.Router, sessions session.Store) {
	r.Post("/logout", func(c *fiber.Ctx) error {
		sessionID, _ := c.Locals("session_id").(string)
		if sessionID == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		if err := sessions.Invalidate(c.UserContext(), sessionID); err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not end session")
		}
		return c.SendStatus(http.StatusNoContent)
	})
}
