package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/session"
)

const sessionHeader = "X-Session-Id"

// SessionAuth validates the X-Session-Id header against the session store and
// loads the owning user. Rejections never say whether the session was missing,
// expired, or deactivated.
func SessionAuth(store session.Store, users customer.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := strings.TrimSpace(c.Get(sessionHeader))
		if sessionID == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing session")
		}

		sess, err := store.Validate(c.UserContext(), sessionID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired session")
		}

		user, err := users.FindUser(c.UserContext(), sess.UserID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired session")
		}

		c.Locals("session_id", sess.SessionID)
		c.Locals("user_id", user.UserID)
		c.Locals("customer_id", user.CustomerID)
		c.Locals("user_name", user.Name)
		return c.Next()
	}
}
