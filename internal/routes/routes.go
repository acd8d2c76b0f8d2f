package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/voicebank/voicebank/internal/account"
	"github.com/voicebank/voicebank/internal/config"
	"github.com/voicebank/voicebank/internal/customer"
	"github.com/voicebank/voicebank/internal/ledger"
	"github.com/voicebank/voicebank/internal/middleware"
	"github.com/voicebank/voicebank/internal/notification"
	"github.com/voicebank/voicebank/internal/seed"
	"github.com/voicebank/voicebank/internal/session"
	"github.com/voicebank/voicebank/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Backends: Postgres and Redis in real deployments, in-memory for dev.
	var accountRepo account.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
	}

	var entryRepo ledger.Repository
	if d.DB != nil {
		entryRepo = ledger.NewPostgresRepository(d.DB)
	} else {
		entryRepo = ledger.NewMemoryRepository()
	}

	var customerRepo customer.Repository
	if d.DB != nil {
		customerRepo = customer.NewPostgresRepository(d.DB)
	} else {
		customerRepo = customer.NewMemoryRepository()
	}

	var sessions session.Store
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(d.Cfg.SessionTTL)
	}

	if d.DB == nil && d.Cfg.IsDev() {
		if err := seed.Demo(context.Background(), customerRepo, accountRepo, d.Logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	customerSvc := customer.NewService(customerRepo)
	notifier := notification.NewLoggerNotifier(d.Logger)
	transfers := transfer.NewCoordinator(accountRepo, entryRepo, notifier, d.Logger, d.Cfg.Currency)

	app.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(app, customerSvc, sessions, rateLimiter)

	// Protected routes
	authmw := middleware.SessionAuth(sessions, customerRepo)
	protected := app.Group("/me", authmw)
	RegisterLogoutRoute(protected, sessions)
	RegisterAccountRoutes(protected, accountRepo, customerRepo, entryRepo)
	RegisterTransferRoutes(protected, transfers)

	return nil
}
