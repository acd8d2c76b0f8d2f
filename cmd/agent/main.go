package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voicebank/voicebank/internal/agent"
	"github.com/voicebank/voicebank/internal/bankapi"
	"github.com/voicebank/voicebank/internal/broker"
	"github.com/voicebank/voicebank/internal/config"
	"github.com/voicebank/voicebank/internal/infra"
	"github.com/voicebank/voicebank/internal/logging"
)

// The agent process hosts the conversational tools: it talks to the banking
// API over HTTP and to the frontend over the Redis ask channels.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RedisURL == "" {
		logger.Error("REDIS_URL is required; the agent cannot ask without a transport")
		os.Exit(1)
	}
	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	transport := broker.NewRedisTransport(cache, logger)
	asks := broker.New(transport, cfg.AskTimeout)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- transport.Run(ctx, asks)
	}()

	api := bankapi.New(cfg.BankAPIBaseURL)
	tools := agent.NewTools(api, asks, cfg.FallbackSessionID, cfg.Currency, logger)
	srv := newToolServer(tools)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen(":" + cfg.AgentPort)
	}()

	logger.Info("agent ready",
		"bank_api", cfg.BankAPIBaseURL,
		"port", cfg.AgentPort,
		"ask_timeout", cfg.AskTimeout.String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	case err := <-runErrCh:
		if err != nil {
			logger.Error("ask transport stopped", "error", err)
			os.Exit(1)
		}
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("tool server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancelShutdown()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("tool server shutdown", "error", err)
	}

	logger.Info("agent exited cleanly")
}
