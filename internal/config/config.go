package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "VoiceBank"
	defaultAppEnv        = "development"
	defaultPort          = "8000"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultSessionTTL    = 24 * time.Hour
	defaultAskTimeout    = 60 * time.Second
	defaultBankAPIURL    = "http://localhost:8000"
	defaultAgentPort     = "8100"
	defaultCurrency      = "INR"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// SessionTTL bounds how long an issued session id stays valid.
	SessionTTL time.Duration

	// AskTimeout bounds every out-of-band broker round trip to the frontend.
	AskTimeout time.Duration

	// BankAPIBaseURL is where the agent-side tools reach the banking API.
	BankAPIBaseURL string

	// AgentPort is where the agent process exposes its tool endpoints to the
	// conversation runtime.
	AgentPort string

	// FallbackSessionID is consulted last during session resolution; it exists
	// for local and offline testing only.
	FallbackSessionID string

	Currency string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		SessionTTL:        defaultSessionTTL,
		AskTimeout:        defaultAskTimeout,
		BankAPIBaseURL:    getEnv("BANK_API_BASE_URL", defaultBankAPIURL),
		AgentPort:         getEnv("AGENT_PORT", defaultAgentPort),
		FallbackSessionID: os.Getenv("BANK_API_SESSION_ID"),
		Currency:          getEnv("CURRENCY", defaultCurrency),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.AskTimeout, err = durationEnv("ASK_TIMEOUT", cfg.AskTimeout); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment where
// in-memory backends may substitute for Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// durationEnv reads KEY as a Go duration, or KEY_SECONDS as an integer second
// count, falling back to the provided default when neither is set.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
