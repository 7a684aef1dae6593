// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application-level settings shared by cmd/server and cmd/stockctl.
// Database, Redis and JWT settings are loaded by their own platform packages.
type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string
	RunMigrations bool

	StartingBalance decimal.Decimal

	SettlementTimeout    time.Duration
	SettlementMaxRetries int

	TickSchedule         string
	SimJumpUpProbability float64
	SimSeed              int64

	KafkaBrokers    []string
	KafkaPriceTopic string

	// AuthRateLimit は /signup と /login のクライアントIPあたり毎分の上限です。0で無効。
	AuthRateLimit int
}

// LoadDotEnv reads .env into the process environment when the file exists.
func LoadDotEnv() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	balance, err := decimal.NewFromString(getEnv("STARTING_BALANCE", "10000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid STARTING_BALANCE: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		RunMigrations:        getEnvAsBool("RUN_MIGRATIONS", true),
		StartingBalance:      balance,
		SettlementTimeout:    getEnvAsDuration("SETTLEMENT_TIMEOUT", 5*time.Second),
		SettlementMaxRetries: getEnvAsInt("SETTLEMENT_MAX_RETRIES", 2),
		TickSchedule:         os.Getenv("TICK_SCHEDULE"),
		SimJumpUpProbability: getEnvAsFloat("SIM_JUMP_UP_PROBABILITY", 0.6),
		SimSeed:              int64(getEnvAsInt("SIM_SEED", 0)),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaPriceTopic:      getEnv("KAFKA_PRICE_TOPIC", "market.price"),
		AuthRateLimit:        getEnvAsInt("AUTH_RATE_LIMIT", 20),
	}
	if _, ok := os.LookupEnv("TICK_SCHEDULE"); !ok {
		cfg.TickSchedule = "@every 1m"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.StartingBalance.IsNegative() {
		return errors.New("STARTING_BALANCE must not be negative")
	}
	if c.SettlementTimeout <= 0 {
		return errors.New("SETTLEMENT_TIMEOUT must be positive")
	}
	if c.SettlementMaxRetries < 0 {
		return errors.New("SETTLEMENT_MAX_RETRIES must not be negative")
	}
	if c.AuthRateLimit < 0 {
		return errors.New("AUTH_RATE_LIMIT must not be negative")
	}
	if c.SimJumpUpProbability < 0 || c.SimJumpUpProbability > 1 {
		return errors.New("SIM_JUMP_UP_PROBABILITY must be within [0, 1]")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
		slog.Warn("invalid number in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
