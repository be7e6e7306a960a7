package config

import (
	"fmt"
	"os"
	"time"
)

// Config aggregates everything the service reads from the environment.
type Config struct {
	DBURL      string
	ListenAddr string

	// Shared secrets for the three inbound surfaces.
	PaymentWebhookSecret  string
	IdentityWebhookSecret string
	DeviceSecret          string

	// Capability token signing.
	TokenSecret string
	TokenTTL    time.Duration

	Logging LoggingConfig
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const defaultTokenTTL = 15 * time.Minute

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DBURL:                 os.Getenv("DB_URL"),
		ListenAddr:            valueOrDefault("LISTEN_ADDR", ":8080"),
		PaymentWebhookSecret:  os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		IdentityWebhookSecret: os.Getenv("IDENTITY_WEBHOOK_SECRET"),
		DeviceSecret:          os.Getenv("DEVICE_SECRET"),
		TokenSecret:           os.Getenv("TOKEN_SECRET"),
		TokenTTL:              defaultTokenTTL,
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", "info"),
			Format: valueOrDefault("LOG_FORMAT", "json"),
		},
	}

	for _, req := range []struct{ key, val string }{
		{"DB_URL", cfg.DBURL},
		{"PAYMENT_WEBHOOK_SECRET", cfg.PaymentWebhookSecret},
		{"IDENTITY_WEBHOOK_SECRET", cfg.IdentityWebhookSecret},
		{"DEVICE_SECRET", cfg.DeviceSecret},
		{"TOKEN_SECRET", cfg.TokenSecret},
	} {
		if req.val == "" {
			return Config{}, fmt.Errorf("%s is required", req.key)
		}
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("TOKEN_TTL must be positive")
		}
		cfg.TokenTTL = d
	}

	return cfg, nil
}

func valueOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
