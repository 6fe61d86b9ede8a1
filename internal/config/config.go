package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
// Token and secret fields hold references understood by the secrets provider,
// not the secret material itself.
type Config struct {
	Port               string
	UpAPIToken         string
	LunchMoneyAPIToken string
	WebhookSecret      string
	MappingDBPath      string
	QueueBuffer        int
	WorkerCount        int
	MaxReceives        int
}

// Load loads configuration from environment variables.
// All required variables are validated together so a misconfigured deployment
// reports every missing variable at once.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               envOr("PORT", "8080"),
		UpAPIToken:         os.Getenv("UP_API_TOKEN"),
		LunchMoneyAPIToken: os.Getenv("LUNCHMONEY_API_TOKEN"),
		WebhookSecret:      os.Getenv("UP_WEBHOOK_SECRET"),
		MappingDBPath:      envOr("MAPPING_DB_PATH", "mappings.db"),
		QueueBuffer:        envIntOr("QUEUE_BUFFER", 100),
		WorkerCount:        envIntOr("WORKER_COUNT", 5),
		MaxReceives:        envIntOr("MAX_RECEIVES", 3),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	var missing []string

	if c.UpAPIToken == "" {
		missing = append(missing, "UP_API_TOKEN")
	}
	if c.LunchMoneyAPIToken == "" {
		missing = append(missing, "LUNCHMONEY_API_TOKEN")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "UP_WEBHOOK_SECRET")
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if c.QueueBuffer <= 0 || c.WorkerCount <= 0 || c.MaxReceives <= 0 {
		return errors.New("QUEUE_BUFFER, WORKER_COUNT and MAX_RECEIVES must be positive")
	}

	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envIntOr(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
