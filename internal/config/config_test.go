package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("UP_API_TOKEN", "up-token")
	t.Setenv("LUNCHMONEY_API_TOKEN", "lm-token")
	t.Setenv("UP_WEBHOOK_SECRET", "hook-secret")
}

func TestLoadMissingVariables(t *testing.T) {
	t.Setenv("UP_API_TOKEN", "")
	t.Setenv("LUNCHMONEY_API_TOKEN", "")
	t.Setenv("UP_WEBHOOK_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when required variables are missing")
	}
	// Every missing variable should be reported at once.
	for _, name := range []string{"UP_API_TOKEN", "LUNCHMONEY_API_TOKEN", "UP_WEBHOOK_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("MAPPING_DB_PATH", "")
	t.Setenv("QUEUE_BUFFER", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("MAX_RECEIVES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MappingDBPath != "mappings.db" {
		t.Errorf("MappingDBPath = %q", cfg.MappingDBPath)
	}
	if cfg.WorkerCount != 5 || cfg.MaxReceives != 3 || cfg.QueueBuffer != 100 {
		t.Errorf("defaults = %d/%d/%d", cfg.WorkerCount, cfg.MaxReceives, cfg.QueueBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_COUNT", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.WorkerCount != 12 {
		t.Errorf("WorkerCount = %d, want 12", cfg.WorkerCount)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKER_COUNT", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero worker count")
	}
}
