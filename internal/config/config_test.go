package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.JobBatchSize != 10 {
			t.Errorf("expected batch size 10, got %d", cfg.JobBatchSize)
		}
		if cfg.BudgetEndWindow != 24*time.Hour {
			t.Errorf("expected 24h end window, got %s", cfg.BudgetEndWindow)
		}
		if cfg.JobTimeBudget != 0 {
			t.Errorf("expected unbounded job time budget, got %s", cfg.JobTimeBudget)
		}
	})

	t.Run("env_overrides", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("PORT", "9090")
		t.Setenv("SYSTEM_TOKEN", "sys")
		t.Setenv("JOB_BATCH_SIZE", "3")
		t.Setenv("JOB_TIME_BUDGET", "30s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Port)
		}
		if cfg.SystemToken != "sys" {
			t.Errorf("expected system token sys, got %q", cfg.SystemToken)
		}
		if cfg.JobBatchSize != 3 {
			t.Errorf("expected batch size 3, got %d", cfg.JobBatchSize)
		}
		if cfg.JobTimeBudget != 30*time.Second {
			t.Errorf("expected 30s, got %s", cfg.JobTimeBudget)
		}
	})

	t.Run("invalid_batch_size_falls_back", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("JOB_BATCH_SIZE", "-1")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.JobBatchSize != 10 {
			t.Errorf("expected fallback batch size 10, got %d", cfg.JobBatchSize)
		}
	})

	t.Run("yaml_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("plaid_page_size: 50\nnotify_url: http://hooks\n"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PlaidPageSize != 50 {
			t.Errorf("expected page size 50, got %d", cfg.PlaidPageSize)
		}
		if cfg.NotifyURL != "http://hooks" {
			t.Errorf("expected notify url from file, got %s", cfg.NotifyURL)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}
