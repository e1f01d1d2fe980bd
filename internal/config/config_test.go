package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nudge/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", resolved)
	}
	if cfg.Camera.FrameInterval != 3 {
		t.Fatalf("expected default frame interval, got %d", cfg.Camera.FrameInterval)
	}
	if cfg.Remote.DailyQuota != 100 {
		t.Fatalf("expected default daily quota, got %d", cfg.Remote.DailyQuota)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[camera]",
		"frame_interval = 6",
		"[fusion]",
		"history_limit = 25",
		"[logging]",
		"level = \"DEBUG\"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Camera.FrameInterval != 6 {
		t.Fatalf("frame interval override not applied: %d", cfg.Camera.FrameInterval)
	}
	if cfg.Fusion.HistoryLimit != 25 {
		t.Fatalf("history limit override not applied: %d", cfg.Fusion.HistoryLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level should normalize to lowercase, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := config.Default()
	cfg.Fusion.FaceWeight = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected weight-sum validation failure")
	}
}

func TestAPIKeyEnvFallback(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "test-key")
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.APIKey != "test-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Remote.APIKey)
	}
	if !cfg.RemoteConfigured() {
		t.Fatal("remote should be configured via env credential")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	// The sample must itself load and validate.
	cfg, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("load sample: exists=%v err=%v", exists, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
