package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/mtfdash/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090

backend:
  base_url: "http://results.internal:8000"
  timeout: 5s
  run_limit: 50
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://results.internal:8000" {
		t.Errorf("expected base_url, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Backend.Timeout)
	}
	if cfg.Backend.RunLimit != 50 {
		t.Errorf("expected run_limit 50, got %d", cfg.Backend.RunLimit)
	}
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.RunLimit != 20 {
		t.Errorf("expected default run_limit 20, got %d", cfg.Backend.RunLimit)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected default metrics path, got %s", cfg.Metrics.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected merged config to validate, got %v", err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("MTFDASH_TEST_TOKEN", "s3cret")

	cfg, err := Load(writeConfig(t, "backend:\n  token: \"${MTFDASH_TEST_TOKEN}\"\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Backend.Token != "s3cret" {
		t.Errorf("expected token from env, got %q", cfg.Backend.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.Backend.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mutate func(*Config)) Config {
		cfg := Defaults()
		mutate(cfg)
		return *cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid config",
			cfg:  valid(func(*Config) {}),
		},
		{
			name:    "invalid port - zero",
			cfg:     valid(func(c *Config) { c.Server.Port = 0 }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "invalid port - too high",
			cfg:     valid(func(c *Config) { c.Server.Port = 70000 }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "unknown mode",
			cfg:     valid(func(c *Config) { c.Server.Mode = "verbose" }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "debug mode",
			cfg:  valid(func(c *Config) { c.Server.Mode = ModeDebug }),
		},
		{
			name:    "missing base url",
			cfg:     valid(func(c *Config) { c.Backend.BaseURL = "" }),
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "relative base url",
			cfg:     valid(func(c *Config) { c.Backend.BaseURL = "/api" }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "zero timeout",
			cfg:     valid(func(c *Config) { c.Backend.Timeout = 0 }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "run limit too high",
			cfg:     valid(func(c *Config) { c.Backend.RunLimit = 501 }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "run limit zero",
			cfg:     valid(func(c *Config) { c.Backend.RunLimit = 0 }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "metrics path without slash",
			cfg:     valid(func(c *Config) { c.Metrics.Path = "metrics" }),
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "metrics path ignored when disabled",
			cfg: valid(func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Path = ""
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
