package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Address() != "localhost:8084" {
		t.Errorf("unexpected default address %q", cfg.Address())
	}
	if cfg.UseDatabase() {
		t.Error("no database URL configured, UseDatabase() should be false")
	}
	if cfg.Server.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("unexpected shutdown timeout %s", cfg.Server.ShutdownTimeoutDuration())
	}
	if !slices.Equal(cfg.Export.Thresholds, []int{500, 1000, 2000}) {
		t.Errorf("unexpected default thresholds %v", cfg.Export.Thresholds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INSIGHTS_SERVER__PORT", "9090")
	t.Setenv("INSIGHTS_DATABASE__URL", "postgres://localhost:5432/insights")
	t.Setenv("INSIGHTS_LOGGER__FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.UseDatabase() {
		t.Error("database URL set, UseDatabase() should be true")
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Logger.Format)
	}
}

func TestLoad_SliceOverridesSplitOnComma(t *testing.T) {
	t.Setenv("INSIGHTS_SECURITY__ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("INSIGHTS_SECURITY__TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	t.Setenv("INSIGHTS_EXPORT__THRESHOLDS", "100,250,9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !slices.Equal(cfg.Security.AllowedOrigins, []string{"http://a.example", "http://b.example"}) {
		t.Errorf("origins not split on comma: %v", cfg.Security.AllowedOrigins)
	}
	if !slices.Equal(cfg.Security.TrustedProxies, []string{"10.0.0.1", "10.0.0.2"}) {
		t.Errorf("proxies not split on comma: %v", cfg.Security.TrustedProxies)
	}
	if !slices.Equal(cfg.Export.Thresholds, []int{100, 250, 9000}) {
		t.Errorf("thresholds not decoded: %v", cfg.Export.Thresholds)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("INSIGHTS_LOGGER__LEVEL", "loud")

	if _, err := Load(); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}
