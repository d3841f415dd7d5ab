package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must validate, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Trading.Mode = "backtest" }},
		{"zero capital", func(c *Config) { c.Trading.Capital = 0 }},
		{"negative risk", func(c *Config) { c.Policy.RiskPerTradePercent = -1 }},
		{"risk above 100", func(c *Config) { c.Policy.RiskPerTradePercent = 150 }},
		{"score above 100", func(c *Config) { c.Policy.MinSignalScore = 101 }},
		{"zero max loss", func(c *Config) { c.Policy.MaxLossPercent = 0 }},
		{"zero positions", func(c *Config) { c.Policy.MaxOpenPositions = 0 }},
		{"booking fraction 1", func(c *Config) { c.Policy.BookingLevel1Fraction = 1 }},
		{"zero strike step", func(c *Config) { c.Options.StrikeStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestScoreThreshold(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		strategy string
		want     float64
	}{
		{"intraday", 80},
		{"options", 75},
		{"scalping", 90},
		{"unknown", 80}, // falls back to the global minimum
	}

	for _, tt := range tests {
		if got := p.ScoreThreshold(tt.strategy); got != tt.want {
			t.Errorf("ScoreThreshold(%s) = %v, want %v", tt.strategy, got, tt.want)
		}
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	configTOML := `
[trading]
mode = "sim"
capital = 500000.0
watchlist = ["SBIN"]

[policy]
rsi_overbought = 70.0
max_loss_percent = 4.0
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.Capital != 500000 {
		t.Errorf("capital = %v, want 500000 from file", cfg.Trading.Capital)
	}
	if len(cfg.Trading.Watchlist) != 1 || cfg.Trading.Watchlist[0] != "SBIN" {
		t.Errorf("watchlist = %v, want [SBIN]", cfg.Trading.Watchlist)
	}
	if cfg.Policy.RSIOverbought != 70 {
		t.Errorf("rsi_overbought = %v, want 70 from file", cfg.Policy.RSIOverbought)
	}
	if cfg.Policy.MaxLossPercent != 4 {
		t.Errorf("max_loss_percent = %v, want 4 from file", cfg.Policy.MaxLossPercent)
	}

	// Untouched keys keep their defaults.
	if cfg.Policy.RSIOversold != 35 {
		t.Errorf("rsi_oversold = %v, want default 35", cfg.Policy.RSIOversold)
	}
	if cfg.Session.SquareOffHour != 15 || cfg.Session.SquareOffMinute != 10 {
		t.Errorf("square-off = %02d:%02d, want default 15:10", cfg.Session.SquareOffHour, cfg.Session.SquareOffMinute)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADING_MODE", "live")
	t.Setenv("KITE_API_KEY", "test_key")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.Mode != "live" {
		t.Errorf("mode = %s, want live from env", cfg.Trading.Mode)
	}
	if cfg.Credentials.Kite.APIKey != "test_key" {
		t.Errorf("api key = %s, want test_key from env", cfg.Credentials.Kite.APIKey)
	}
	if cfg.IsSimMode() {
		t.Error("IsSimMode() = true with live mode")
	}
}
