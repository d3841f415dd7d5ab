// Package config provides configuration management for the trading robot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading     TradingConfig `mapstructure:"trading"`
	Session     SessionConfig `mapstructure:"session"`
	Policy      PolicyConfig  `mapstructure:"policy"`
	Options     OptionsConfig `mapstructure:"options"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode         string   `mapstructure:"mode"` // "live", "sim"
	Capital      float64  `mapstructure:"capital"`
	Watchlist    []string `mapstructure:"watchlist"`
	IndexSymbols []string `mapstructure:"index_symbols"`
	Product      string   `mapstructure:"product"` // MIS, NRML
}

// SessionConfig holds timer and session-boundary configuration.
type SessionConfig struct {
	TickIntervalSeconds    int `mapstructure:"tick_interval_seconds"`
	OptionsIntervalSeconds int `mapstructure:"options_interval_seconds"`
	RegimeIntervalSeconds  int `mapstructure:"regime_interval_seconds"`
	SquareOffHour          int `mapstructure:"square_off_hour"`
	SquareOffMinute        int `mapstructure:"square_off_minute"`
}

// TickInterval returns the orchestrator tick interval.
func (s SessionConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalSeconds) * time.Second
}

// OptionsInterval returns the options-engine refresh interval.
func (s SessionConfig) OptionsInterval() time.Duration {
	return time.Duration(s.OptionsIntervalSeconds) * time.Second
}

// RegimeInterval returns the regime-classifier refresh interval.
func (s SessionConfig) RegimeInterval() time.Duration {
	return time.Duration(s.RegimeIntervalSeconds) * time.Second
}

// PolicyConfig lifts every risk and signal threshold into one named
// structure so tests can exercise boundary values precisely.
type PolicyConfig struct {
	// Signal generation
	RSIOverbought       float64 `mapstructure:"rsi_overbought"`
	RSIOversold         float64 `mapstructure:"rsi_oversold"`
	StopATRMultiple     float64 `mapstructure:"stop_atr_multiple"`
	RewardRiskRatio     float64 `mapstructure:"reward_risk_ratio"`
	RiskPerTradePercent float64 `mapstructure:"risk_per_trade_percent"`

	// Signal scoring
	MinSignalScore float64            `mapstructure:"min_signal_score"`
	StrategyScores map[string]float64 `mapstructure:"strategy_scores"` // per-strategy overrides, 75-90

	// Trailing stops
	TrailingActivatePercent float64 `mapstructure:"trailing_activate_percent"`
	TrailingBasePercent     float64 `mapstructure:"trailing_base_percent"`
	TrailingWidePercent     float64 `mapstructure:"trailing_wide_percent"`
	TrailingWideThreshold   float64 `mapstructure:"trailing_wide_threshold"`
	TrailingWidestPercent   float64 `mapstructure:"trailing_widest_percent"`
	TrailingWidestThreshold float64 `mapstructure:"trailing_widest_threshold"`

	// Profit booking
	BookingLevel1Percent  float64 `mapstructure:"booking_level1_percent"`
	BookingLevel1Fraction float64 `mapstructure:"booking_level1_fraction"`
	BookingLevel2Percent  float64 `mapstructure:"booking_level2_percent"`
	BookingLevel2Fraction float64 `mapstructure:"booking_level2_fraction"`

	// Hard exits
	MaxLossPercent         float64 `mapstructure:"max_loss_percent"`
	ScalpingMaxHoldMinutes int     `mapstructure:"scalping_max_hold_minutes"`

	// Entry throttling
	MaxOpenPositions         int `mapstructure:"max_open_positions"`
	MaxRecentEntries         int `mapstructure:"max_recent_entries"`
	RecentEntryWindowMinutes int `mapstructure:"recent_entry_window_minutes"`
}

// OptionsConfig holds options-engine configuration.
type OptionsConfig struct {
	RiskFreeRate float64  `mapstructure:"risk_free_rate"`
	StrikeStep   float64  `mapstructure:"strike_step"`
	LadderSize   int      `mapstructure:"ladder_size"` // strikes each side of ATM
	Underlyings  []string `mapstructure:"underlyings"`
}

// Credentials holds API credentials.
type Credentials struct {
	Kite   KiteCredentials   `mapstructure:"kite"`
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// KiteCredentials holds Kite Connect API credentials.
type KiteCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trading-robot"
	}
	return filepath.Join(home, ".config", "trading-robot")
}

// DefaultPolicy returns the default policy thresholds.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		RSIOverbought:       65,
		RSIOversold:         35,
		StopATRMultiple:     1.5,
		RewardRiskRatio:     1.5,
		RiskPerTradePercent: 1.0,

		MinSignalScore: 80,
		StrategyScores: map[string]float64{
			"intraday": 80,
			"options":  75,
			"scalping": 90,
		},

		TrailingActivatePercent: 1.0,
		TrailingBasePercent:     1.5,
		TrailingWidePercent:     2.0,
		TrailingWideThreshold:   3.0,
		TrailingWidestPercent:   2.5,
		TrailingWidestThreshold: 5.0,

		BookingLevel1Percent:  3.0,
		BookingLevel1Fraction: 0.40,
		BookingLevel2Percent:  6.0,
		BookingLevel2Fraction: 0.50,

		MaxLossPercent:         5.0,
		ScalpingMaxHoldMinutes: 30,

		MaxOpenPositions:         5,
		MaxRecentEntries:         2,
		RecentEntryWindowMinutes: 5,
	}
}

// Default returns a complete default configuration, used when no config
// file exists and by tests.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Mode:         "sim",
			Capital:      1000000,
			Watchlist:    []string{"RELIANCE", "HDFCBANK", "INFY", "TCS", "ICICIBANK"},
			IndexSymbols: []string{"NIFTY", "BANKNIFTY", "FINNIFTY"},
			Product:      "MIS",
		},
		Session: SessionConfig{
			TickIntervalSeconds:    30,
			OptionsIntervalSeconds: 120,
			RegimeIntervalSeconds:  300,
			SquareOffHour:          15,
			SquareOffMinute:        10,
		},
		Policy: DefaultPolicy(),
		Options: OptionsConfig{
			RiskFreeRate: 0.065,
			StrikeStep:   50,
			LadderSize:   5,
			Underlyings:  []string{"NIFTY"},
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file: defaults apply.
			return nil
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Credentials.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Kite.AccessToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "" && c.Trading.Mode != "live" && c.Trading.Mode != "sim" {
		return fmt.Errorf("invalid trading mode: %s (must be 'live' or 'sim')", c.Trading.Mode)
	}
	if c.Trading.Capital <= 0 {
		return fmt.Errorf("capital must be positive")
	}
	if c.Policy.RiskPerTradePercent <= 0 || c.Policy.RiskPerTradePercent > 100 {
		return fmt.Errorf("risk_per_trade_percent must be in (0, 100]")
	}
	if c.Policy.MinSignalScore < 0 || c.Policy.MinSignalScore > 100 {
		return fmt.Errorf("min_signal_score must be between 0 and 100")
	}
	if c.Policy.MaxLossPercent <= 0 {
		return fmt.Errorf("max_loss_percent must be positive")
	}
	if c.Policy.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive")
	}
	if c.Policy.BookingLevel1Fraction <= 0 || c.Policy.BookingLevel1Fraction >= 1 {
		return fmt.Errorf("booking_level1_fraction must be in (0, 1)")
	}
	if c.Policy.BookingLevel2Fraction <= 0 || c.Policy.BookingLevel2Fraction > 1 {
		return fmt.Errorf("booking_level2_fraction must be in (0, 1]")
	}
	if c.Options.LadderSize <= 0 {
		return fmt.Errorf("ladder_size must be positive")
	}
	if c.Options.StrikeStep <= 0 {
		return fmt.Errorf("strike_step must be positive")
	}
	return nil
}

// IsSimMode returns true if simulated data mode is enabled.
func (c *Config) IsSimMode() bool {
	return c.Trading.Mode != "live"
}

// ScoreThreshold returns the acceptance threshold for a strategy,
// falling back to the global minimum when no override exists.
func (p PolicyConfig) ScoreThreshold(strategy string) float64 {
	if t, ok := p.StrategyScores[strategy]; ok {
		return t
	}
	return p.MinSignalScore
}
