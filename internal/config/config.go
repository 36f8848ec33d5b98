// Package config loads application settings from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings for the backend.
type Config struct {
	// --- HTTP ---
	Port      string `envconfig:"PORT" default:"8080"`
	WebAppURL string `envconfig:"WEBAPP_URL" default:""`

	// --- Database ---
	DatabasePath string `envconfig:"DATABASE_PATH" default:"/app/data/cashbux.db"`

	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`

	// --- Admin ---
	// Secret used to sign admin session tokens issued by /admin/login.
	AdminTokenSecret string `envconfig:"ADMIN_TOKEN_SECRET" default:"change-me"`
	// Credentials for the bootstrap admin account created on first start.
	// Change ADMIN_PASSWORD in any real deployment.
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin"`

	// --- Economy ---
	// Coins per 1 TON. The live value is stored in system_settings and can
	// be changed from the admin panel; this is only the bootstrap default.
	ConversionRate int64 `envconfig:"CONVERSION_RATE" default:"1000"`
	// Spins granted to a freshly registered user.
	WelcomeSpins int64 `envconfig:"WELCOME_SPINS" default:"10"`
	// Ceiling for each of the three per-day spin counters.
	DailySpinCap int64 `envconfig:"DAILY_SPIN_CAP" default:"50"`
	// Coins credited to a referrer's claimable earnings per invited friend.
	ReferralBonusCoins int64 `envconfig:"REFERRAL_BONUS_COINS" default:"100"`

	// --- Logging ---
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

// Load reads the environment and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ConversionRate <= 0 {
		return fmt.Errorf("CONVERSION_RATE must be > 0")
	}
	if c.DailySpinCap <= 0 {
		return fmt.Errorf("DAILY_SPIN_CAP must be > 0")
	}
	if c.WelcomeSpins < 0 {
		return fmt.Errorf("WELCOME_SPINS must be >= 0")
	}
	return nil
}
