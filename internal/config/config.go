package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/xavierca1/matchday-leads/internal/intake"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	AMQPURL     string `env:"AMQP_URL"`

	MailHost string `env:"MAIL_HOST"`
	MailPort int    `env:"MAIL_PORT" envDefault:"587"`
	MailUser string `env:"MAIL_USER"`
	MailPass string `env:"MAIL_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@matchday.local"`

	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	BackendURL     string   `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	PricingRulesFile         string        `env:"PRICING_RULES_FILE"`
	RequireEmailVerification bool          `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`
	QuoteValidity            time.Duration `env:"QUOTE_VALIDITY" envDefault:"720h"`

	IntakeCooldown        time.Duration `env:"INTAKE_COOLDOWN" envDefault:"15m"`
	IntakeDailyCap        int           `env:"INTAKE_DAILY_CAP" envDefault:"5"`
	IntakeDailyWindow     time.Duration `env:"INTAKE_DAILY_WINDOW" envDefault:"24h"`
	IntakeDuplicateWindow time.Duration `env:"INTAKE_DUPLICATE_WINDOW" envDefault:"168h"`

	IPRateLimit  int           `env:"IP_RATE_LIMIT" envDefault:"10"`
	IPRateWindow time.Duration `env:"IP_RATE_WINDOW" envDefault:"1m"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.QuoteValidity <= 0 {
		return fmt.Errorf("QUOTE_VALIDITY must be positive, got %s", c.QuoteValidity)
	}
	if c.IntakeDailyCap < 1 {
		return fmt.Errorf("INTAKE_DAILY_CAP must be at least 1, got %d", c.IntakeDailyCap)
	}
	if c.IntakeCooldown < 0 || c.IntakeDailyWindow <= 0 || c.IntakeDuplicateWindow < 0 {
		return fmt.Errorf("intake windows must not be negative")
	}
	return nil
}

func (c *Config) IntakePolicy() intake.Policy {
	return intake.Policy{
		Cooldown:        c.IntakeCooldown,
		DailyCap:        c.IntakeDailyCap,
		DailyWindow:     c.IntakeDailyWindow,
		DuplicateWindow: c.IntakeDuplicateWindow,
	}
}

// MailConfigured reports whether SMTP settings are present. Without them
// emails are logged instead of sent.
func (c *Config) MailConfigured() bool {
	return c.MailHost != ""
}
