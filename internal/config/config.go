package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/currency"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Palette"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		PrettyLog bool   `envconfig:"LOG_PRETTY" default:"false"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"palette"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownGrace  time.Duration `envconfig:"SERVER_SHUTDOWN_GRACE" default:"10s"`
		AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		Secret        string        `envconfig:"AUTH_SECRET"`
		TokenTTL      time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
		AdminEmail    string        `envconfig:"AUTH_ADMIN_EMAIL"`
		AdminPassword string        `envconfig:"AUTH_ADMIN_PASSWORD"`
		AdminName     string        `envconfig:"AUTH_ADMIN_NAME" default:"Administrator"`
	}

	Redis struct {
		Addr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password  string        `envconfig:"REDIS_PASSWORD" default:""`
		DB        int           `envconfig:"REDIS_DB" default:"0"`
		IntentTTL time.Duration `envconfig:"REDIS_INTENT_TTL" default:"1h"`
	}

	Payment struct {
		BaseURL      string `envconfig:"PAYMENT_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
		ClientID     string `envconfig:"PAYMENT_CLIENT_ID"`
		ClientSecret string `envconfig:"PAYMENT_CLIENT_SECRET"`
		Currency     string `envconfig:"PAYMENT_CURRENCY" default:"USD"`
		ReturnURL    string `envconfig:"PAYMENT_RETURN_URL" default:"http://localhost:8080/api/v1/payments/return"`
		CancelURL    string `envconfig:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/commissions"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// CurrencyUnit returns the configured payment currency.
func (c *Config) CurrencyUnit() currency.Unit {
	unit, err := currency.ParseISO(c.Payment.Currency)
	if err != nil {
		return currency.USD
	}

	return unit
}

func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("AUTH_SECRET is required")
	}

	if _, err := currency.ParseISO(c.Payment.Currency); err != nil {
		return fmt.Errorf("invalid PAYMENT_CURRENCY %q: %w", c.Payment.Currency, err)
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
