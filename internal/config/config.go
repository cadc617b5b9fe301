package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                  int    `env:"PORT" envDefault:"8080"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	RedisURL              string `env:"REDIS_URL,required"`
	WhatsAppToken         string `env:"WHATSAPP_TOKEN,required"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID,required"`
	WhatsAppAPIBaseURL    string `env:"WHATSAPP_API_BASE_URL" envDefault:"https://graph.facebook.com/v19.0"`
	WebhookVerifyToken    string `env:"WEBHOOK_VERIFY_TOKEN"`
	AppSecret             string `env:"APP_SECRET"`
	CatalogPath           string `env:"CATALOG_PATH" envDefault:"catalog.yaml"`
	DefaultLanguage       string `env:"DEFAULT_LANGUAGE" envDefault:"es"`
	DefaultCountryCode    string `env:"DEFAULT_COUNTRY_CODE" envDefault:"57"`
	SessionRetentionDays  int    `env:"SESSION_RETENTION_DAYS" envDefault:"90"`
	RateLimitPerMin       int    `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) SessionRetention() time.Duration {
	return time.Duration(c.SessionRetentionDays) * 24 * time.Hour
}

func (c *Config) Validate(isProduction bool) error {
	if c.DefaultCountryCode == "" || strings.Trim(c.DefaultCountryCode, "0123456789") != "" {
		return fmt.Errorf("DEFAULT_COUNTRY_CODE must contain digits only")
	}

	if isProduction {
		if c.AppSecret == "" {
			log.Warn().Msg("APP_SECRET is empty in production: webhook signature verification disabled")
		}
		if c.WebhookVerifyToken == "" {
			log.Warn().Msg("WEBHOOK_VERIFY_TOKEN is empty in production: webhook verification handshake disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
