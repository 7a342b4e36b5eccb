package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`
	HTTPPort    string `yaml:"http_port" env:"HTTP_PORT"`

	PostgresDSN  string   `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	RedisURL     string   `yaml:"redis_url" env:"REDIS_URL"`
	KafkaBrokers []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `yaml:"kafka_topic" env:"KAFKA_TOPIC"`

	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	CookieSecure  bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	AdminEmails   []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" envSeparator:","`
	BcryptCost    int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`

	KYCProviderURL           string        `yaml:"kyc_provider_url" env:"KYC_PROVIDER_URL"`
	IdempotencyTTL           time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL"`
	EntitlementLookupTimeout time.Duration `yaml:"entitlement_lookup_timeout" env:"ENTITLEMENT_LOOKUP_TIMEOUT"`
	InternalBillingToken     string        `yaml:"internal_billing_token" env:"INTERNAL_BILLING_TOKEN"`

	RateLimitRequests  int           `yaml:"rate_limit_requests" env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW"`
	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval" env:"OUTBOX_POLL_INTERVAL"`
	CORSOrigins        []string      `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// Defaults returns the local development configuration.
func Defaults() Config {
	return Config{
		ServiceName:              "fanvault",
		Environment:              EnvironmentDevelopment,
		LogLevel:                 "info",
		LogFormat:                "console",
		HTTPPort:                 "8080",
		KafkaBrokers:             []string{"localhost:9092"},
		KafkaTopic:               "fanvault.onboarding",
		SessionTTL:               7 * 24 * time.Hour,
		BcryptCost:               12,
		KYCProviderURL:           "https://kyc.example.test/verify",
		IdempotencyTTL:           24 * time.Hour,
		EntitlementLookupTimeout: 2 * time.Second,
		RateLimitRequests:        20,
		RateLimitWindow:          time.Minute,
		OutboxPollInterval:       2 * time.Second,
	}
}

// Load resolves configuration in priority order: defaults -> CONFIG_FILE
// yaml -> .env -> process environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.KafkaBrokers = trimAll(c.KafkaBrokers)
	c.CORSOrigins = trimAll(c.CORSOrigins)
	emails := trimAll(c.AdminEmails)
	for i := range emails {
		emails[i] = strings.ToLower(emails[i])
	}
	c.AdminEmails = emails
}

// Validate rejects configurations that are unsafe to run in production.
func (c Config) Validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.SessionTTL <= 0 || c.IdempotencyTTL <= 0 || c.EntitlementLookupTimeout <= 0 {
		return errors.New("SESSION_TTL, IDEMPOTENCY_TTL and ENTITLEMENT_LOOKUP_TIMEOUT must be positive")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.IsProduction() {
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 bytes in production")
		}
		if strings.TrimSpace(c.InternalBillingToken) == "" {
			return errors.New("INTERNAL_BILLING_TOKEN is required in production")
		}
		if !c.CookieSecure {
			return errors.New("COOKIE_SECURE must be enabled in production")
		}
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
