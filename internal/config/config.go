// Package config loads the service configuration from environment
// variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/FernandoCarrilho/Ve-Joias/pkg/config"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/database"
)

// Config holds all configuration for the service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"vejoias"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"vejoias_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"vejoias"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (cart storage)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CartTTLHours  int    `env:"CART_TTL_HOURS" envDefault:"72"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment gateway. Provider "mock" skips the real integration.
	PaymentProvider      string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	MercadoPagoBaseURL   string `env:"MERCADOPAGO_BASE_URL" envDefault:"https://api.mercadopago.com"`
	MercadoPagoToken     string `env:"MERCADOPAGO_ACCESS_TOKEN" envDefault:""`
	ChargeTimeoutSeconds int    `env:"CHARGE_TIMEOUT_SECONDS" envDefault:"15"`

	// Circuit breaker for gateway calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Notifications
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"pedidos@vejoias.com.br"`

	WhatsAppEnabled  bool   `env:"WHATSAPP_ENABLED" envDefault:"false"`
	WhatsAppBaseURL  string `env:"WHATSAPP_BASE_URL" envDefault:"http://localhost:8088"`
	WhatsAppAPIKey   string `env:"WHATSAPP_API_KEY" envDefault:""`
	WhatsAppInstance string `env:"WHATSAPP_INSTANCE" envDefault:"vejoias"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}

	switch c.PaymentProvider {
	case "mock":
	case "mercadopago":
		if c.MercadoPagoToken == "" {
			return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required for the mercadopago provider")
		}
		if _, err := url.ParseRequestURI(c.MercadoPagoBaseURL); err != nil {
			return fmt.Errorf("invalid MERCADOPAGO_BASE_URL %q: %w", c.MercadoPagoBaseURL, err)
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	if c.WhatsAppEnabled {
		if _, err := url.ParseRequestURI(c.WhatsAppBaseURL); err != nil {
			return fmt.Errorf("invalid WHATSAPP_BASE_URL %q: %w", c.WhatsAppBaseURL, err)
		}
	}

	return nil
}

// Postgres returns the pool configuration for pkg/database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the client configuration for pkg/database.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// CartTTL returns how long inactive carts live in Redis.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// ChargeTimeout returns the payment charge deadline.
func (c *Config) ChargeTimeout() time.Duration {
	return time.Duration(c.ChargeTimeoutSeconds) * time.Second
}
