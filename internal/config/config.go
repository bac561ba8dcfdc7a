package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "PAYMENTS_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Tracking  TrackingConfig  `koanf:"tracking"`
	Admin     AdminConfig     `koanf:"admin"`
	Retry     RetryConfig     `koanf:"retry"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Redis     RedisConfig     `koanf:"redis"`
	NATS      NATSConfig      `koanf:"nats"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
	// PublicURL is the externally reachable base of this service, used to
	// build the return and status URLs handed to the gateway.
	PublicURL string `koanf:"public_url" validate:"required,url"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// GatewayConfig holds the merchant credentials and endpoints of the payment gateway.
type GatewayConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required,url"`
	MerchantID    string        `koanf:"merchant_id" validate:"required"`
	PosID         string        `koanf:"pos_id" validate:"required"`
	APIKey        string        `koanf:"api_key" validate:"required"`
	CRC           string        `koanf:"crc" validate:"required"`
	Language      string        `koanf:"language" validate:"required"`
	Timeout       time.Duration `koanf:"timeout" validate:"required"`
	SessionPrefix string        `koanf:"session_prefix" validate:"required"`
	Description   string        `koanf:"description"`
}

type TrackingConfig struct {
	Secret string `koanf:"secret" validate:"required,min=16"`
}

type AdminConfig struct {
	APIKey string `koanf:"api_key" validate:"required,min=16"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries" validate:"min=1"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

type WorkerConfig struct {
	Interval         time.Duration `koanf:"interval" validate:"required"`
	BatchSize        int           `koanf:"batch_size" validate:"required"`
	PendingThreshold time.Duration `koanf:"pending_threshold" validate:"required"`
	LockTTL          time.Duration `koanf:"lock_ttl" validate:"required"`
}

type WebhookConfig struct {
	// Mode is "sync" to verify inside the request or "async" to queue the
	// notification and acknowledge immediately.
	Mode string `koanf:"mode" validate:"required,oneof=sync async"`
}

type RateLimitConfig struct {
	// Status and Return use the limiter's "<n>-<S|M|H|D>" format.
	Status string `koanf:"status" validate:"required"`
	Return string `koanf:"return" validate:"required"`
	// TrustForwardHeader keys clients by X-Forwarded-For / X-Real-IP when
	// the service runs behind a proxy.
	TrustForwardHeader bool `koanf:"trust_forward_header"`
}

// RedisConfig is optional. With an empty Addr the sweep lock falls back to
// in-process only and the rate limiter keeps its counters in memory.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// NATSConfig is optional and only required when the webhook runs in async mode.
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject" validate:"required"`
	Queue   string `koanf:"queue" validate:"required"`
}

func (c NATSConfig) Enabled() bool { return c.URL != "" }

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                 "local",
		"server.port":                 "8080",
		"server.read_timeout":         "15s",
		"server.write_timeout":        "15s",
		"server.idle_timeout":         "60s",
		"database.port":               5432,
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"gateway.language":            "pl",
		"gateway.timeout":             "10s",
		"gateway.session_prefix":      "sisi-",
		"gateway.description":         "Order payment",
		"retry.base_delay":            "500ms",
		"retry.max_retries":           3,
		"logger.level":                "info",
		"logger.format":               "json",
		"worker.interval":             "1m",
		"worker.batch_size":           50,
		"worker.pending_threshold":    "5m",
		"worker.lock_ttl":             "2m",
		"webhook.mode":                "sync",
		"rate_limit.status":           "60-M",
		"rate_limit.return":           "30-M",
		"nats.subject":                "payments.notifications",
		"nats.queue":                  "payments-verifier",
	}
}

// MigrationConfig is the part of Config needed to reach the database.
type MigrationConfig struct {
	Database DatabaseConfig `koanf:"database"`
	Logger   LoggerConfig   `koanf:"logger"`
}

func LoadConfig() (*Config, error) {
	return load[Config]()
}

// LoadMigrationConfig reads only the database and logger settings, so
// schema changes do not need gateway credentials in the environment.
func LoadMigrationConfig() (*MigrationConfig, error) {
	return load[MigrationConfig]()
}

func load[T any]() (*T, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load default configuration", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := new(T)

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
