// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
	Mail       MailConfig       `koanf:"mail"`
	Notify     NotifyConfig     `koanf:"notify"`
	Activation ActivationConfig `koanf:"activation"`
	Security   SecurityConfig   `koanf:"security"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	DrainDelay      time.Duration `koanf:"drain_delay"`
	// TrustProxy honors X-Forwarded-For / X-Real-IP for the client
	// address. Leave off unless a reverse proxy sets them.
	TrustProxy      bool          `koanf:"trust_proxy"`
}

// DatabaseConfig accepts either a full URL or the individual connection
// parameters. URL wins when both are set.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Name            string        `koanf:"name"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"sslmode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type RateLimitConfig struct {
	Enabled          bool          `koanf:"enabled"`
	RegisterRequests int           `koanf:"register_requests"`
	ActivateRequests int           `koanf:"activate_requests"`
	Window           time.Duration `koanf:"window"`
	Burst            int           `koanf:"burst"`
	FailOpen         bool          `koanf:"fail_open"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MailConfig struct {
	Provider       string  `koanf:"provider"`
	BaseURL        string  `koanf:"base_url"`
	TimeoutSeconds float64 `koanf:"timeout_seconds"`
	From           string  `koanf:"from"`
	Subject        string  `koanf:"subject"`
	MailgunDomain  string  `koanf:"mailgun_domain"`
	MailgunAPIKey  string  `koanf:"mailgun_api_key"`
	ResendAPIKey   string  `koanf:"resend_api_key"`
}

type NotifyConfig struct {
	Workers         int           `koanf:"workers"`
	QueueSize       int           `koanf:"queue_size"`
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
}

type ActivationConfig struct {
	CodeTTLSeconds int `koanf:"code_ttl_seconds"`
	SaltBytes      int `koanf:"salt_bytes"`
}

type SecurityConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

const (
	MailProviderHTTP    = "http"
	MailProviderMailgun = "mailgun"
	MailProviderResend  = "resend"
	MailProviderLog     = "log"
)

// Load builds a Config from defaults, the optional YAML file at configPath
// and the process environment, in that order of precedence.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Registration API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.drain_delay":      "5s",
		"server.trust_proxy":      false,

		"database.host":               "localhost",
		"database.port":               5432,
		"database.name":               "usersdb",
		"database.user":               "userapi",
		"database.password":           "userapi_password",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"rate_limit.enabled":           true,
		"rate_limit.register_requests": 100,
		"rate_limit.activate_requests": 50,
		"rate_limit.window":            "1h",
		"rate_limit.burst":             20,
		"rate_limit.fail_open":         true,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "registration-api",

		"mail.provider":        MailProviderHTTP,
		"mail.base_url":        "http://localhost:8081",
		"mail.timeout_seconds": 3,
		"mail.from":            "no-reply@localhost",
		"mail.subject":         "Your activation code",

		"notify.workers":          4,
		"notify.queue_size":       1024,
		"notify.max_attempts":     3,
		"notify.initial_interval": "500ms",
		"notify.max_interval":     "5s",

		"activation.code_ttl_seconds": 60,
		"activation.salt_bytes":       16,

		"security.bcrypt_cost": 12,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"APP_HOST":                    "server.host",
	"APP_PORT":                    "server.port",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"TRUST_PROXY":                 "server.trust_proxy",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"DATABASE_URL":                "database.url",
	"DB_HOST":                     "database.host",
	"DB_PORT":                     "database.port",
	"DB_NAME":                     "database.name",
	"DB_USER":                     "database.user",
	"DB_PASSWORD":                 "database.password",
	"DB_SSLMODE":                  "database.sslmode",
	"DB_AUTO_MIGRATE":             "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"RATE_LIMIT_ENABLED":          "rate_limit.enabled",
	"RATE_LIMIT_REGISTER":         "rate_limit.register_requests",
	"RATE_LIMIT_ACTIVATE":         "rate_limit.activate_requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"EMAIL_PROVIDER":              "mail.provider",
	"EMAIL_API_BASE_URL":          "mail.base_url",
	"EMAIL_TIMEOUT_SECONDS":       "mail.timeout_seconds",
	"EMAIL_FROM":                  "mail.from",
	"MAILGUN_DOMAIN":              "mail.mailgun_domain",
	"MAILGUN_API_KEY":             "mail.mailgun_api_key",
	"RESEND_API_KEY":              "mail.resend_api_key",
	"NOTIFY_WORKERS":              "notify.workers",
	"NOTIFY_QUEUE_SIZE":           "notify.queue_size",
	"CODE_TTL_SECONDS":            "activation.code_ttl_seconds",
	"CODE_SALT_BYTES":             "activation.salt_bytes",
	"BCRYPT_ROUNDS":               "security.bcrypt_cost",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Activation.CodeTTLSeconds <= 0 {
		return fmt.Errorf("CODE_TTL_SECONDS must be positive")
	}

	if c.Activation.SaltBytes < 8 {
		return fmt.Errorf("CODE_SALT_BYTES must be at least 8")
	}

	if c.Security.BcryptCost < bcrypt.MinCost ||
		c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf(
			"BCRYPT_ROUNDS must be between %d and %d",
			bcrypt.MinCost,
			bcrypt.MaxCost,
		)
	}

	if c.Mail.TimeoutSeconds <= 0 {
		return fmt.Errorf("EMAIL_TIMEOUT_SECONDS must be positive")
	}

	switch c.Mail.Provider {
	case MailProviderHTTP:
		if c.Mail.BaseURL == "" {
			return fmt.Errorf("EMAIL_API_BASE_URL is required for the http provider")
		}
	case MailProviderMailgun:
		if c.Mail.MailgunDomain == "" || c.Mail.MailgunAPIKey == "" {
			return fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_API_KEY are required")
		}
	case MailProviderResend:
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required")
		}
	case MailProviderLog:
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notify.workers and notify.queue_size must be positive")
	}

	if c.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("notify.max_attempts must be positive")
	}

	if c.RateLimit.Enabled &&
		(c.RateLimit.RegisterRequests <= 0 || c.RateLimit.ActivateRequests <= 0) {
		return fmt.Errorf("rate limit request counts must be positive")
	}

	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DSN returns the connection string handed to the pgx driver.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}

	return u.String()
}

func (a *ActivationConfig) CodeTTL() time.Duration {
	return time.Duration(a.CodeTTLSeconds) * time.Second
}

func (m *MailConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds * float64(time.Second))
}
