package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Skotchmaster/college_portal/internal/logging"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"1h"`

	// CertificateSecret keys certificate ids; JWT_SECRET when unset.
	CertificateSecret string `envconfig:"CERTIFICATE_SECRET"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	ResetTTL  time.Duration `envconfig:"RESET_TTL" default:"15m"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	ESURL      string `envconfig:"ES_URL" default:"http://localhost:9200"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`

	WebRoot         string `envconfig:"WEB_ROOT" default:"web/dist"`
	LoginRatePerMin int    `envconfig:"LOGIN_RATE_PER_MIN" default:"10"`
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		slog.Info("config_notice", "reason", ".env file not found, using process environment", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if c.CertificateSecret == "" {
		c.CertificateSecret = c.JWTSecret
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ResetTTL <= 0 {
		return errors.New("RESET_TTL must be positive")
	}
	if c.LoginRatePerMin <= 0 {
		return errors.New("LOGIN_RATE_PER_MIN must be positive")
	}
	return nil
}

// IsDevelopment gates insecure cookies; every other environment gets
// Secure cookies.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
