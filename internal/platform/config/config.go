// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Server is the full runtime configuration. Empty backing-service URLs
// select the in-process implementations.
type Server struct {
	Addr           string        `env:"LIFELINE_ADDR" envDefault:":5000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:5174"`
	SecureCookies  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	JWTSigningKey string        `env:"JWT_SIGNING_KEY,required" validate:"min=16"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"lifeline"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"8760h" validate:"gt=0"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"lifeline.audit" validate:"required"`

	// BootstrapAdmin is promoted to admin at startup, creating the identity
	// when needed.
	BootstrapAdmin string `env:"BOOTSTRAP_ADMIN_EMAIL" validate:"omitempty,email"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `env:"PAYMENT_CURRENCY" envDefault:"usd" validate:"len=3,alpha"`
}

// Load parses and validates the environment.
func Load() (*Server, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Server, error) {
	var cfg Server
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// PostgresEnabled reports whether durable stores were configured.
func (c *Server) PostgresEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Server) RedisEnabled() bool {
	return c.RedisURL != ""
}

func (c *Server) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c *Server) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}
