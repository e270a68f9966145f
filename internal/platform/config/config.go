package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración del servicio.
// Se decodifica desde env vars; un archivo .env (si existe) se carga antes.
type Config struct {
	Port string `env:"PORT,default=8080"`

	DBDSN         string `env:"DB_DSN"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	AppName   string `env:"APP_NAME,default=alterations-manager"`

	Auth      AuthConfig
	Payments  PaymentsConfig
	Messaging MessagingConfig
	Reminders RemindersConfig
	RateLimit RateLimitConfig
}

type AuthConfig struct {
	// Secreto HS256 con el que el identity provider firma los access tokens.
	JWTSecret string `env:"AUTH_JWT_SECRET"`

	// Fallback remoto (GET /auth/v1/user) si no hay secreto local.
	BaseURL string `env:"AUTH_BASE_URL"`
	APIKey  string `env:"AUTH_API_KEY"`
}

type PaymentsConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	BaseURL       string `env:"STRIPE_BASE_URL,default=https://api.stripe.com"`
	Country       string `env:"STRIPE_ACCOUNT_COUNTRY,default=US"`

	WebhookTolerance time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE,default=5m"`
}

type MessagingConfig struct {
	AMQPURL  string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE,default=alterations.events"`
}

type RemindersConfig struct {
	Schedule string        `env:"REMINDER_SCHEDULE,default=@every 15m"`
	Lead     time.Duration `env:"REMINDER_LEAD,default=24h"`
	Enabled  bool          `env:"REMINDERS_ENABLED,default=true"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,default=20"`
	Burst int     `env:"RATE_LIMIT_BURST,default=40"`
}

// Load lee .env (opcional) + env vars y valida el resultado.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load no pisa variables ya definidas en el entorno.
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if c.Port == "" {
		c.Port = "8080"
	}
	c.DBDSN = strings.TrimSpace(c.DBDSN)
	c.Payments.BaseURL = strings.TrimRight(strings.TrimSpace(c.Payments.BaseURL), "/")
	if c.Payments.WebhookTolerance <= 0 {
		c.Payments.WebhookTolerance = 5 * time.Minute
	}
	if c.Reminders.Lead <= 0 {
		c.Reminders.Lead = 24 * time.Hour
	}
	if strings.TrimSpace(c.Reminders.Schedule) == "" {
		c.Reminders.Schedule = "@every 15m"
	}
	if c.Messaging.Exchange == "" {
		c.Messaging.Exchange = "alterations.events"
	}
}

func (c Config) Validate() error {
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("config: rate limit must be >= 0")
	}
	if c.Payments.SecretKey != "" && c.Payments.WebhookSecret == "" {
		return errors.New("config: STRIPE_WEBHOOK_SECRET required when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// Addr devuelve la dirección de escucha para http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}
