package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Mail     MailConfig
	Sync     SyncConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	// RateLimit is the number of requests per second allowed for a
	// single user or address. Zero disables the limiter.
	RateLimit float64 `env:"HTTP_RATE_LIMIT" env-default:"20"`
	RateBurst int     `env:"HTTP_RATE_BURST" env-default:"40"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	MigrateOnStart bool          `env:"POSTGRES_MIGRATE" env-default:"true"`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"go-reminders"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

// MailConfig leaves completion emails disabled while
// the host or the credentials are empty.
type MailConfig struct {
	Host      string        `env:"MAIL_HOST"`
	Port      int           `env:"MAIL_PORT" env-default:"587"`
	Username  string        `env:"MAIL_USERNAME"`
	Password  string        `env:"MAIL_PASSWORD"`
	From      string        `env:"MAIL_FROM"`
	Timeout   time.Duration `env:"MAIL_TIMEOUT" env-default:"15s"`
	QueueSize int           `env:"MAIL_QUEUE_SIZE" env-default:"64"`
}

type SyncConfig struct {
	// SweepInterval of zero disables the background sweep.
	SweepInterval time.Duration `env:"SYNC_SWEEP_INTERVAL" env-default:"30s"`
}
