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
	Env      string         `yaml:"env" env:"ENV" env-required:"true"`
	Timezone string         `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	JWT      JWTConfig      `yaml:"jwt"`
	Roles    RolesConfig    `yaml:"roles"`
	Admin    AdminConfig    `yaml:"admin"`
	Lockout  LockoutConfig  `yaml:"lockout"`
	Reset    ResetConfig    `yaml:"password_reset"`
	Janitor  JanitorConfig  `yaml:"janitor"`
	Calendar CalendarConfig `yaml:"calendar"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	PublicURL       string        `yaml:"public_url" env:"HTTP_PUBLIC_URL" env-default:"http://localhost:8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `yaml:"host" env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `yaml:"username" env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `yaml:"database" env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `yaml:"ping_timeout" env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	MaxConns       int32         `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

type JWTConfig struct {
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"go-scrum"`
	SigningKey      string        `yaml:"signing_key" env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

// RolesConfig names the roles the application relies on. The ids behind
// these names are resolved once at startup.
type RolesConfig struct {
	Admin string `yaml:"admin" env:"ROLE_ADMIN" env-default:"Admin"`
	User  string `yaml:"user" env:"ROLE_USER" env-default:"User"`
}

// AdminConfig is the account seeded on startup when no user with
// this email exists.
type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-default:"admin@local.com"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type LockoutConfig struct {
	MaxFailedAttempts int           `yaml:"max_failed_attempts" env:"LOCKOUT_MAX_FAILED_ATTEMPTS" env-default:"5"`
	Duration          time.Duration `yaml:"duration" env:"LOCKOUT_DURATION" env-default:"5m"`
}

type ResetConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl" env:"PASSWORD_RESET_TOKEN_TTL" env-default:"24h"`
}

type JanitorConfig struct {
	Schedule string `yaml:"schedule" env:"JANITOR_SCHEDULE" env-default:"@every 1h"`
}

// CalendarConfig describes the exported iCalendar feed. Domain is the
// right-hand side of every UID.
type CalendarConfig struct {
	Name   string `yaml:"name" env:"CALENDAR_NAME" env-default:"Scrum"`
	Domain string `yaml:"domain" env:"CALENDAR_DOMAIN" env-default:"go-scrum.local"`
}
