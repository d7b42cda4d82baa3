// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-pos-ws/pkg/database"
)

const devSecret = "dev-only-secret-change-me"

type Config struct {
	AppName string
	AppEnv  string
	Port    string

	DBDriver    string
	DatabaseURL string
	DBLogLevel  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigins []string
	LogLevel    string
	TxTimeout   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	AdminUsername string
	AdminPassword string
}

// Load reads .env (when present) and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := Config{
		AppName: EnvDefault("APP_NAME", "POS Backend"),
		AppEnv:  EnvDefault("APP_ENV", "development"),
		Port:    EnvDefault("PORT", "3000"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBLogLevel:  EnvDefault("DB_LOG_LEVEL", "warn"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CORSOrigins: CSV(EnvDefault("CORS_ORIGINS", "*")),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		TxTimeout:   EnvDurationDefault("TX_TIMEOUT", 10*time.Second),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "pos.events"),

		AdminUsername: EnvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: EnvDefault("ADMIN_PASSWORD", "admin123"),
	}
	if cfg.DatabaseURL == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseURL = database.PostgresDSN(
			EnvDefault("DB_HOST", "localhost"),
			EnvDefault("DB_PORT", "5432"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_SSLMODE"),
		)
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devSecret
	}
	return cfg, cfg.Validate()
}

func (c Config) IsProduction() bool { return strings.EqualFold(c.AppEnv, "production") }

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.TxTimeout <= 0 {
		errs = append(errs, errors.New("TX_TIMEOUT must be positive"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	return errors.Join(errs...)
}

// Database maps the settings onto a connection config.
func (c Config) Database() database.Config {
	return database.Config{
		Driver:          c.DBDriver,
		DSN:             c.DatabaseURL,
		LogLevel:        c.DBLogLevel,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvDurationDefault accepts Go durations ("30m") or bare minutes ("30").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := EnvIntDefault(key, -1); n >= 0 {
		return time.Duration(n) * time.Minute
	}
	return def
}
