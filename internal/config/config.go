// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/judgement/internal/auth"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	ActionLogRedis = "redis"
	ActionLogNone  = "none"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port           string
	Env            string
	LogLevel       logrus.Level
	AllowedOrigins []string

	StoreBackend string
	DB           DBConfig

	ActionLog          string
	RedisAddr          string
	RedisDB            int
	HistorianQueue     string
	HistorianBatchSize int
	HistorianFlush     time.Duration

	TokenExpiry    time.Duration
	PrivateKeyPath string
	PublicKeyPath  string
}

// DBConfig holds the Postgres connection parameters.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	expiry, err := auth.ParseExpiry(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	flush, err := time.ParseDuration(getEnv("HISTORIAN_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("HISTORIAN_FLUSH_INTERVAL: %w", err)
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       level,
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		DB: DBConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Database: getEnv("PG_DATABASE", "judgement"),
		},

		ActionLog:          getEnv("ACTION_LOG", ActionLogNone),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistorianQueue:     getEnv("HISTORIAN_QUEUE_NAME", "judgement_actions"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 100),
		HistorianFlush:     flush,

		TokenExpiry:    expiry,
		PrivateKeyPath: os.Getenv("AUTH_PRIVATE_KEY_PATH"),
		PublicKeyPath:  os.Getenv("AUTH_PUBLIC_KEY_PATH"),
	}

	switch cfg.StoreBackend {
	case StoreMemory, StorePostgres:
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.StoreBackend)
	}
	switch cfg.ActionLog {
	case ActionLogRedis, ActionLogNone:
	default:
		return Config{}, fmt.Errorf("ACTION_LOG must be %q or %q, got %q", ActionLogRedis, ActionLogNone, cfg.ActionLog)
	}
	return cfg, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
