package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	Port  string
	Store string

	DB DBConfig

	JWTSecret string
	JWTTTL    time.Duration

	// CORSAllowedOrigins is empty when any origin may call the API.
	CORSAllowedOrigins []string

	LogFile       string
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN builds the libpq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	cfg := Config{
		Port:  getEnv("PORT", "8080"),
		Store: getEnv("STORE", StoreMemory),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "cycleroute"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", 72)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	if cfg.LogMaxSizeMB, err = getEnvInt("LOG_MAX_SIZE_MB", 10); err != nil {
		return Config{}, err
	}
	if cfg.LogMaxBackups, err = getEnvInt("LOG_MAX_BACKUPS", 7); err != nil {
		return Config{}, err
	}
	if cfg.LogMaxAgeDays, err = getEnvInt("LOG_MAX_AGE_DAYS", 7); err != nil {
		return Config{}, err
	}

	switch cfg.Store {
	case StoreMemory, StorePostgres:
	default:
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.Store)
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
