package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DBDSN          string `mapstructure:"DB_DSN"`
	Environment    string `mapstructure:"ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`
	Timezone       string `mapstructure:"TIMEZONE"`

	FirstPassSize int           `mapstructure:"FIRST_PASS_SIZE"`
	RetryDelay    time.Duration `mapstructure:"RETRY_DELAY"`

	BreakerFailureThreshold uint32        `mapstructure:"BREAKER_FAILURE_THRESHOLD"`
	BreakerTimeout          time.Duration `mapstructure:"BREAKER_TIMEOUT"`

	DraftTTL time.Duration `mapstructure:"DRAFT_TTL"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    envOr("ENV", "development"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		MigrationsPath: envOr("MIGRATIONS_PATH", "migrations"),
		Timezone:       envOr("TIMEZONE", "Europe/Helsinki"),
	}

	var err error
	if cfg.FirstPassSize, err = envInt("FIRST_PASS_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = envDuration("RETRY_DELAY", 250*time.Millisecond); err != nil {
		return nil, err
	}
	threshold, err := envInt("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	cfg.BreakerFailureThreshold = uint32(threshold)
	if cfg.BreakerTimeout, err = envDuration("BREAKER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DraftTTL, err = envDuration("DRAFT_TTL", 2*time.Hour); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location возвращает часовой пояс бронируемых объектов
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
