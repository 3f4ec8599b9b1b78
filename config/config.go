package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBConnTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	JWTSecretKey   string        `env:"JWT_SECRET_KEY,required,notEmpty"`
	ServerPort     int           `env:"SERVER_PORT" envDefault:"8080"`
	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	MemorySeedFile string        `env:"MEMORY_SEED_FILE"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"federation-registry.events"`

	R2 R2Config `envPrefix:"R2_"`

	TracingEnabled   bool          `env:"TRACING_ENABLED" envDefault:"false"`
	CategoryCacheTTL time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"5m"`
}

// R2Config описывает бакет Cloudflare R2 для выгрузок. Пустой блок отключает выгрузку.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	BucketName      string `env:"BUCKET_NAME"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
	Endpoint        string `env:"ENDPOINT"`
}

// Configured reports whether every setting needed for uploads is present.
// Endpoint may stand in for AccountID.
func (c R2Config) Configured() bool {
	return (c.AccountID != "" || c.Endpoint != "") &&
		c.AccessKeyID != "" &&
		c.SecretAccessKey != "" &&
		c.BucketName != "" &&
		c.PublicBaseURL != ""
}

func (c R2Config) empty() bool {
	return c == R2Config{}
}

// missing lists the R2_* variables left unset.
func (c R2Config) missing() []string {
	var keys []string
	if c.AccountID == "" && c.Endpoint == "" {
		keys = append(keys, "R2_ACCOUNT_ID (or R2_ENDPOINT)")
	}
	if c.AccessKeyID == "" {
		keys = append(keys, "R2_ACCESS_KEY_ID")
	}
	if c.SecretAccessKey == "" {
		keys = append(keys, "R2_SECRET_ACCESS_KEY")
	}
	if c.BucketName == "" {
		keys = append(keys, "R2_BUCKET_NAME")
	}
	if c.PublicBaseURL == "" {
		keys = append(keys, "R2_PUBLIC_BASE_URL")
	}
	return keys
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку отсутствия .env не считаем фатальной.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", c.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if !c.R2.empty() && !c.R2.Configured() {
		return fmt.Errorf("incomplete R2 configuration, missing: %s", strings.Join(c.R2.missing(), ", "))
	}
	return nil
}

func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return l, nil
}
