package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	SentryDSN string        `env:"SENTRY_DSN"`

	// MaxImageBytes caps uploaded images on /ocr and /v1/prescriptions.
	MaxImageBytes int64 `env:"MAX_IMAGE_BYTES, default=10485760"`

	Mongo      MongoConfig
	Redis      RedisConfig
	OCR        OCRConfig
	Summarizer SummarizerConfig
	Pipeline   PipelineConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=medical_records"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type OCRConfig struct {
	URL      string        `env:"OCR_URL,       default=http://localhost:8000"`
	Timeout  time.Duration `env:"OCR_TIMEOUT,   default=30s"`
	CacheTTL time.Duration `env:"OCR_CACHE_TTL, default=24h"`
}

// SummarizerConfig leaves summaries disabled while URL is empty.
type SummarizerConfig struct {
	URL     string        `env:"SUMMARIZER_URL"`
	Timeout time.Duration `env:"SUMMARIZER_TIMEOUT, default=60s"`
}

type PipelineConfig struct {
	Workers int `env:"PIPELINE_WORKERS, default=4"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context, dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves the configuration from lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Pipeline.Workers <= 0 {
		return nil, fmt.Errorf("config: PIPELINE_WORKERS must be positive, got %d", cfg.Pipeline.Workers)
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_IMAGE_BYTES must be positive, got %d", cfg.MaxImageBytes)
	}
	return &cfg, nil
}
