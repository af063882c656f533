// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "ANIMESHELF_"

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the full service configuration.
type Config struct {
	Web     Web     `envPrefix:"WEB_"`
	Jikan   Jikan   `envPrefix:"JIKAN_"`
	Cache   Cache   `envPrefix:"CACHE_"`
	Redis   Redis   `envPrefix:"REDIS_"`
	Log     Log     `envPrefix:"LOG_"`
	Tracing Tracing `envPrefix:"TRACING_"`
}

type Web struct {
	Host            string        `env:"HOST" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Jikan holds the upstream client settings. Cooldown is the pause the
// queue keeps between calls; RateLimit and RateBurst describe the
// per-minute allowance.
type Jikan struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://api.jikan.moe/v4"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"USER_AGENT" envDefault:"animeshelf/1.0"`
	Cooldown  time.Duration `env:"COOLDOWN" envDefault:"350ms"`
	RateLimit int           `env:"RATE_LIMIT" envDefault:"60"`
	RateBurst int           `env:"RATE_BURST" envDefault:"3"`
}

type Cache struct {
	TTL      time.Duration `env:"TTL" envDefault:"5m"`
	Capacity int           `env:"CAPACITY" envDefault:"256"`
}

// Redis is optional. An empty URL keeps the cache in memory.
type Redis struct {
	URL           string        `env:"URL"`
	Prefix        string        `env:"PREFIX" envDefault:"animeshelf:"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
}

type Log struct {
	Level  slog.Level `env:"LEVEL" envDefault:"INFO"`
	Format string     `env:"FORMAT" envDefault:"json"`
}

// Tracing writes spans to Output, or stdout when Output is empty.
type Tracing struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Output  string `env:"OUTPUT"`
}

// Load reads the optional dotenv files (".env" when none are given) and
// parses the environment into a Config. Variables already set in the
// environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading dotenv: %w", err)
	}

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.Jikan.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("%w: jikan cooldown must be positive", ErrInvalidConfig))
	}
	if c.Jikan.RateLimit <= 0 || c.Jikan.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("%w: jikan rate limit and burst must be positive", ErrInvalidConfig))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache capacity must be positive", ErrInvalidConfig))
	}
	if c.Log.Format != FormatJSON && c.Log.Format != FormatText {
		errs = append(errs, fmt.Errorf("%w: log format %q must be %q or %q", ErrInvalidConfig, c.Log.Format, FormatJSON, FormatText))
	}

	return errors.Join(errs...)
}
