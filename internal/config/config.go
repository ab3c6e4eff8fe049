package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/koekalenteri/qualification/internal/logger"
)

// Config captures the process level configuration of the qualification service
type Config struct {
	Port        string
	DatabaseURL string // empty uses the in-memory result store
	RedisURL    string // empty uses the in-memory results cache
	Migrate     bool   // apply pending schema migrations on start
	CacheTTL    time.Duration
	TimeZone    *time.Location
	Log         logger.Config
}

// Default returns the configuration used when no variables are set
func Default() Config {
	return Config{
		Port:     "8080",
		CacheTTL: 5 * time.Minute,
		TimeZone: mustLoadLocation("Europe/Helsinki"),
		Log:      logger.DefaultConfig(),
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
// Invalid values keep their defaults and are reported in the returned error.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	if port := getenv("PORT"); port != "" {
		cfg.Port = port
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	cfg.RedisURL = getenv("REDIS_URL")
	cfg.Migrate = strings.EqualFold(getenv("MIGRATE_ON_START"), "true")

	if ttl := getenv("RESULTS_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("RESULTS_CACHE_TTL: invalid duration %q", ttl))
		} else {
			cfg.CacheTTL = d
		}
	}

	if tz := getenv("TIME_ZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("TIME_ZONE: %w", err))
		} else {
			cfg.TimeZone = loc
		}
	}

	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		level, err := logger.ParseLevel(lvl)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
		cfg.Log.Level = level
	}

	if rate := getenv("ERROR_SAMPLE_RATE"); rate != "" {
		n, err := strconv.Atoi(rate)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("ERROR_SAMPLE_RATE: must be a positive integer, got %q", rate))
		} else {
			cfg.Log.ErrorSampleRate = n
		}
	}

	cfg.Log.OTELEnabled = strings.EqualFold(getenv("OTEL_ENABLED"), "true")
	if name := getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.Log.ServiceName = name
	}

	return cfg, errors.Join(errs...)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
