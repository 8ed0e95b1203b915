package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port            string
	FrameRate       int
	DefaultLocale   string
	Timezone        string
	Location        *time.Location
	LogLevel        string
	SessionLifetime time.Duration
	LocaleCacheTTL  time.Duration
	StaticDir       string
}

// Defaults
const (
	DefaultPort            = "8090"
	DefaultFrameRate       = 60
	DefaultLocale          = "en-US"
	DefaultLogLevel        = "info"
	DefaultSessionLifetime = 24 * time.Hour
	DefaultLocaleCacheTTL  = 10 * time.Minute
	DefaultStaticDir       = "./web/static"
)

// Load reads a .env file if present, then the environment. Invalid values
// fall back to their defaults and are reported as warnings.
func Load(files ...string) (*Config, []string) {
	var warnings []string
	if err := godotenv.Load(files...); err != nil {
		warnings = append(warnings, "No .env file found")
	}

	cfg, more := FromEnv(os.Getenv)
	return cfg, append(warnings, more...)
}

// FromEnv builds a config from a lookup function
func FromEnv(getenv func(string) string) (*Config, []string) {
	var warnings []string
	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s %q: %v, using default", key, value, err))
	}

	cfg := &Config{
		Port:            DefaultPort,
		FrameRate:       DefaultFrameRate,
		DefaultLocale:   DefaultLocale,
		Timezone:        "Local",
		Location:        time.Local,
		LogLevel:        DefaultLogLevel,
		SessionLifetime: DefaultSessionLifetime,
		LocaleCacheTTL:  DefaultLocaleCacheTTL,
		StaticDir:       DefaultStaticDir,
	}

	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("DEFAULT_LOCALE"); v != "" {
		cfg.DefaultLocale = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	if v := getenv("FRAME_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err == nil && rate <= 0 {
			err = errors.New("must be positive")
		}
		if err != nil {
			warn("FRAME_RATE", v, err)
		} else {
			cfg.FrameRate = rate
		}
	}

	if v := getenv("TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			warn("TIMEZONE", v, err)
		} else {
			cfg.Timezone = v
			cfg.Location = loc
		}
	}

	if v := getenv("SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			warn("SESSION_LIFETIME", v, err)
		} else {
			cfg.SessionLifetime = d
		}
	}

	if v := getenv("LOCALE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			warn("LOCALE_CACHE_TTL", v, err)
		} else {
			cfg.LocaleCacheTTL = d
		}
	}

	return cfg, warnings
}
