// Package config loads process configuration from the environment into a
// single typed struct instead of scattered os.Getenv calls.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full set of environment-driven knobs the server reads at
// startup.
type Config struct {
	DatabaseURL                 string
	CORSOrigins                 []string
	Port                        string
	SessionSecret               string
	TickHz                      float64
	DisasterTickHz              float64
	ConstructionBatchInterval   time.Duration
	MetadataCacheTTL            time.Duration
	Env                         string
}

// Default returns the documented defaults for every knob.
func Default() Config {
	return Config{
		DatabaseURL:               "settlements.db",
		CORSOrigins:               []string{"http://localhost:3000"},
		Port:                      "3001",
		SessionSecret:             "dev-secret-change-me",
		TickHz:                    1,
		DisasterTickHz:            6,
		ConstructionBatchInterval: 1000 * time.Millisecond,
		MetadataCacheTTL:          300 * time.Second,
		Env:                       "development",
	}
}

// Load reads the environment into a Config, falling back to Default()'s
// values for anything unset.
func Load() Config {
	cfg := Default()

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("TICK_HZ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.TickHz = f
		}
	}
	if v := os.Getenv("DISASTER_TICK_HZ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.DisasterTickHz = f
		}
	}
	if v := os.Getenv("CONSTRUCTION_BATCH_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ConstructionBatchInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("METADATA_CACHE_TTL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MetadataCacheTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Env = v
	}

	return cfg
}

// IsTest reports whether the `/test/*` admin surface should be mounted.
func (c Config) IsTest() bool {
	return c.Env == "test"
}

// TickInterval is the economic tick period derived from TickHz.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickHz)
}

// DisasterTickInterval is the period derived from DisasterTickHz. The game
// loop does not read it: disasters advance on the ordinary TickInterval.
func (c Config) DisasterTickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.DisasterTickHz)
}
