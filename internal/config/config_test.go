package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"DATABASE_URL", "CORS_ORIGINS", "PORT", "SESSION_SECRET", "TICK_HZ",
		"DISASTER_TICK_HZ", "CONSTRUCTION_BATCH_INTERVAL_MS", "METADATA_CACHE_TTL_S", "NODE_ENV",
	}
	for _, v := range vars {
		if prev, had := os.LookupEnv(v); had {
			os.Unsetenv(v)
			t.Cleanup(func() { os.Setenv(v, prev) })
		}
	}
}

func TestLoadFallsBackToDefaultsWhenUnset(t *testing.T) {
	clearConfigEnv(t)
	cfg := Load()
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesEachOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "custom.db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "4000")
	t.Setenv("TICK_HZ", "2")
	t.Setenv("NODE_ENV", "test")

	cfg := Load()
	assert.Equal(t, "custom.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 2.0, cfg.TickHz)
	assert.True(t, cfg.IsTest())
}

func TestLoadIgnoresInvalidNumericOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TICK_HZ", "not-a-number")
	cfg := Load()
	assert.Equal(t, Default().TickHz, cfg.TickHz)
}

func TestTickIntervalDerivesFromTickHz(t *testing.T) {
	cfg := Default()
	cfg.TickHz = 2
	require.Equal(t, 500*time.Millisecond, cfg.TickInterval())
}

func TestIsTestOnlyTrueForTestEnv(t *testing.T) {
	cfg := Default()
	cfg.Env = "test"
	assert.True(t, cfg.IsTest())
	cfg.Env = "production"
	assert.False(t, cfg.IsTest())
}
