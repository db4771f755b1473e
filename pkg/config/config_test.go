package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int      `env:"TEST_CFG_PORT" envDefault:"8080"`
	Backend  string   `env:"TEST_CFG_BACKEND" envDefault:"memory"`
	LogLevel string   `env:"TEST_CFG_LOG_LEVEL" envDefault:"info"`
	Brokers  []string `env:"TEST_CFG_BROKERS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_BACKEND", "redis")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type requiredConfig struct {
	DSN string `env:"TEST_CFG_DSN,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_WithVars(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg, WithVars(map[string]string{
		"TEST_CFG_PORT":    "7000",
		"TEST_CFG_BACKEND": "postgres",
	})))

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_WithPrefix(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg, WithPrefix("SHOP_"), WithVars(map[string]string{
		"SHOP_TEST_CFG_PORT": "7100",
		"TEST_CFG_PORT":      "1",
	})))

	assert.Equal(t, 7100, cfg.Port)
}
