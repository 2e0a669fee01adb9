package sim

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.WarehouseCount())
	assert.Equal(t, 200, cfg.TruckCount())
}

func TestConfig_TruckCount_ExplicitOverridesPerWarehouse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trucks = 7
	assert.Equal(t, 7, cfg.TruckCount())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero warehouses", func(c *Config) { c.GridWidth = 0 }},
		{"negative height", func(c *Config) { c.GridHeight = -1 }},
		{"negative goods", func(c *Config) { c.Goods = -5 }},
		{"negative trucks", func(c *Config) { c.Trucks = -1 }},
		{"negative ticks", func(c *Config) { c.Ticks = -1 }},
		{"probability above one", func(c *Config) { c.LoadProbability = 1.5 }},
		{"probability below zero", func(c *Config) { c.LoadProbability = -0.1 }},
		{"probability NaN", func(c *Config) { c.LoadProbability = math.NaN() }},
		{"negative relocation cycles", func(c *Config) { c.MaxRelocationCycles = -2 }},
		{"inverted range", func(c *Config) { c.MetricRanges = MetricRanges{MetricHumidity: {Min: 50, Max: 10}} }},
		{"unknown metric", func(c *Config) { c.MetricRanges = MetricRanges{"radiation": {Min: 0, Max: 1}} }},
		{"temperature is not configurable", func(c *Config) { c.MetricRanges = MetricRanges{MetricTemperature: {Min: 0, Max: 1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Rules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnforceHazardousRules = true
	cfg.LoadProbability = 0.25
	assert.Equal(t, Rules{
		EnforceHazardous:    true,
		LoadProbability:     0.25,
		MaxRelocationCycles: DefaultMaxRelocationCycles,
	}, cfg.Rules())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kongo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
goods: 50
grid_width: 3
grid_height: 2
ticks: 24
enforce_temperature_rules: true
metric_ranges:
  humidity: {min: 30, max: 60}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Goods)
	assert.Equal(t, 6, cfg.WarehouseCount())
	assert.Equal(t, int64(24), cfg.Ticks)
	assert.True(t, cfg.EnforceTemperatureRules)
	assert.Equal(t, int64(42), cfg.Seed, "unset fields keep defaults")
	assert.True(t, cfg.CheckGoods)
	assert.Equal(t, Band{Min: 30, Max: 60}, cfg.Ranges()[MetricHumidity])
	assert.Equal(t, Band{Min: 0, Max: 10000}, cfg.Ranges()[MetricOzone])
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "goods: 10\ngrid_widht: 3\n")
	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
