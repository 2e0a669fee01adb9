package sim

import (
	"bytes"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of run parameters. It can be loaded from a YAML file
// and is then overridden field by field by explicitly set CLI flags.
type Config struct {
	Goods                   int          `yaml:"goods"`                     // goods items created at setup
	GridWidth               int          `yaml:"grid_width"`                // warehouses per row
	GridHeight              int          `yaml:"grid_height"`               // warehouse rows
	TrucksPerWarehouse      int          `yaml:"trucks_per_warehouse"`      // used when Trucks is 0
	Trucks                  int          `yaml:"trucks"`                    // total trucks; 0 = TrucksPerWarehouse × warehouses
	Ticks                   int64        `yaml:"ticks"`                     // simulated hours
	Seed                    int64        `yaml:"seed"`                      // master seed for PartitionedRNG
	LoadProbability         float64      `yaml:"load_probability"`          // per-goods, per-tick load attempt chance
	MaxRelocationCycles     int          `yaml:"max_relocation_cycles"`     // passes over the warehouse cycle before a truck stays put
	EnforceTemperatureRules bool         `yaml:"enforce_temperature_rules"` // placement, load and relocation respect temperature overlap
	EnforceHazardousRules   bool         `yaml:"enforce_hazardous_rules"`   // load respects the co-loading table
	CheckGoods              bool         `yaml:"check_goods"`               // run violation checkers
	MetricRanges            MetricRanges `yaml:"metric_ranges"`             // overrides for DefaultMetricRanges
}

// DefaultConfig returns the stock configuration: a 10×10 grid with two trucks
// per warehouse, 1000 goods, ten ticks and the rule checks switched off.
func DefaultConfig() Config {
	return Config{
		Goods:               1000,
		GridWidth:           10,
		GridHeight:          10,
		TrucksPerWarehouse:  2,
		Ticks:               10,
		Seed:                42,
		LoadProbability:     0.5,
		MaxRelocationCycles: DefaultMaxRelocationCycles,
		CheckGoods:          true,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, invalidConfig("reading %s: %v", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, invalidConfig("parsing %s: %v", path, err)
	}
	return cfg, nil
}

// WarehouseCount is the number of grid cells.
func (c Config) WarehouseCount() int {
	return c.GridWidth * c.GridHeight
}

// TruckCount resolves the total number of trucks.
func (c Config) TruckCount() int {
	if c.Trucks > 0 {
		return c.Trucks
	}
	return c.TrucksPerWarehouse * c.WarehouseCount()
}

// Rules extracts the movement parameters.
func (c Config) Rules() Rules {
	return Rules{
		EnforceTemperature:  c.EnforceTemperatureRules,
		EnforceHazardous:    c.EnforceHazardousRules,
		LoadProbability:     c.LoadProbability,
		MaxRelocationCycles: c.MaxRelocationCycles,
	}
}

// Ranges returns the effective sensor ranges: defaults with overrides applied.
func (c Config) Ranges() MetricRanges {
	return DefaultMetricRanges().Merge(c.MetricRanges)
}

// Validate rejects configurations the simulation cannot run with. Every error
// wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return invalidConfig("grid must have at least one warehouse, got %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.Goods < 0 {
		return invalidConfig("goods must be non-negative, got %d", c.Goods)
	}
	if c.Trucks < 0 || c.TrucksPerWarehouse < 0 {
		return invalidConfig("truck counts must be non-negative, got trucks=%d trucks_per_warehouse=%d", c.Trucks, c.TrucksPerWarehouse)
	}
	if c.Ticks < 0 {
		return invalidConfig("ticks must be non-negative, got %d", c.Ticks)
	}
	if math.IsNaN(c.LoadProbability) || c.LoadProbability < 0 || c.LoadProbability > 1 {
		return invalidConfig("load_probability must be in [0,1], got %f", c.LoadProbability)
	}
	if c.MaxRelocationCycles < 0 {
		return invalidConfig("max_relocation_cycles must be non-negative, got %d", c.MaxRelocationCycles)
	}
	for _, m := range sortedMetrics(c.MetricRanges) {
		b := c.MetricRanges[m]
		if !isRangedMetric(m) {
			return invalidConfig("metric_ranges: unknown metric %q", m)
		}
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
			return invalidConfig("metric_ranges.%s: invalid range %s", m, b)
		}
	}
	return nil
}

// isRangedMetric reports whether m is drawn from a configurable range.
// Temperature always follows the entity's control range.
func isRangedMetric(m Metric) bool {
	_, ok := DefaultMetricRanges()[m]
	return ok
}
