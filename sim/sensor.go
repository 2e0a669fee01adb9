package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Metric names a sensor quantity.
type Metric string

const (
	MetricTemperature           Metric = "temperature"
	MetricHumidity              Metric = "humidity"
	MetricIlluminance           Metric = "illuminance"
	MetricAcceleration          Metric = "acceleration"
	MetricVibrationDisplacement Metric = "vibrationDisplacement"
	MetricVibrationVelocity     Metric = "vibrationVelocity"
	MetricOzone                 Metric = "ozone"
	MetricParticulates          Metric = "particulates"
	MetricToxicGas              Metric = "toxicGas"
	MetricSulfurDioxide         Metric = "sulfurDioxide"
	MetricNitrousOxides         Metric = "nitrousOxides"
)

// OriginKind says whether a reading came from a truck or a warehouse.
type OriginKind string

const (
	OriginTruck     OriginKind = "truck"
	OriginWarehouse OriginKind = "warehouse"
)

// TruckMetrics is the fixed truck vocabulary, in emission order.
var TruckMetrics = []Metric{
	MetricTemperature, MetricHumidity, MetricIlluminance,
	MetricAcceleration, MetricVibrationDisplacement, MetricVibrationVelocity,
}

// WarehouseMetrics is the fixed warehouse vocabulary, in emission order.
var WarehouseMetrics = []Metric{
	MetricTemperature, MetricHumidity, MetricIlluminance, MetricOzone,
	MetricParticulates, MetricToxicGas, MetricSulfurDioxide, MetricNitrousOxides,
}

// MetricRanges maps each non-temperature metric to the uniform range its
// values are drawn from. Temperature is drawn from the entity's own range.
type MetricRanges map[Metric]Band

// DefaultMetricRanges returns the stock ranges.
//   - humidity in %RH
//   - illuminance in lux, 100000 being direct sunlight
//   - acceleration in standard gravities
//   - gases in ppb (sulfur dioxide and nitrous oxides in ppm)
func DefaultMetricRanges() MetricRanges {
	return MetricRanges{
		MetricHumidity:              {0, 100},
		MetricIlluminance:           {0, 100000},
		MetricAcceleration:          {0, 100},
		MetricVibrationDisplacement: {0, 1000},
		MetricVibrationVelocity:     {0, 1000},
		MetricOzone:                 {0, 10000},
		MetricParticulates:          {0, 10000},
		MetricToxicGas:              {0, 10000},
		MetricSulfurDioxide:         {0, 10},
		MetricNitrousOxides:         {0, 10},
	}
}

// Merge returns a copy of r with every entry of overrides applied.
func (r MetricRanges) Merge(overrides MetricRanges) MetricRanges {
	out := make(MetricRanges, len(r)+len(overrides))
	for m, b := range r {
		out[m] = b
	}
	for m, b := range overrides {
		out[m] = b
	}
	return out
}

// Reading is one immutable sensor sample.
type Reading struct {
	Tick       int64      `json:"tick"`
	OriginKind OriginKind `json:"originKind"`
	OriginID   string     `json:"originId"`
	Metric     Metric     `json:"metric"`
	Value      float64    `json:"value"`
}

func (r Reading) String() string {
	return fmt.Sprintf("%d, SENSOR %s, %s, %s=%g", r.Tick, r.OriginKind, r.OriginID, r.Metric, r.Value)
}

// SensorGenerator produces one reading per metric per truck and per warehouse
// each tick. It only reads the world.
type SensorGenerator struct {
	world  *World
	ranges MetricRanges
	rng    *rand.Rand
}

// NewSensorGenerator creates a generator drawing from rng. A nil ranges map uses the defaults.
func NewSensorGenerator(world *World, ranges MetricRanges, rng *rand.Rand) *SensorGenerator {
	if ranges == nil {
		ranges = DefaultMetricRanges()
	}
	return &SensorGenerator{world: world, ranges: ranges, rng: rng}
}

// Generate returns the readings for tick: trucks first, then warehouses, each in
// sorted id order and vocabulary order.
func (g *SensorGenerator) Generate(tick int64) []Reading {
	truckIDs := g.world.TruckIDs()
	warehouseIDs := g.world.WarehouseIDs()
	out := make([]Reading, 0, len(truckIDs)*len(TruckMetrics)+len(warehouseIDs)*len(WarehouseMetrics))

	for _, id := range truckIDs {
		t, err := g.world.Truck(id)
		if err != nil {
			continue
		}
		for _, m := range TruckMetrics {
			out = append(out, Reading{Tick: tick, OriginKind: OriginTruck, OriginID: id, Metric: m, Value: g.sample(m, t.Temp)})
		}
	}
	for _, id := range warehouseIDs {
		w, err := g.world.Warehouse(id)
		if err != nil {
			continue
		}
		for _, m := range WarehouseMetrics {
			out = append(out, Reading{Tick: tick, OriginKind: OriginWarehouse, OriginID: id, Metric: m, Value: g.sample(m, w.Temp)})
		}
	}
	return out
}

func (g *SensorGenerator) sample(m Metric, temp TempRange) float64 {
	if m == MetricTemperature {
		return randBetween(g.rng, temp.Min, temp.Max)
	}
	b := g.ranges[m]
	return randBetween(g.rng, b.Min, b.Max)
}

func randBetween(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func sortedMetrics(r MetricRanges) []Metric {
	out := make([]Metric, 0, len(r))
	for m := range r {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
