package sim

import "fmt"

// Rule engine: stateless predicates used by MovementEngine for admission and by
// the violation checker for sensor tolerance. Every function here is pure.

// Band is a closed tolerance interval for one metric.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies inside the band. NaN is never inside.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

func (b Band) String() string {
	return fmt.Sprintf("[%g,%g]", b.Min, b.Max)
}

// intersect narrows b to the overlap with other.
func (b Band) intersect(other Band) Band {
	return Band{Min: max(b.Min, other.Min), Max: min(b.Max, other.Max)}
}

type categoryPair struct{ a, b Category }

func orderedPair(a, b Category) categoryPair {
	if a > b {
		a, b = b, a
	}
	return categoryPair{a, b}
}

// incompatible is the symmetric co-loading table. A category never conflicts with itself.
var incompatible = func() map[categoryPair]bool {
	m := make(map[categoryPair]bool)
	add := func(a Category, others ...Category) {
		for _, b := range others {
			m[orderedPair(a, b)] = true
		}
	}
	add(CatExplosive, CatGas, CatFlammableLiquid, CatFlammableSolid, CatOxidizer,
		CatToxic, CatRadioactive, CatCorrosive, CatMiscHazard, CatEdible, CatMedicinal)
	add(CatOxidizer, CatFlammableLiquid, CatFlammableSolid, CatGas)
	add(CatRadioactive, CatGas, CatFlammableLiquid, CatFlammableSolid, CatOxidizer,
		CatToxic, CatCorrosive, CatMiscHazard, CatEdible, CatMedicinal, CatPerishable)
	add(CatToxic, CatEdible, CatPerishable, CatMedicinal)
	add(CatCorrosive, CatEdible, CatMedicinal, CatFlammableSolid)
	return m
}()

// CategoriesConflict reports whether goods carrying goodsCats may not share a
// truck with goods whose union of categories is onboard.
func CategoriesConflict(goodsCats, onboard CategorySet) bool {
	for a := range goodsCats {
		for b := range onboard {
			if a != b && incompatible[orderedPair(a, b)] {
				return true
			}
		}
	}
	return false
}

// TemperatureCompatible reports whether two temperature ranges overlap.
// Subsumption is a special case of overlap, so every range is compatible with itself.
func TemperatureCompatible(a, b TempRange) bool {
	return a.Min <= b.Max && b.Min <= a.Max
}

// categoryTolerances are the sensor limits implied by each category.
// Categories without an entry impose nothing beyond the temperature band.
var categoryTolerances = map[Category]map[Metric]Band{
	CatFragile: {
		MetricAcceleration:          {0, 10},
		MetricVibrationDisplacement: {0, 500},
		MetricVibrationVelocity:     {0, 500},
	},
	CatPerishable: {
		MetricHumidity: {0, 80},
		MetricOzone:    {0, 5000},
	},
	CatEdible: {
		MetricToxicGas:      {0, 1000},
		MetricSulfurDioxide: {0, 5},
		MetricParticulates:  {0, 5000},
	},
	CatMedicinal: {
		MetricIlluminance: {0, 10000},
		MetricHumidity:    {20, 70},
	},
	CatExplosive: {
		MetricAcceleration:          {0, 5},
		MetricVibrationDisplacement: {0, 200},
		MetricVibrationVelocity:     {0, 200},
	},
	CatOxidizer: {
		MetricOzone: {0, 2000},
	},
	CatToxic: {
		MetricParticulates: {0, 8000},
	},
	CatCorrosive: {
		MetricHumidity: {0, 60},
	},
	CatGas: {
		MetricAcceleration: {0, 20},
	},
}

// TolerancesFor derives the per-metric tolerance bands for goods with the given
// categories and temperature range. Bands from several categories on the same
// metric are intersected.
func TolerancesFor(cats CategorySet, temp TempRange) map[Metric]Band {
	out := map[Metric]Band{
		MetricTemperature: {Min: temp.Min, Max: temp.Max},
	}
	for _, c := range cats.Sorted() {
		for metric, band := range categoryTolerances[c] {
			if cur, ok := out[metric]; ok {
				out[metric] = cur.intersect(band)
			} else {
				out[metric] = band
			}
		}
	}
	return out
}

// Violation describes one reading outside a goods tolerance band.
type Violation struct {
	Metric Metric
	Value  float64
	Band   Band
}

func (v Violation) String() string {
	return fmt.Sprintf("%s=%g outside %s", v.Metric, v.Value, v.Band)
}

// ViolatesSensorTolerance compares the reading against the goods' declared band
// for the reading's metric. It returns an empty result when the reading is
// compliant, when the goods declare no band for the metric, or when the metric
// is unknown.
func ViolatesSensorTolerance(g *Goods, r Reading) []Violation {
	if g == nil {
		return nil
	}
	band, ok := g.Tolerances[r.Metric]
	if !ok || band.Contains(r.Value) {
		return nil
	}
	return []Violation{{Metric: r.Metric, Value: r.Value, Band: band}}
}
