package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorGenerator_VocabularyAndOrder(t *testing.T) {
	w := testWorld(t)
	gen := NewSensorGenerator(w, nil, rand.New(rand.NewSource(1)))

	readings := gen.Generate(5)
	require.Len(t, readings, 2*len(TruckMetrics)+2*len(WarehouseMetrics))

	i := 0
	for _, truckID := range []string{"T1", "T2"} {
		for _, m := range TruckMetrics {
			r := readings[i]
			assert.Equal(t, Reading{Tick: 5, OriginKind: OriginTruck, OriginID: truckID, Metric: m, Value: r.Value}, r)
			i++
		}
	}
	for _, whID := range []string{"W1", "W2"} {
		for _, m := range WarehouseMetrics {
			r := readings[i]
			assert.Equal(t, Reading{Tick: 5, OriginKind: OriginWarehouse, OriginID: whID, Metric: m, Value: r.Value}, r)
			i++
		}
	}
}

func TestSensorGenerator_ValuesWithinRanges(t *testing.T) {
	w := testWorld(t)
	ranges := DefaultMetricRanges()
	gen := NewSensorGenerator(w, ranges, rand.New(rand.NewSource(9)))

	for tick := int64(1); tick <= 50; tick++ {
		for _, r := range gen.Generate(tick) {
			if r.Metric == MetricTemperature {
				var want TempRange
				switch r.OriginID {
				case "T1", "W1":
					want = ambientRange
				default:
					want = chilledRange
				}
				if !want.Contains(r.Value) {
					t.Errorf("%s temperature %g outside %s", r.OriginID, r.Value, want)
				}
				continue
			}
			if !ranges[r.Metric].Contains(r.Value) {
				t.Errorf("%s outside %s", r, ranges[r.Metric])
			}
		}
	}
}

func TestSensorGenerator_DoesNotMutateWorld(t *testing.T) {
	w := testWorld(t)
	require.NoError(t, w.RegisterGoods(NewGoods("G1", ambientRange), "T1"))
	before := w.Snapshot(0)

	NewSensorGenerator(w, nil, rand.New(rand.NewSource(2))).Generate(1)

	after := w.Snapshot(0)
	assert.Equal(t, before, after)
}

func TestSensorGenerator_SameSeedSameReadings(t *testing.T) {
	w := testWorld(t)
	a := NewSensorGenerator(w, nil, rand.New(rand.NewSource(11))).Generate(1)
	b := NewSensorGenerator(w, nil, rand.New(rand.NewSource(11))).Generate(1)
	assert.Equal(t, a, b)
}

func TestMetricRanges_Merge(t *testing.T) {
	base := DefaultMetricRanges()
	merged := base.Merge(MetricRanges{MetricHumidity: {Min: 10, Max: 20}})
	assert.Equal(t, Band{Min: 10, Max: 20}, merged[MetricHumidity])
	assert.Equal(t, Band{Min: 0, Max: 100}, base[MetricHumidity], "Merge must not modify the receiver")
	assert.Equal(t, base[MetricOzone], merged[MetricOzone])
}
