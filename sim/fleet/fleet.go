// Package fleet builds a populated sim.World from a sim.Config: warehouses on
// a grid, trucks spread across them, and goods with random categories placed
// by the setup placement rule.
package fleet

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim"
)

// hazardProbability is the chance a generated goods item carries a hazard class.
const hazardProbability = 0.2

// maxHandlingClasses caps the handling classes drawn per goods item.
const maxHandlingClasses = 2

// Build creates the world for cfg. Deterministic given the same config and seed.
func Build(cfg sim.Config, rng *sim.PartitionedRNG) (*sim.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fleetRNG := rng.ForSubsystem(sim.SubsystemFleet)
	w := sim.NewWorld()

	warehouses, err := buildWarehouses(w, cfg, fleetRNG)
	if err != nil {
		return nil, err
	}
	if err := buildTrucks(w, cfg, warehouses, fleetRNG); err != nil {
		return nil, err
	}

	fallbacks := 0
	for i := 0; i < cfg.Goods; i++ {
		g, err := newGoods(fleetRNG)
		if err != nil {
			return nil, err
		}
		id, fallback, err := w.PlaceGoods(g, cfg.EnforceTemperatureRules, fleetRNG)
		if err != nil {
			return nil, fmt.Errorf("placing goods %s: %w", g.ID, err)
		}
		if fallback {
			fallbacks++
			logrus.WithError(sim.ErrNoFeasibleWarehouseAtSetup).
				Warnf("goods %s temp %s placed in default warehouse %s", g.ID, g.Temp, id)
		}
	}

	logrus.Infof("Fleet built: %d warehouses, %d trucks, %d goods (%d placement fallbacks)",
		len(warehouses), cfg.TruckCount(), cfg.Goods, fallbacks)
	return w, nil
}

// newID draws a UUID from rng so ids are reproducible under a fixed seed.
func newID(prefix string, rng *rand.Rand) (string, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", fmt.Errorf("generating %s id: %w", prefix, err)
	}
	return prefix + "-" + id.String(), nil
}

// buildWarehouses lays warehouses out row by row, cycling through the
// temperature classes so each class is present once the grid has three cells.
func buildWarehouses(w *sim.World, cfg sim.Config, rng *rand.Rand) ([]*sim.Warehouse, error) {
	out := make([]*sim.Warehouse, 0, cfg.WarehouseCount())
	for y := 0; y < cfg.GridHeight; y++ {
		for x := 0; x < cfg.GridWidth; x++ {
			id, err := newID("warehouse", rng)
			if err != nil {
				return nil, err
			}
			class := sim.TemperatureClasses[len(out)%len(sim.TemperatureClasses)]
			temp, _ := sim.RangeForClass(class)
			wh := &sim.Warehouse{ID: id, X: x, Y: y, Temp: temp}
			if err := w.RegisterWarehouse(wh); err != nil {
				return nil, fmt.Errorf("registering warehouse: %w", err)
			}
			out = append(out, wh)
		}
	}
	return out, nil
}

// buildTrucks docks trucks round-robin across warehouses. Each truck takes the
// temperature control of the warehouse it starts at.
func buildTrucks(w *sim.World, cfg sim.Config, warehouses []*sim.Warehouse, rng *rand.Rand) error {
	for i := 0; i < cfg.TruckCount(); i++ {
		id, err := newID("truck", rng)
		if err != nil {
			return err
		}
		dock := warehouses[i%len(warehouses)]
		if err := w.RegisterTruck(&sim.Truck{ID: id, Temp: dock.Temp}, dock.ID); err != nil {
			return fmt.Errorf("registering truck: %w", err)
		}
	}
	return nil
}

// newGoods draws a temperature class, an optional hazard class and up to
// maxHandlingClasses handling classes that do not conflict with the hazard.
func newGoods(rng *rand.Rand) (*sim.Goods, error) {
	id, err := newID("goods", rng)
	if err != nil {
		return nil, err
	}
	class := sim.TemperatureClasses[rng.Intn(len(sim.TemperatureClasses))]
	temp, _ := sim.RangeForClass(class)

	cats := sim.NewCategorySet(class)
	if rng.Float64() < hazardProbability {
		cats.Add(sim.NewCategorySet(sim.HazardCategories[rng.Intn(len(sim.HazardCategories))]))
	}
	n := rng.Intn(maxHandlingClasses + 1)
	for i := 0; i < n; i++ {
		h := sim.HandlingCategories[rng.Intn(len(sim.HandlingCategories))]
		if sim.CategoriesConflict(sim.NewCategorySet(h), cats) {
			continue
		}
		cats.Add(sim.NewCategorySet(h))
	}
	return sim.NewGoods(id, temp, cats.Sorted()...), nil
}

