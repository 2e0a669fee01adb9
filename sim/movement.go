package sim

import (
	"errors"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim/trace"
)

// DefaultMaxRelocationCycles bounds how many passes over the shuffled warehouse
// list a truck may make before staying where it is.
const DefaultMaxRelocationCycles = 3

// Rules toggles the admission checks and holds the movement parameters.
type Rules struct {
	EnforceTemperature  bool
	EnforceHazardous    bool
	LoadProbability     float64 // chance each warehoused goods item attempts a load per tick
	MaxRelocationCycles int     // <= 0 uses DefaultMaxRelocationCycles
}

// MovementEngine advances a World by one tick: unload, load, relocate.
// It is not safe for concurrent use; one goroutine drives it tick by tick.
type MovementEngine struct {
	world    *World
	rules    Rules
	loadRNG  *rand.Rand
	relocRNG *rand.Rand
	trace    *trace.SimulationTrace
}

// NewMovementEngine creates an engine drawing from the load and relocation
// subsystems of rng. tr may be nil.
func NewMovementEngine(world *World, rules Rules, rng *PartitionedRNG, tr *trace.SimulationTrace) *MovementEngine {
	if rules.MaxRelocationCycles <= 0 {
		rules.MaxRelocationCycles = DefaultMaxRelocationCycles
	}
	return &MovementEngine{
		world:    world,
		rules:    rules,
		loadRNG:  rng.ForSubsystem(SubsystemLoad),
		relocRNG: rng.ForSubsystem(SubsystemRelocation),
		trace:    tr,
	}
}

// Step runs the three movement phases for tick in their fixed order and
// returns the events they produced, in emission order.
func (m *MovementEngine) Step(tick int64) []MovementEvent {
	events := m.unload(tick, nil)
	events = m.load(tick, events)
	return m.relocate(tick, events)
}

// unload moves every goods item on a truck into the warehouse the truck docks
// at. Trucks end the phase empty, so every onboard aggregate is empty too.
func (m *MovementEngine) unload(tick int64, events []MovementEvent) []MovementEvent {
	for _, goodsID := range m.world.GoodsOnTrucks() {
		loc, err := m.world.LocationOf(goodsID)
		if err != nil {
			logrus.WithError(err).Warnf("[tick %d] unload skipped for %s", tick, goodsID)
			continue
		}
		dock, err := m.world.WarehouseOf(loc.ID)
		if err != nil {
			logrus.WithError(err).Warnf("[tick %d] unload skipped for %s", tick, goodsID)
			continue
		}
		if err := m.world.AssignGoodsToWarehouse(goodsID, dock); err != nil {
			logrus.WithError(err).Warnf("[tick %d] unload skipped for %s", tick, goodsID)
			continue
		}
		ev := MovementEvent{Tick: tick, Kind: Unload, GoodsID: goodsID, TruckID: loc.ID, WarehouseID: dock}
		logrus.Debug(ev)
		events = append(events, ev)
	}
	return events
}

// load gives each warehoused goods item an independent chance to board one
// truck picked uniformly among those docked at its warehouse.
func (m *MovementEngine) load(tick int64, events []MovementEvent) []MovementEvent {
	for _, goodsID := range m.world.GoodsInWarehouses() {
		if m.loadRNG.Float64() >= m.rules.LoadProbability {
			continue
		}
		ev, rec, err := m.tryLoad(tick, goodsID)
		if err != nil {
			logrus.WithError(err).Warnf("[tick %d] load skipped for %s", tick, goodsID)
			rec.Reason = trace.ReasonUnknownError
		}
		if m.trace.Enabled() {
			m.trace.RecordLoad(rec)
		}
		if rec.Admitted {
			logrus.Debug(ev)
			events = append(events, ev)
		}
	}
	return events
}

func (m *MovementEngine) tryLoad(tick int64, goodsID string) (MovementEvent, trace.LoadRecord, error) {
	rec := trace.LoadRecord{Tick: tick, GoodsID: goodsID}

	loc, err := m.world.LocationOf(goodsID)
	if err != nil {
		return MovementEvent{}, rec, err
	}
	rec.WarehouseID = loc.ID

	truckID, ok := chooseUniform(m.loadRNG, m.world.TrucksAt(loc.ID))
	if !ok {
		rec.Reason = trace.ReasonNoTruck
		return MovementEvent{}, rec, nil
	}
	rec.TruckID = truckID

	g, err := m.world.Goods(goodsID)
	if err != nil {
		return MovementEvent{}, rec, err
	}
	truck, err := m.world.Truck(truckID)
	if err != nil {
		return MovementEvent{}, rec, err
	}
	onboard, err := m.world.OnboardCategories(truckID)
	if err != nil {
		return MovementEvent{}, rec, err
	}

	if m.rules.EnforceHazardous && CategoriesConflict(g.Categories, onboard) {
		logrus.Debugf("[tick %d] goods %s %s NOT allowed on %s carrying %s", tick, goodsID, g.Categories, truckID, onboard)
		rec.Reason = trace.ReasonHazardous
		return MovementEvent{}, rec, nil
	}
	if m.rules.EnforceTemperature && !TemperatureCompatible(g.Temp, truck.Temp) {
		logrus.Debugf("[tick %d] goods %s temp %s NOT allowed on %s temp %s", tick, goodsID, g.Temp, truckID, truck.Temp)
		rec.Reason = trace.ReasonTemperature
		return MovementEvent{}, rec, nil
	}

	if err := m.world.AssignGoodsToTruck(goodsID, truckID); err != nil {
		return MovementEvent{}, rec, err
	}
	rec.Admitted = true
	rec.Reason = trace.ReasonAdmitted
	return MovementEvent{Tick: tick, Kind: Load, GoodsID: goodsID, TruckID: truckID, WarehouseID: loc.ID}, rec, nil
}

// relocate sends every truck to the next acceptable warehouse of a shuffled
// cycle shared by all trucks this tick. The cycle wraps around when exhausted.
func (m *MovementEngine) relocate(tick int64, events []MovementEvent) []MovementEvent {
	cycle := m.world.WarehouseIDs()
	if len(cycle) == 0 {
		return events
	}
	m.relocRNG.Shuffle(len(cycle), func(i, j int) { cycle[i], cycle[j] = cycle[j], cycle[i] })

	cursor := 0
	for _, truckID := range m.world.TruckIDs() {
		from, err := m.world.WarehouseOf(truckID)
		if err != nil {
			logrus.WithError(err).Warnf("[tick %d] relocation skipped for %s", tick, truckID)
			continue
		}
		truck, err := m.world.Truck(truckID)
		if err != nil {
			logrus.WithError(err).Warnf("[tick %d] relocation skipped for %s", tick, truckID)
			continue
		}

		dest, draws, err := m.nextDestination(truck, cycle, &cursor)
		fallback := errors.Is(err, ErrNoFeasibleDestination)
		if fallback {
			logrus.WithError(err).Warnf("[tick %d] truck %s temp %s stays at %s", tick, truckID, truck.Temp, from)
			dest = from
		}
		if err := m.world.MoveTruck(truckID, dest); err != nil {
			logrus.WithError(err).Warnf("[tick %d] relocation skipped for %s", tick, truckID)
			continue
		}
		if m.trace.Enabled() {
			m.trace.RecordRelocation(trace.RelocationRecord{
				Tick: tick, TruckID: truckID, From: from, To: dest, Candidates: draws, Fallback: fallback,
			})
		}
		ev := MovementEvent{Tick: tick, Kind: Move, TruckID: truckID, WarehouseID: dest, FromWarehouseID: from}
		logrus.Debug(ev)
		events = append(events, ev)
	}
	return events
}

// nextDestination draws from the cycle until a warehouse passes the temperature
// rule, giving up after MaxRelocationCycles full passes.
func (m *MovementEngine) nextDestination(truck *Truck, cycle []string, cursor *int) (string, int, error) {
	limit := len(cycle) * m.rules.MaxRelocationCycles
	for draws := 1; draws <= limit; draws++ {
		candidate := cycle[*cursor]
		*cursor = (*cursor + 1) % len(cycle)
		if !m.rules.EnforceTemperature {
			return candidate, draws, nil
		}
		wh, err := m.world.Warehouse(candidate)
		if err != nil {
			continue
		}
		if TemperatureCompatible(truck.Temp, wh.Temp) {
			return candidate, draws, nil
		}
	}
	return "", limit, ErrNoFeasibleDestination
}
