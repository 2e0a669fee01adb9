// sim/simulator.go
package sim

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim/trace"
)

// Publisher accepts readings for delivery to per-location consumers.
// Implementations must not block; an error means the reading was dropped.
type Publisher interface {
	Publish(r Reading) error
}

// Simulator owns the tick loop. Each tick runs the movement phases, publishes
// the resulting occupancy snapshot, then generates and publishes readings.
type Simulator struct {
	Clock   int64
	Horizon int64
	Metrics *Metrics

	world     *World
	movement  *MovementEngine
	sensors   *SensorGenerator
	publisher Publisher

	// latest is written only by the tick goroutine and read by consumers.
	latest atomic.Pointer[Snapshot]
}

// NewSimulator validates cfg and wires the engines around world. publisher and
// tr may be nil. The initial occupancy is visible through View before the first tick.
func NewSimulator(cfg Config, world *World, rng *PartitionedRNG, publisher Publisher, tr *trace.SimulationTrace) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		Horizon:   cfg.Ticks,
		Metrics:   NewMetrics(),
		world:     world,
		movement:  NewMovementEngine(world, cfg.Rules(), rng, tr),
		sensors:   NewSensorGenerator(world, cfg.Ranges(), rng.ForSubsystem(SubsystemSensor)),
		publisher: publisher,
	}
	s.latest.Store(world.Snapshot(0))
	return s, nil
}

// World returns the simulated world.
func (s *Simulator) World() *World { return s.world }

// View returns the most recently published occupancy snapshot.
func (s *Simulator) View() *Snapshot { return s.latest.Load() }

// GoodsAt answers from the most recently published snapshot, so it reflects
// occupancy at the time of the call rather than at the time a reading was made.
func (s *Simulator) GoodsAt(locationID string) ([]*Goods, error) {
	return s.View().GoodsAt(locationID)
}

// Step executes one tick and returns the movement events and the readings it produced.
func (s *Simulator) Step(tick int64) ([]MovementEvent, []Reading) {
	s.Clock = tick
	events := s.movement.Step(tick)
	s.Metrics.recordEvents(events)

	s.latest.Store(s.world.Snapshot(tick))

	readings := s.sensors.Generate(tick)
	for _, r := range readings {
		s.Metrics.Readings++
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(r); err != nil {
			s.Metrics.RoutingFailures++
			logrus.WithError(err).WithField("location", r.OriginID).Warnf("[tick %d] routing failure", tick)
		}
	}
	return events, readings
}

// Run executes ticks 1..Horizon. It returns ctx.Err() if cancelled between ticks.
func (s *Simulator) Run(ctx context.Context) error {
	start := time.Now()
	defer func() { s.Metrics.Duration = time.Since(start) }()

	logrus.Infof("Simulation started: %d trucks, %d warehouses, %d goods, %d ticks",
		len(s.world.TruckIDs()), len(s.world.WarehouseIDs()), len(s.world.GoodsIDs()), s.Horizon)
	for tick := int64(1); tick <= s.Horizon; tick++ {
		if err := ctx.Err(); err != nil {
			logrus.Infof("[tick %d] Simulation cancelled", tick)
			return err
		}
		logrus.Debugf("[tick %d] hour %d", tick, tick)
		s.Step(tick)
		s.Metrics.Ticks = tick
	}
	logrus.Infof("[tick %d] Simulation ended", s.Clock)
	return nil
}
