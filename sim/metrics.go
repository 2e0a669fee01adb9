// Tracks simulation-wide totals such as movement events, readings and routing failures.

package sim

import (
	"fmt"
	"time"
)

// Metrics aggregates statistics about a run for final reporting.
type Metrics struct {
	Ticks           int64 // ticks completed
	Loads           int   // LOAD events
	Unloads         int   // UNLOAD events
	Moves           int   // MOVE events
	Readings        int   // readings generated
	RoutingFailures int   // readings the publisher rejected

	Duration time.Duration // wall-clock time spent in Run
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordEvents(events []MovementEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case Load:
			m.Loads++
		case Unload:
			m.Unloads++
		case Move:
			m.Moves++
		}
	}
}

// Events is the total number of simulated events: movements plus readings.
func (m *Metrics) Events() int {
	return m.Loads + m.Unloads + m.Moves + m.Readings
}

// EventsPerSecond is the wall-clock event throughput, or 0 before Run completes.
func (m *Metrics) EventsPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return float64(m.Events()) / m.Duration.Seconds()
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Ticks                : %d\n", m.Ticks)
	fmt.Printf("Loads                : %d\n", m.Loads)
	fmt.Printf("Unloads              : %d\n", m.Unloads)
	fmt.Printf("Truck Moves          : %d\n", m.Moves)
	fmt.Printf("Sensor Readings      : %d\n", m.Readings)
	fmt.Printf("Routing Failures     : %d\n", m.RoutingFailures)
	fmt.Printf("Total Events         : %d\n", m.Events())
	if m.Duration > 0 {
		fmt.Printf("Wall Time            : %s\n", m.Duration)
		fmt.Printf("Events/s             : %.2f\n", m.EventsPerSecond())
	}
}
