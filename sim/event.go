package sim

import "fmt"

// MovementKind classifies a MovementEvent.
type MovementKind string

const (
	// Unload: goods moved from a truck to the warehouse it docks at (an RFID read).
	Unload MovementKind = "UNLOAD"
	// Load: goods moved from a warehouse onto a docked truck (an RFID read).
	Load MovementKind = "LOAD"
	// Move: a truck left FromWarehouseID for WarehouseID.
	Move MovementKind = "MOVE"
)

// MovementEvent is the structured record of one state change made by MovementEngine.
// GoodsID is empty for Move events.
type MovementEvent struct {
	Tick            int64
	Kind            MovementKind
	GoodsID         string
	TruckID         string
	WarehouseID     string
	FromWarehouseID string
}

func (e MovementEvent) String() string {
	switch e.Kind {
	case Unload:
		return fmt.Sprintf("%d RFID %s: UNLOAD %s from %s", e.Tick, e.WarehouseID, e.GoodsID, e.TruckID)
	case Load:
		return fmt.Sprintf("%d RFID %s: LOAD %s onto %s", e.Tick, e.WarehouseID, e.GoodsID, e.TruckID)
	default:
		return fmt.Sprintf("%d Truck %s moving from %s to %s", e.Tick, e.TruckID, e.FromWarehouseID, e.WarehouseID)
	}
}
