// Package trace provides decision-trace recording for movement analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Rejection reasons recorded on LoadRecord.
const (
	ReasonAdmitted     = "admitted"
	ReasonHazardous    = "hazardous-conflict"
	ReasonTemperature  = "temperature-incompatible"
	ReasonNoTruck      = "no-truck-docked"
	ReasonUnknownError = "unknown-entity"
)

// LoadRecord captures a single load admission decision.
type LoadRecord struct {
	Tick        int64
	GoodsID     string
	TruckID     string // empty when no truck was docked
	WarehouseID string
	Admitted    bool
	Reason      string
}

// RelocationRecord captures a single truck destination choice.
type RelocationRecord struct {
	Tick       int64
	TruckID    string
	From       string
	To         string
	Candidates int  // candidates drawn from the shuffled cycle, including the chosen one
	Fallback   bool // true when no compatible warehouse was found and the truck stayed put
}
