package sim

import (
	"errors"

	"github.com/samber/oops"
)

// Error conditions surfaced by World, MovementEngine and Config.
// Callers match them with errors.Is; the wrapped error carries a code and the
// offending identifier for logging.
var (
	// ErrUnknownEntity: an id that was never registered. Local to the calling sub-step.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNoFeasibleDestination: relocation found no temperature-compatible warehouse
	// within the bounded number of cycles. Recovered by staying at the current warehouse.
	ErrNoFeasibleDestination = errors.New("no feasible destination")

	// ErrNoFeasibleWarehouseAtSetup: goods have no temperature-compatible warehouse.
	// Recovered by placing them in the first created warehouse.
	ErrNoFeasibleWarehouseAtSetup = errors.New("no feasible warehouse at setup")

	// ErrInvalidConfig is the only condition fatal to a whole run.
	ErrInvalidConfig = errors.New("invalid configuration")
)

func unknownEntity(kind, id string) error {
	return oops.
		Code("UNKNOWN_ENTITY").
		With("kind", kind).
		With("id", id).
		Wrapf(ErrUnknownEntity, "%s %q", kind, id)
}

func invalidConfig(format string, args ...any) error {
	return oops.
		Code("INVALID_CONFIG").
		Wrapf(ErrInvalidConfig, format, args...)
}
