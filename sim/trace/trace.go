package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every load admission and truck relocation.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects decision records during a run.
type SimulationTrace struct {
	Level       TraceLevel
	Loads       []LoadRecord
	Relocations []RelocationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:       level,
		Loads:       make([]LoadRecord, 0),
		Relocations: make([]RelocationRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Level == TraceLevelDecisions
}

// RecordLoad appends a load admission record.
func (st *SimulationTrace) RecordLoad(record LoadRecord) {
	st.Loads = append(st.Loads, record)
}

// RecordRelocation appends a relocation record.
func (st *SimulationTrace) RecordRelocation(record RelocationRecord) {
	st.Relocations = append(st.Relocations, record)
}
