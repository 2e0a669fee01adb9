package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	LoadAttempts       int
	AdmittedCount      int
	RejectedCount      int
	RejectionReasons   map[string]int // reason → count of rejected loads
	Relocations        int
	Fallbacks          int
	MeanCandidates     float64 // mean cycle draws per relocation
	UniqueDestinations int
	DestinationCounts  map[string]int // warehouse ID → number of arrivals
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RejectionReasons:  make(map[string]int),
		DestinationCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.LoadAttempts = len(st.Loads)
	for _, l := range st.Loads {
		if l.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
			summary.RejectionReasons[l.Reason]++
		}
	}

	summary.Relocations = len(st.Relocations)
	if len(st.Relocations) > 0 {
		total := 0
		for _, r := range st.Relocations {
			summary.DestinationCounts[r.To]++
			total += r.Candidates
			if r.Fallback {
				summary.Fallbacks++
			}
		}
		summary.MeanCandidates = float64(total) / float64(len(st.Relocations))
	}

	summary.UniqueDestinations = len(summary.DestinationCounts)

	return summary
}
