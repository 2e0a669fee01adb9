package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	summary := Summarize(NewSimulationTrace(TraceLevelDecisions))

	assert.Zero(t, summary.LoadAttempts)
	assert.Zero(t, summary.AdmittedCount)
	assert.Zero(t, summary.RejectedCount)
	assert.Zero(t, summary.Relocations)
	assert.Zero(t, summary.MeanCandidates)
	assert.Empty(t, summary.DestinationCounts)
	assert.Empty(t, summary.RejectionReasons)
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	assert.NotNil(t, summary.DestinationCounts)
	assert.Zero(t, summary.LoadAttempts)
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed load and relocation records
	st := NewSimulationTrace(TraceLevelDecisions)
	st.RecordLoad(LoadRecord{GoodsID: "g1", Admitted: true, Reason: ReasonAdmitted})
	st.RecordLoad(LoadRecord{GoodsID: "g2", Admitted: false, Reason: ReasonHazardous})
	st.RecordLoad(LoadRecord{GoodsID: "g3", Admitted: false, Reason: ReasonTemperature})
	st.RecordLoad(LoadRecord{GoodsID: "g4", Admitted: false, Reason: ReasonHazardous})
	st.RecordRelocation(RelocationRecord{TruckID: "t1", To: "w1", Candidates: 1})
	st.RecordRelocation(RelocationRecord{TruckID: "t2", To: "w2", Candidates: 3})
	st.RecordRelocation(RelocationRecord{TruckID: "t3", To: "w1", Candidates: 8, Fallback: true})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	assert.Equal(t, 4, summary.LoadAttempts)
	assert.Equal(t, 1, summary.AdmittedCount)
	assert.Equal(t, 3, summary.RejectedCount)
	assert.Equal(t, map[string]int{ReasonHazardous: 2, ReasonTemperature: 1}, summary.RejectionReasons)
	assert.Equal(t, 3, summary.Relocations)
	assert.Equal(t, 1, summary.Fallbacks)
	assert.InDelta(t, 4.0, summary.MeanCandidates, 1e-9)
	assert.Equal(t, 2, summary.UniqueDestinations)
	assert.Equal(t, 2, summary.DestinationCounts["w1"])
}
