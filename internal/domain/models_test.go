package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMotorStatus(t *testing.T) {
	for _, s := range []string{"running", "idle", "fault"} {
		got, ok := ParseMotorStatus(s)
		require.True(t, ok, s)
		assert.Equal(t, MotorStatus(s), got)
	}

	_, ok := ParseMotorStatus("RUNNING")
	assert.False(t, ok)
	_, ok = ParseMotorStatus("")
	assert.False(t, ok)
}

func TestMaxProbability(t *testing.T) {
	assert.Equal(t, 0.0, FaultData{}.MaxProbability())

	fd := FaultData{Faults: []Fault{
		{Type: BearingFault, Probability: 12},
		{Type: RotorImbalance, Probability: 71.5},
		{Type: StatorWinding, Probability: 3},
	}}
	assert.Equal(t, 71.5, fd.MaxProbability())
}

func TestSnapshotRecord(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := Snapshot{
		MotorID:     "motor-001",
		Sequence:    7,
		Timestamp:   ts,
		MotorStatus: MotorRunning,
		MotorData:   MotorData{Load: 65, Speed: 1500, Temperature: 42, Efficiency: 87},
		FaultData: FaultData{
			Status: FaultWarning,
			Faults: []Fault{{Type: BearingFault, Probability: 40}, {Type: StatorWinding, Probability: 8}},
		},
	}

	rec, faults := snap.Record()
	assert.Equal(t, "motor-001", rec.MotorID)
	assert.Equal(t, int64(7), rec.Sequence)
	assert.Equal(t, ts, rec.RecordedAt)
	assert.Equal(t, "running", rec.MotorStatus)
	assert.Equal(t, "warning", rec.FaultStatus)
	assert.Equal(t, 1500.0, rec.Speed)
	require.Len(t, faults, 2)
	assert.Equal(t, FaultRecord{FaultType: BearingFault, Probability: 40}, faults[0])
}
