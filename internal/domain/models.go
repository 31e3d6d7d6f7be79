package domain

import "time"

type MotorStatus string

const (
	MotorRunning MotorStatus = "running"
	MotorIdle    MotorStatus = "idle"
	MotorFault   MotorStatus = "fault"
)

// ParseMotorStatus accepts exactly the three enumerated statuses.
func ParseMotorStatus(s string) (MotorStatus, bool) {
	switch MotorStatus(s) {
	case MotorRunning, MotorIdle, MotorFault:
		return MotorStatus(s), true
	}
	return "", false
}

type FaultStatus string

const (
	FaultHealthy  FaultStatus = "healthy"
	FaultWarning  FaultStatus = "warning"
	FaultCritical FaultStatus = "critical"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Fault type names, in the order the simulator holds them.
const (
	BearingFault     = "Bearing Fault"
	StatorWinding    = "Stator Winding"
	RotorImbalance   = "Rotor Imbalance"
	VoltageImbalance = "Voltage Imbalance"
)

type MotorData struct {
	Load        float64 `json:"load"`
	Speed       float64 `json:"speed"`
	Temperature float64 `json:"temperature"`
	Efficiency  float64 `json:"efficiency"`
}

type SensorPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// SensorData holds one sliding window per monitored channel.
type SensorData struct {
	Current     []SensorPoint `json:"current"`
	Voltage     []SensorPoint `json:"voltage"`
	Temperature []SensorPoint `json:"temperature"`
	Vibration   []SensorPoint `json:"vibration"`
}

// Channels returns the windows keyed by channel name.
func (s SensorData) Channels() map[string][]SensorPoint {
	return map[string][]SensorPoint{
		"current":     s.Current,
		"voltage":     s.Voltage,
		"temperature": s.Temperature,
		"vibration":   s.Vibration,
	}
}

type Fault struct {
	Type        string  `json:"type"`
	Probability float64 `json:"probability"`
	Description string  `json:"description"`
}

type FaultData struct {
	Status FaultStatus `json:"status"`
	Faults []Fault     `json:"faults"`
}

// MaxProbability returns the highest fault probability, or 0 for no faults.
func (f FaultData) MaxProbability() float64 {
	highest := 0.0
	for _, ft := range f.Faults {
		if ft.Probability > highest {
			highest = ft.Probability
		}
	}
	return highest
}

type Recommendation struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Timeframe    string   `json:"timeframe"`
	Priority     Priority `json:"priority"`
	RelatedFault string   `json:"relatedFault,omitempty"`
}

// Snapshot is a read-only copy of everything the simulator owns.
type Snapshot struct {
	MotorID         string           `json:"motor_id"`
	Sequence        uint64           `json:"sequence"`
	Timestamp       time.Time        `json:"timestamp"`
	MotorStatus     MotorStatus      `json:"motorStatus"`
	MotorData       MotorData        `json:"motorData"`
	SensorData      SensorData       `json:"sensorData"`
	FaultData       FaultData        `json:"faultData"`
	Recommendations []Recommendation `json:"recommendations"`
	RunningHours    float64          `json:"runningHours"`
}

// SnapshotRecord is the persisted form of a snapshot.
type SnapshotRecord struct {
	ID          int64     `db:"id" json:"id"`
	MotorID     string    `db:"motor_id" json:"motor_id"`
	Sequence    int64     `db:"sequence" json:"sequence"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
	MotorStatus string    `db:"motor_status" json:"motor_status"`
	FaultStatus string    `db:"fault_status" json:"fault_status"`
	Load        float64   `db:"load" json:"load"`
	Speed       float64   `db:"speed" json:"speed"`
	Temperature float64   `db:"temperature" json:"temperature"`
	Efficiency  float64   `db:"efficiency" json:"efficiency"`
}

type FaultRecord struct {
	SnapshotID  int64   `db:"snapshot_id" json:"snapshot_id"`
	FaultType   string  `db:"fault_type" json:"fault_type"`
	Probability float64 `db:"probability" json:"probability"`
}

// Record flattens a snapshot into its persisted rows.
func (s Snapshot) Record() (SnapshotRecord, []FaultRecord) {
	rec := SnapshotRecord{
		MotorID:     s.MotorID,
		Sequence:    int64(s.Sequence),
		RecordedAt:  s.Timestamp,
		MotorStatus: string(s.MotorStatus),
		FaultStatus: string(s.FaultData.Status),
		Load:        s.MotorData.Load,
		Speed:       s.MotorData.Speed,
		Temperature: s.MotorData.Temperature,
		Efficiency:  s.MotorData.Efficiency,
	}
	faults := make([]FaultRecord, len(s.FaultData.Faults))
	for i, f := range s.FaultData.Faults {
		faults[i] = FaultRecord{FaultType: f.Type, Probability: f.Probability}
	}
	return rec, faults
}
