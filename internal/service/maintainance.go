package service

import (
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/maintenance"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

// Failure rate bounds, per year, at 0% and 100% worst-fault probability.
const (
	baseFailureRate = 0.1
	peakFailureRate = 3.0
)

// MaintenanceService predicts service needs from the live fault vector
type MaintenanceService struct {
	lastService time.Time
	now         func() time.Time
}

func NewMaintenanceService(lastService time.Time) *MaintenanceService {
	return &MaintenanceService{lastService: lastService, now: time.Now}
}

type MaintenancePrediction struct {
	MotorID            string    `json:"motor_id"`
	CurrentHealth      float64   `json:"current_health"`
	RunningHours       float64   `json:"running_hours"`
	FailureRatePerYear float64   `json:"failure_rate_per_year"`
	FailureRisk30Days  float64   `json:"failure_risk_30_days"`
	FailureRisk90Days  float64   `json:"failure_risk_90_days"`
	NextServiceDate    time.Time `json:"next_service_date"`
	DaysUntilService   int       `json:"days_until_service"`
	Recommendation     string    `json:"recommendation"`
}

// Predict builds a prediction from a snapshot. Health is the complement
// of the worst fault probability; the service interval shrinks as the
// fault status worsens.
func (s *MaintenanceService) Predict(snap domain.Snapshot) *MaintenancePrediction {
	worst := snap.FaultData.MaxProbability()
	rate := baseFailureRate + (peakFailureRate-baseFailureRate)*worst/100

	health := maintenance.AssetHealth{
		HoursRun:           snap.RunningHours,
		FailureRatePerYear: rate,
		LastService:        s.lastService,
		ServiceInterval:    serviceInterval(snap),
	}

	risk30 := maintenance.FailureRisk(health.FailureRatePerYear, 30*24*time.Hour)
	risk90 := maintenance.FailureRisk(health.FailureRatePerYear, 90*24*time.Hour)
	next := maintenance.NextServiceDate(health)
	healthScore := 100 - worst

	return &MaintenancePrediction{
		MotorID:            snap.MotorID,
		CurrentHealth:      healthScore,
		RunningHours:       snap.RunningHours,
		FailureRatePerYear: rate,
		FailureRisk30Days:  risk30 * 100,
		FailureRisk90Days:  risk90 * 100,
		NextServiceDate:    next,
		DaysUntilService:   int(next.Sub(s.now()).Hours() / 24),
		Recommendation:     generateRecommendation(risk30, healthScore),
	}
}

func serviceInterval(snap domain.Snapshot) time.Duration {
	if snap.MotorStatus == domain.MotorFault {
		return 0
	}
	switch snap.FaultData.Status {
	case domain.FaultCritical:
		return 7 * 24 * time.Hour
	case domain.FaultWarning:
		return 90 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

func generateRecommendation(risk float64, health float64) string {
	if risk > 0.5 || health < 30 {
		return "URGENT: Schedule immediate maintenance inspection"
	} else if risk > 0.3 || health < 60 {
		return "Schedule maintenance within next 30 days"
	} else if risk > 0.15 || health < 70 {
		return "Plan maintenance within next 90 days"
	}
	return "Motor operating normally"
}
