// Package diagnosis classifies a fault-probability vector and derives the
// maintenance recommendations that go with it. Everything here is a pure
// function of its input.
package diagnosis

import "github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"

const (
	criticalThreshold = 70
	warningThreshold  = 30
)

// Classify maps the highest fault probability onto an overall status.
func Classify(faults []domain.Fault) domain.FaultStatus {
	highest := domain.FaultData{Faults: faults}.MaxProbability()
	switch {
	case highest > criticalThreshold:
		return domain.FaultCritical
	case highest > warningThreshold:
		return domain.FaultWarning
	default:
		return domain.FaultHealthy
	}
}

// rule turns one fault's probability into at most one recommendation.
type rule struct {
	FaultType string
	Evaluate  func(probability float64) (domain.Recommendation, bool)
}

// rules are evaluated in this order; the output keeps it.
var rules = []rule{
	{
		FaultType: domain.BearingFault,
		Evaluate: func(p float64) (domain.Recommendation, bool) {
			if p > 70 {
				return domain.Recommendation{
					ID:          "rec-bearing-critical",
					Title:       "Urgent: Replace Bearings",
					Description: "Critical bearing wear detected. Immediate replacement required to prevent failure.",
					Timeframe:   "immediately",
					Priority:    domain.PriorityHigh,
				}, true
			}
			if p > 30 {
				return domain.Recommendation{
					ID:          "rec-bearing-warning",
					Title:       "Schedule Bearing Inspection",
					Description: "Significant bearing wear detected. Schedule inspection and prepare for replacement.",
					Timeframe:   "next 15 days",
					Priority:    domain.PriorityMedium,
				}, true
			}
			return domain.Recommendation{
				ID:          "rec-bearing-normal",
				Title:       "Lubricate Bearings",
				Description: "Regular lubrication schedule recommended to extend bearing life.",
				Timeframe:   "next 30 days",
				Priority:    domain.PriorityLow,
			}, true
		},
	},
	{
		FaultType: domain.RotorImbalance,
		Evaluate: func(p float64) (domain.Recommendation, bool) {
			if p > 60 {
				return domain.Recommendation{
					ID:          "rec-rotor-high",
					Title:       "Rotor Balancing Required",
					Description: "Significant rotor imbalance detected. Schedule balancing procedure to prevent damage.",
					Timeframe:   "next 7 days",
					Priority:    domain.PriorityHigh,
				}, true
			}
			if p > 20 {
				return domain.Recommendation{
					ID:          "rec-rotor-medium",
					Title:       "Check Rotor Balance",
					Description: "Minor rotor imbalance detected. Perform balancing procedure during next maintenance.",
					Timeframe:   "next 30 days",
					Priority:    domain.PriorityMedium,
				}, true
			}
			return domain.Recommendation{}, false
		},
	},
	{
		FaultType: domain.StatorWinding,
		Evaluate: func(p float64) (domain.Recommendation, bool) {
			if p <= 40 {
				return domain.Recommendation{}, false
			}
			return domain.Recommendation{
				ID:          "rec-stator",
				Title:       "Inspect Stator Windings",
				Description: "Potential stator winding issues detected. Perform insulation resistance test.",
				Timeframe:   "next 15 days",
				Priority:    escalate(p, 70),
			}, true
		},
	},
	{
		FaultType: domain.VoltageImbalance,
		Evaluate: func(p float64) (domain.Recommendation, bool) {
			if p <= 30 {
				return domain.Recommendation{}, false
			}
			return domain.Recommendation{
				ID:          "rec-voltage",
				Title:       "Check Power Supply",
				Description: "Voltage imbalance detected. Inspect power supply and connections.",
				Timeframe:   "next 7 days",
				Priority:    escalate(p, 60),
			}, true
		},
	},
}

// General is appended when nothing of medium or high priority applies.
var General = domain.Recommendation{
	ID:          "rec-general",
	Title:       "Routine Maintenance Check",
	Description: "Schedule routine maintenance to ensure optimal motor performance.",
	Timeframe:   "next 90 days",
	Priority:    domain.PriorityLow,
}

func escalate(p, high float64) domain.Priority {
	if p > high {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}

// Recommend derives the full recommendation list for a fault vector. The
// result depends only on the probabilities, never on earlier calls.
func Recommend(faults []domain.Fault) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(rules)+1)
	for _, r := range rules {
		f, ok := find(faults, r.FaultType)
		if !ok {
			continue
		}
		rec, ok := r.Evaluate(f.Probability)
		if !ok {
			continue
		}
		rec.RelatedFault = r.FaultType
		out = append(out, rec)
	}

	if !hasActionable(out) {
		out = append(out, General)
	}
	return out
}

// Evaluate recomputes status and recommendations together.
func Evaluate(faults []domain.Fault) (domain.FaultData, []domain.Recommendation) {
	cp := make([]domain.Fault, len(faults))
	copy(cp, faults)
	return domain.FaultData{Status: Classify(cp), Faults: cp}, Recommend(cp)
}

func find(faults []domain.Fault, faultType string) (domain.Fault, bool) {
	for _, f := range faults {
		if f.Type == faultType {
			return f, true
		}
	}
	return domain.Fault{}, false
}

func hasActionable(recs []domain.Recommendation) bool {
	for _, r := range recs {
		if r.Priority == domain.PriorityHigh || r.Priority == domain.PriorityMedium {
			return true
		}
	}
	return false
}
