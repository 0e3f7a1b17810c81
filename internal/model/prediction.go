package model

// AvailabilityLevel is the backend's qualitative bucket for remaining capacity.
type AvailabilityLevel string

const (
	AvailabilityExcellent AvailabilityLevel = "EXCELLENT"
	AvailabilityGood      AvailabilityLevel = "GOOD"
	AvailabilityModerate  AvailabilityLevel = "MODERATE"
	AvailabilityLow       AvailabilityLevel = "LOW"
	AvailabilityVeryLow   AvailabilityLevel = "VERY_LOW"
	AvailabilityUnknown   AvailabilityLevel = "UNKNOWN"
)

// NormalizeAvailability maps unrecognised values to AvailabilityUnknown.
func NormalizeAvailability(s string) AvailabilityLevel {
	switch l := AvailabilityLevel(s); l {
	case AvailabilityExcellent, AvailabilityGood, AvailabilityModerate, AvailabilityLow, AvailabilityVeryLow:
		return l
	default:
		return AvailabilityUnknown
	}
}

// RiskLevel is the backend's qualitative bucket for enforcement risk.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

func NormalizeRisk(s string) RiskLevel {
	switch l := RiskLevel(s); l {
	case RiskVeryLow, RiskLow, RiskModerate, RiskHigh, RiskVeryHigh:
		return l
	default:
		return RiskUnknown
	}
}

type Occupancy struct {
	Capacity          int               `json:"capacity"`
	OccupancyCount    float64           `json:"occupancy_count"`
	AvailableSpaces   int               `json:"available_spaces"`
	PercentFull       float64           `json:"percent_full"`
	AvailabilityLevel AvailabilityLevel `json:"availability_level"`
	Source            string            `json:"source,omitempty"`
}

type Enforcement struct {
	Percentage    float64   `json:"percentage"`
	Level         RiskLevel `json:"level"`
	Message       string    `json:"message,omitempty"`
	PeakRiskTime  string    `json:"peak_risk_time,omitempty"`
	DurationHours int       `json:"duration_hours,omitempty"`
}

// Recommendation is only present on zone-level predictions.
type Recommendation struct {
	Score      int    `json:"score"`
	Text       string `json:"text"`
	ShouldPark bool   `json:"should_park"`
}

// PredictionResult is the response for one (lot, instant) pair. A nil
// Occupancy or Enforcement means the backend model was disabled, not zero.
type PredictionResult struct {
	LotNumber      int             `json:"lot_number"`
	Zone           string          `json:"zone,omitempty"`
	Datetime       string          `json:"datetime"`
	Occupancy      *Occupancy      `json:"occupancy,omitempty"`
	Enforcement    *Enforcement    `json:"enforcement,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// AvailableSpaces returns the predicted free spaces, or false when no
// occupancy prediction is present.
func (p PredictionResult) AvailableSpaces() (int, bool) {
	if p.Occupancy == nil {
		return 0, false
	}
	return p.Occupancy.AvailableSpaces, true
}

// RiskPercentage returns the enforcement percentage, or false when absent.
func (p PredictionResult) RiskPercentage() (float64, bool) {
	if p.Enforcement == nil {
		return 0, false
	}
	return p.Enforcement.Percentage, true
}
