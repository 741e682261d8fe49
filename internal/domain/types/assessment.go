package types

// RiskLevel is the ordinal classification derived from the coordination score.
type RiskLevel string

// Risk levels in ascending order.
const (
	RiskMinimal RiskLevel = "MINIMAL"
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
)

// RiskLevels lists every level in ascending order.
var RiskLevels = []RiskLevel{RiskMinimal, RiskLow, RiskMedium, RiskHigh}

// Rank orders levels: MINIMAL=0 .. HIGH=3, unknown=-1.
func (l RiskLevel) Rank() int {
	for i, v := range RiskLevels {
		if v == l {
			return i
		}
	}
	return -1
}

// AtLeast reports whether l is the same as or above other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank() && other.Rank() >= 0
}

// Summary returns the human readable assessment for the level.
func (l RiskLevel) Summary() string {
	switch l {
	case RiskHigh:
		return "Highly coordinated network detected"
	case RiskMedium:
		return "Likely coordinated behavior"
	case RiskLow:
		return "Some coordination indicators present"
	case RiskMinimal:
		return "No significant coordination detected"
	}
	return ""
}

// Recommendation returns the analyst action for the level. Unknown levels
// have no recommendation.
func (l RiskLevel) Recommendation() string {
	switch l {
	case RiskHigh:
		return "Immediate investigation recommended. Strong evidence of coordinated manipulation."
	case RiskMedium:
		return "Enhanced monitoring recommended. Multiple coordination indicators detected."
	case RiskLow:
		return "Continued observation suggested. Some suspicious patterns identified."
	case RiskMinimal:
		return "No action required. Network appears organic."
	}
	return ""
}

// SignalScore explains one fused signal.
type SignalScore struct {
	Signal     string  `json:"signal"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
}

// CoordinationAssessment is the fused verdict of one run.
type CoordinationAssessment struct {
	Score          float64       `json:"overall_coordination_score"`
	RiskLevel      RiskLevel     `json:"risk_level"`
	Assessment     string        `json:"assessment"`
	Confidence     float64       `json:"confidence"`
	Evidence       []string      `json:"evidence_summary"`
	Recommendation string        `json:"recommendation"`
	Signals        []SignalScore `json:"signals"`
}
