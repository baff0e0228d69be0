package domain

import (
	"math"
	"strings"
)

// AlertStatus is the categorical severity of a station's current reading.
type AlertStatus string

const (
	StatusNormal AlertStatus = "NORMAL"
	StatusAlert  AlertStatus = "ALERT"
	StatusMinor  AlertStatus = "MINOR"
	StatusMajor  AlertStatus = "MAJOR"
	StatusNoData AlertStatus = "NO_DATA"
)

// SeverityRank orders statuses from most severe (0) to least. Unknown
// statuses sort last.
func (s AlertStatus) SeverityRank() int {
	switch s {
	case StatusMajor:
		return 0
	case StatusMinor:
		return 1
	case StatusAlert:
		return 2
	case StatusNormal:
		return 3
	default:
		return 4
	}
}

// Active reports whether the status represents a flood condition worth
// notifying about.
func (s AlertStatus) Active() bool {
	switch s {
	case StatusAlert, StatusMinor, StatusMajor:
		return true
	}
	return false
}

// CalculateAlertStatus classifies a water level against the threshold
// triple. Comparisons run highest severity first so MAJOR wins ties. Unset
// (non-positive) thresholds default to +Inf and can never be crossed.
func CalculateAlertStatus(level *float64, t Thresholds) AlertStatus {
	if level == nil {
		return StatusNoData
	}
	switch {
	case *level >= thresholdOrInf(t.Major):
		return StatusMajor
	case *level >= thresholdOrInf(t.Minor):
		return StatusMinor
	case *level >= thresholdOrInf(t.Alert):
		return StatusAlert
	default:
		return StatusNormal
	}
}

func thresholdOrInf(v float64) float64 {
	if v <= 0 {
		return math.Inf(1)
	}
	return v
}

// CalculateFloodScore normalizes a water level between the alert threshold
// (0.0) and the major flood threshold (1.0). The score is unclamped. Returns
// nil when the level is absent or the thresholds are degenerate
// (major <= alert), which would invert the scale or divide by zero.
func CalculateFloodScore(level *float64, alert, major float64) *float64 {
	if level == nil {
		return nil
	}
	if major <= alert {
		return nil
	}
	score := (*level - alert) / (major - alert)
	return &score
}

// StatusFromRemarks derives a status from free-text remarks for stations
// without usable thresholds. Substrings are matched in severity order.
func StatusFromRemarks(remarks string, level *float64) AlertStatus {
	folded := strings.ToLower(remarks)
	switch {
	case strings.Contains(folded, "major flood"):
		return StatusMajor
	case strings.Contains(folded, "minor flood"):
		return StatusMinor
	case strings.Contains(folded, "alert"):
		return StatusAlert
	case level != nil:
		return StatusNormal
	default:
		return StatusNoData
	}
}
