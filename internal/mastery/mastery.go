// Package mastery classifies per-(user, pattern) competency from the most
// recent attempts in that pattern.
package mastery

import (
	"time"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/ratio"
)

// Thresholds configure status classification.
type Thresholds struct {
	Window int // trailing attempts considered

	PromoteAccuracy    float64
	PromoteOvertimeMax float64
	PromoteStreak      int

	DemoteAccuracyMax float64
	DemoteOvertime    float64

	SlowAccuracy float64
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Window:             10,
		PromoteAccuracy:    0.8,
		PromoteOvertimeMax: 0.2,
		PromoteStreak:      3,
		DemoteAccuracyMax:  0.5,
		DemoteOvertime:     0.6,
		SlowAccuracy:       0.8,
	}
}

// Record is the mastery state for one (user, pattern) pair.
type Record struct {
	UserID             string    `json:"user_id"`
	PatternID          string    `json:"pattern_id"`
	Accuracy           float64   `json:"accuracy"`
	OvertimeRate       float64   `json:"overtime_rate"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	Status             Status    `json:"status"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Compute derives the record for patternID from history, which must be the
// user's attempts in chronological order. It returns false when the user has
// no attempts in the pattern.
func Compute(history []attempt.Attempt, userID, patternID string, now time.Time) (Record, bool) {
	return DefaultThresholds().Compute(history, userID, patternID, now)
}

// Compute is like the package-level Compute with custom thresholds.
func (th Thresholds) Compute(history []attempt.Attempt, userID, patternID string, now time.Time) (Record, bool) {
	window := attempt.ForPattern(history, patternID)
	if th.Window > 0 && len(window) > th.Window {
		window = window[len(window)-th.Window:]
	}
	if len(window) == 0 {
		return Record{}, false
	}

	var correct, overtime int
	for _, a := range window {
		if a.IsCorrect {
			correct++
		}
		if a.Overtime {
			overtime++
		}
	}
	streak := 0
	for i := len(window) - 1; i >= 0 && window[i].IsCorrect; i-- {
		streak++
	}

	accuracy := ratio.Of(correct, len(window))
	overtimeRate := ratio.Of(overtime, len(window))

	return Record{
		UserID:             userID,
		PatternID:          patternID,
		Accuracy:           ratio.Round4(accuracy),
		OvertimeRate:       ratio.Round4(overtimeRate),
		ConsecutiveCorrect: streak,
		Status:             th.classify(accuracy, overtimeRate, streak),
		UpdatedAt:          now,
	}, true
}

// classify applies the status rules in priority order.
func (th Thresholds) classify(accuracy, overtimeRate float64, streak int) Status {
	switch {
	case accuracy >= th.PromoteAccuracy && overtimeRate <= th.PromoteOvertimeMax && streak >= th.PromoteStreak:
		return StatusPromote
	case accuracy <= th.DemoteAccuracyMax || overtimeRate >= th.DemoteOvertime:
		return StatusDemote
	case accuracy >= th.SlowAccuracy && overtimeRate > th.PromoteOvertimeMax:
		return StatusAccurateButSlow
	default:
		return StatusSteady
	}
}
