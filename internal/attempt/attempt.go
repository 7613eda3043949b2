// Package attempt defines the immutable record of one graded submission.
package attempt

import (
	"time"

	"github.com/abhisek/kakomon/internal/grading"
)

// UnspecifiedPattern is the group key used for attempts whose question has
// no pattern id.
const UnspecifiedPattern = "__UNSPECIFIED__"

// Attempt is one graded submission. It is never modified after creation.
type Attempt struct {
	ID             int64
	UserID         string
	QuestionID     string
	AnswersUser    map[string]string
	AnswersCorrect map[string]string
	PerBlank       map[string]grading.BlankResult
	IsCorrect      bool
	DurationMs     int64
	Difficulty     int // 0 when the question has no difficulty
	Tags           []string
	PatternID      string
	Overtime       bool
	CreatedAt      time.Time
}

// PatternKey returns the pattern id, or UnspecifiedPattern if empty.
func (a Attempt) PatternKey() string {
	if a.PatternID == "" {
		return UnspecifiedPattern
	}
	return a.PatternID
}

// Eligible reports whether the attempt's duration is a usable timing sample:
// correct and within budget.
func (a Attempt) Eligible() bool {
	return a.IsCorrect && !a.Overtime
}

// ForPattern returns the attempts with the given pattern id, in order.
func ForPattern(attempts []Attempt, patternID string) []Attempt {
	var out []Attempt
	for _, a := range attempts {
		if a.PatternID == patternID {
			out = append(out, a)
		}
	}
	return out
}

// Since returns the attempts created no earlier than cutoff, in order.
func Since(attempts []Attempt, cutoff time.Time) []Attempt {
	var out []Attempt
	for _, a := range attempts {
		if !a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}
