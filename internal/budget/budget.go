// Package budget holds the per-difficulty time budget table shared by
// grading, statistics, calibration and session generation.
package budget

import (
	"fmt"
	"time"
)

const (
	// MinDifficulty and MaxDifficulty bound the difficulty scale.
	MinDifficulty = 1
	MaxDifficulty = 5

	// DefaultDifficulty is assumed when a question carries no difficulty.
	DefaultDifficulty = 3

	// DefaultFallbackSeconds is the budget for difficulties outside the table.
	DefaultFallbackSeconds = 120
)

// Table maps a difficulty level to its time budget in seconds.
// The zero value is not usable; construct with Default or New.
// Table is a value type and cannot be mutated after construction.
type Table struct {
	seconds  [MaxDifficulty]int
	fallback int
}

// Default returns the standard table: 60/90/120/180/240 seconds.
func Default() Table {
	return Table{
		seconds:  [MaxDifficulty]int{60, 90, 120, 180, 240},
		fallback: DefaultFallbackSeconds,
	}
}

// New builds a table from per-level seconds (index 0 = difficulty 1).
func New(seconds []int, fallback int) (Table, error) {
	if len(seconds) != MaxDifficulty {
		return Table{}, fmt.Errorf("time budget table needs %d entries, got %d", MaxDifficulty, len(seconds))
	}
	if fallback <= 0 {
		return Table{}, fmt.Errorf("fallback budget must be > 0, got %d", fallback)
	}
	var t Table
	for i, s := range seconds {
		if s <= 0 {
			return Table{}, fmt.Errorf("budget for difficulty %d must be > 0, got %d", i+1, s)
		}
		t.seconds[i] = s
	}
	t.fallback = fallback
	return t, nil
}

// Known reports whether difficulty has an explicit entry in the table.
func (t Table) Known(difficulty int) bool {
	return difficulty >= MinDifficulty && difficulty <= MaxDifficulty
}

// Seconds returns the budget for difficulty, or the fallback when unknown.
func (t Table) Seconds(difficulty int) int {
	if !t.Known(difficulty) {
		return t.fallback
	}
	return t.seconds[difficulty-1]
}

// SecondsOr returns the budget for difficulty, falling back to the budget
// of alt when difficulty has no entry.
func (t Table) SecondsOr(difficulty, alt int) int {
	if t.Known(difficulty) {
		return t.seconds[difficulty-1]
	}
	return t.Seconds(alt)
}

// Limit returns the budget for difficulty as a duration.
func (t Table) Limit(difficulty int) time.Duration {
	return time.Duration(t.Seconds(difficulty)) * time.Second
}

// Overtime reports whether durationMs exceeds the budget for difficulty.
func (t Table) Overtime(difficulty int, durationMs int64) bool {
	return durationMs > int64(t.Seconds(difficulty))*1000
}

// Levels returns a copy of the per-level seconds.
func (t Table) Levels() []int {
	out := make([]int, MaxDifficulty)
	copy(out, t.seconds[:])
	return out
}
