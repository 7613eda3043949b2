// Package stats aggregates accuracy, timing and error rates over attempts,
// grouped by pattern, difficulty or tag.
package stats

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/ratio"
)

// GroupBy selects the grouping dimension.
type GroupBy string

const (
	GroupByPattern    GroupBy = "pattern"
	GroupByDifficulty GroupBy = "difficulty"
	GroupByTag        GroupBy = "tag"
)

// UnknownDifficulty is the group key for attempts with no difficulty.
const UnknownDifficulty = "unknown"

// ErrInvalidGroupBy is returned by ParseGroupBy for unknown dimensions.
var ErrInvalidGroupBy = fmt.Errorf("group_by must be one of %q, %q, %q", GroupByPattern, GroupByDifficulty, GroupByTag)

// ParseGroupBy validates s as a grouping dimension.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case GroupByPattern, GroupByDifficulty, GroupByTag:
		return g, nil
	}
	return "", fmt.Errorf("%w, got %q", ErrInvalidGroupBy, s)
}

// Group is the aggregate for one group key. Durations are in milliseconds
// and computed only over correct attempts within budget; they are nil when
// no such attempt exists.
type Group struct {
	Key           string  `json:"key"`
	Attempts      int     `json:"attempts"`
	Accuracy      float64 `json:"accuracy"`
	MedianMs      *int64  `json:"median_duration"`
	P75Ms         *int64  `json:"p75_duration"`
	OvertimeRate  float64 `json:"overtime_rate"`
	SignErrorRate float64 `json:"sign_error_rate"`
}

// Options configure Compute.
type Options struct {
	GroupBy    GroupBy
	WindowDays int       // 0 disables the window
	Now        time.Time // reference point for the window
}

type accumulator struct {
	attempts   int
	correct    int
	overtime   int
	durations  []int64
	signErrors int
	signBlanks int
}

// Compute groups attempts and returns one Group per key, in order of the
// key's first appearance. Groups with no attempts are never reported.
func Compute(attempts []attempt.Attempt, opts Options) []Group {
	filtered := Window(attempts, opts.WindowDays, opts.Now)

	var order []string
	acc := make(map[string]*accumulator)
	for _, a := range filtered {
		for _, key := range groupKeys(a, opts.GroupBy) {
			if key == "" {
				continue
			}
			e, ok := acc[key]
			if !ok {
				e = &accumulator{}
				acc[key] = e
				order = append(order, key)
			}
			e.add(a)
		}
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		out = append(out, acc[key].group(key))
	}
	return out
}

// Window returns the attempts created within days of now. A non-positive
// days value returns attempts unchanged.
func Window(attempts []attempt.Attempt, days int, now time.Time) []attempt.Attempt {
	if days <= 0 {
		return attempts
	}
	return attempt.Since(attempts, now.Add(-time.Duration(days)*24*time.Hour))
}

func groupKeys(a attempt.Attempt, by GroupBy) []string {
	switch by {
	case GroupByPattern:
		return []string{a.PatternKey()}
	case GroupByDifficulty:
		if a.Difficulty == 0 {
			return []string{UnknownDifficulty}
		}
		return []string{strconv.Itoa(a.Difficulty)}
	case GroupByTag:
		return a.Tags
	}
	return nil
}

func (e *accumulator) add(a attempt.Attempt) {
	e.attempts++
	if a.IsCorrect {
		e.correct++
	}
	if a.Overtime {
		e.overtime++
	}
	if a.Eligible() {
		e.durations = append(e.durations, a.DurationMs)
	}
	errs, blanks := SignErrors(a)
	e.signErrors += errs
	e.signBlanks += blanks
}

func (e *accumulator) group(key string) Group {
	return Group{
		Key:           key,
		Attempts:      e.attempts,
		Accuracy:      ratio.Round4(ratio.Of(e.correct, e.attempts)),
		MedianMs:      Median(e.durations),
		P75Ms:         Percentile(e.durations, 0.75),
		OvertimeRate:  ratio.Round4(ratio.Of(e.overtime, e.attempts)),
		SignErrorRate: ratio.Round4(ratio.Of(e.signErrors, e.signBlanks)),
	}
}

// SignErrors counts blanks where a minus sign and a digit were confused,
// and the number of blanks inspected.
func SignErrors(a attempt.Attempt) (errs, blanks int) {
	for _, b := range a.PerBlank {
		blanks++
		if b.Actual == nil {
			continue
		}
		actual := *b.Actual
		switch {
		case b.Expected == "-" && containsDigit(actual):
			errs++
		case containsDigit(b.Expected) && actual == "-":
			errs++
		}
	}
	return errs, blanks
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
