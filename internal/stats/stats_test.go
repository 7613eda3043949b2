package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/grading"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func TestCompute_DifficultyExample(t *testing.T) {
	// Three difficulty-3 attempts: 10000 ms correct, 20000 ms correct,
	// 130000 ms correct but overtime.
	attempts := []attempt.Attempt{
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 10000, CreatedAt: testNow},
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 20000, CreatedAt: testNow},
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 130000, Overtime: true, CreatedAt: testNow},
	}

	groups := Compute(attempts, Options{GroupBy: GroupByDifficulty, Now: testNow})
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "3", g.Key)
	assert.Equal(t, 3, g.Attempts)
	assert.Equal(t, 1.0, g.Accuracy)
	require.NotNil(t, g.MedianMs)
	assert.Equal(t, int64(15000), *g.MedianMs)
	require.NotNil(t, g.P75Ms)
	assert.Equal(t, int64(20000), *g.P75Ms)
	assert.Equal(t, 0.3333, g.OvertimeRate)
}

func TestCompute_DifficultyAccuracyExcludesIncorrectDurations(t *testing.T) {
	// 3 of 4 difficulty-3 attempts correct; the incorrect one is within
	// budget but its duration must not reach the timing aggregate.
	attempts := []attempt.Attempt{
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 30000, CreatedAt: testNow},
		{UserID: "u", Difficulty: 3, IsCorrect: false, DurationMs: 100000, CreatedAt: testNow},
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 40000, CreatedAt: testNow},
		{UserID: "u", Difficulty: 3, IsCorrect: true, DurationMs: 50000, CreatedAt: testNow},
	}

	groups := Compute(attempts, Options{GroupBy: GroupByDifficulty, Now: testNow})
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "3", g.Key)
	assert.Equal(t, 4, g.Attempts)
	assert.Equal(t, 0.75, g.Accuracy)
	require.NotNil(t, g.MedianMs)
	assert.Equal(t, int64(40000), *g.MedianMs, "median over 30000, 40000, 50000 only")
	require.NotNil(t, g.P75Ms)
	assert.Equal(t, int64(50000), *g.P75Ms)
	assert.Equal(t, 0.0, g.OvertimeRate)
}

func TestCompute_GroupKeys(t *testing.T) {
	attempts := []attempt.Attempt{
		{PatternID: "p1", Difficulty: 2, Tags: []string{"a", "b"}},
		{PatternID: "", Difficulty: 0, Tags: []string{"b", ""}},
		{PatternID: "p1", Difficulty: 2, Tags: nil},
	}

	tests := []struct {
		by       GroupBy
		keys     []string
		attempts []int
	}{
		{GroupByPattern, []string{"p1", attempt.UnspecifiedPattern}, []int{2, 1}},
		{GroupByDifficulty, []string{"2", UnknownDifficulty}, []int{2, 1}},
		{GroupByTag, []string{"a", "b"}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			groups := Compute(attempts, Options{GroupBy: tt.by})
			var keys []string
			var counts []int
			for _, g := range groups {
				keys = append(keys, g.Key)
				counts = append(counts, g.Attempts)
			}
			assert.Equal(t, tt.keys, keys)
			assert.Equal(t, tt.attempts, counts)
		})
	}
}

func TestCompute_NoEligibleDurations(t *testing.T) {
	groups := Compute([]attempt.Attempt{
		{PatternID: "p", IsCorrect: false, DurationMs: 5000},
		{PatternID: "p", IsCorrect: true, Overtime: true, DurationMs: 500000},
	}, Options{GroupBy: GroupByPattern})
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].MedianMs)
	assert.Nil(t, groups[0].P75Ms)
	assert.Equal(t, 0.5, groups[0].Accuracy)
	assert.Equal(t, 0.5, groups[0].OvertimeRate)
}

func TestCompute_Window(t *testing.T) {
	attempts := []attempt.Attempt{
		{PatternID: "old", CreatedAt: testNow.Add(-8 * 24 * time.Hour)},
		{PatternID: "edge", CreatedAt: testNow.Add(-7 * 24 * time.Hour)},
		{PatternID: "new", CreatedAt: testNow.Add(-time.Hour)},
	}

	groups := Compute(attempts, Options{GroupBy: GroupByPattern, WindowDays: 7, Now: testNow})
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"edge", "new"}, keys)

	all := Compute(attempts, Options{GroupBy: GroupByPattern, Now: testNow})
	assert.Len(t, all, 3)
}

func TestCompute_SignErrorRate(t *testing.T) {
	a := attempt.Attempt{
		PatternID: "p",
		PerBlank: map[string]grading.BlankResult{
			"A": {Expected: "-", Actual: ptr("3")},
			"B": {Expected: "4", Actual: ptr("-")},
			"C": {Expected: "5", Actual: ptr("6")},
			"D": {Expected: "7", Actual: nil},
		},
	}
	groups := Compute([]attempt.Attempt{a}, Options{GroupBy: GroupByPattern})
	require.Len(t, groups, 1)
	assert.Equal(t, 0.5, groups[0].SignErrorRate)

	errs, blanks := SignErrors(a)
	assert.Equal(t, 2, errs)
	assert.Equal(t, 4, blanks)
}

func TestPercentileAndMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		median *int64
		p75    *int64
	}{
		{"empty", nil, nil, nil},
		{"single", []int64{7}, i64(7), i64(7)},
		{"odd", []int64{30, 10, 20}, i64(20), i64(30)},
		{"even rounds half up", []int64{1, 2}, i64(2), i64(2)},
		{"four", []int64{40, 10, 30, 20}, i64(25), i64(30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.median, Median(tt.values))
			assert.Equal(t, tt.p75, Percentile(tt.values, 0.75))
		})
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	in := []int64{3, 1, 2}
	Percentile(in, 0.5)
	assert.Equal(t, []int64{3, 1, 2}, in)
}

func TestParseGroupBy(t *testing.T) {
	g, err := ParseGroupBy("tag")
	require.NoError(t, err)
	assert.Equal(t, GroupByTag, g)

	_, err = ParseGroupBy("exam")
	assert.True(t, errors.Is(err, ErrInvalidGroupBy))
}

func TestComputeOverview(t *testing.T) {
	attempts := []attempt.Attempt{
		{UserID: "u1", PatternID: "p1", Difficulty: 1, Tags: []string{"a"}, IsCorrect: true},
		{UserID: "u2", PatternID: "p1", Difficulty: 2, Tags: []string{"a"}, Overtime: true},
		{UserID: "u1", PatternID: "p2", Difficulty: 2, Tags: []string{"b"}, IsCorrect: true},
		{UserID: "u3", PatternID: "p2", Difficulty: 0, IsCorrect: true},
	}

	ov, err := ComputeOverview(context.Background(), attempts)
	require.NoError(t, err)
	assert.Equal(t, Totals{Attempts: 4, Accuracy: 0.75, OvertimeRate: 0.25, ActiveUsers: 3}, ov.Totals)
	assert.Len(t, ov.Patterns, 2)
	assert.Len(t, ov.Tags, 2)
	assert.Len(t, ov.Difficulty, 3)
}

func TestComputeOverview_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ComputeOverview(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, ComputeTotals(nil))
}

func i64(v int64) *int64 { return &v }
