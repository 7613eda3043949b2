package calibration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/catalog"
)

type corpus struct {
	attempts []attempt.Attempt
	users    int
}

// add appends n attempts for question q in pattern p. Users rotate through
// c.users ids.
func (c *corpus) add(q, p string, n int, correct, overtime bool, durationMs int64) {
	for i := 0; i < n; i++ {
		c.attempts = append(c.attempts, attempt.Attempt{
			UserID:     fmt.Sprintf("u%02d", len(c.attempts)%c.users),
			QuestionID: q,
			PatternID:  p,
			IsCorrect:  correct,
			Overtime:   overtime,
			DurationMs: durationMs,
		})
	}
}

func testIndex(t *testing.T) *catalog.Bank {
	t.Helper()
	b, err := catalog.New([]catalog.Question{
		{ID: "qUp", PatternID: "pu", Difficulty: 3},
		{ID: "qDown", PatternID: "pd", Difficulty: 1},
		{ID: "qSlow", PatternID: "ps", Difficulty: 2},
		{ID: "qFill", PatternID: "pf", Difficulty: 3},
		{ID: "qA", PatternID: "pmix", Difficulty: 3},
		{ID: "qB", PatternID: "pmix", Difficulty: 3},
	})
	require.NoError(t, err)
	return b
}

func TestAnalyze_GatedBelowThresholds(t *testing.T) {
	c := &corpus{users: 10}
	c.add("q1", "p1", 40, true, false, 10000)

	rep := New(DefaultConfig(), budget.Default(), nil).Analyze(c.attempts)
	assert.True(t, rep.Gated)
	assert.Equal(t, 40, rep.EligibleAttempts)
	assert.Equal(t, 10, rep.EligibleUsers)
	assert.NotNil(t, rep.Difficulty)
	assert.Empty(t, rep.Difficulty)
	assert.Empty(t, rep.PatternSplit)
	assert.Empty(t, rep.TimeBudget)
}

func TestAnalyze_UsersCountedOverAllAttempts(t *testing.T) {
	c := &corpus{users: 30}
	// Only the first 10 users ever answer correctly, but all 30 count.
	c.add("q1", "p1", 100, false, false, 10000)
	for i := 0; i < 100; i++ {
		c.attempts = append(c.attempts, attempt.Attempt{
			UserID: fmt.Sprintf("u%02d", i%10), QuestionID: "q1", IsCorrect: true, DurationMs: 1000,
		})
	}
	rep := New(DefaultConfig(), budget.Default(), nil).Analyze(c.attempts)
	assert.False(t, rep.Gated)
	assert.Equal(t, 30, rep.EligibleUsers)
	assert.Equal(t, 100, rep.EligibleAttempts)
}

func TestAnalyze_Candidates(t *testing.T) {
	c := &corpus{users: 30}
	// 8 correct, 10 wrong+overtime, 2 wrong: accuracy 0.4, overtime 0.5.
	c.add("qUp", "pu", 8, true, false, 30000)
	c.add("qUp", "pu", 10, false, true, 200000)
	c.add("qUp", "pu", 2, false, false, 30000)
	// Always right and quick.
	c.add("qDown", "pd", 20, true, false, 10000)
	// Successful attempts run past 1.1 × 90 s.
	c.add("qSlow", "ps", 10, true, false, 100000)
	// Unremarkable filler to clear the gate.
	c.add("qFill", "pf", 40, true, false, 10000)
	c.add("qFill", "pf", 10, false, false, 10000)
	// One easy and one impossible question under the same pattern.
	c.add("qA", "pmix", 30, true, false, 10000)
	c.add("qB", "pmix", 30, false, false, 10000)

	rep := New(DefaultConfig(), budget.Default(), testIndex(t)).Analyze(c.attempts)
	require.False(t, rep.Gated)
	assert.Equal(t, 108, rep.EligibleAttempts)
	assert.Equal(t, 30, rep.EligibleUsers)

	assert.Equal(t, []DifficultyCandidate{
		{QuestionID: "qUp", Action: ActionUpgrade, Accuracy: 0.4, OvertimeRate: 0.5},
		{QuestionID: "qDown", Action: ActionDowngrade, Accuracy: 1, OvertimeRate: 0},
		{QuestionID: "qA", Action: ActionDowngrade, Accuracy: 1, OvertimeRate: 0},
	}, rep.Difficulty)

	assert.Equal(t, []PatternCandidate{{PatternID: "pmix", Variance: 0.25}}, rep.PatternSplit)

	assert.Equal(t, []TimeBudgetCandidate{
		{QuestionID: "qSlow", P75Ms: 100000, BudgetSecs: 90, Difficulty: 2},
	}, rep.TimeBudget)
}

func TestAnalyze_TimeBudgetDefaultsToDifficultyThree(t *testing.T) {
	c := &corpus{users: 30}
	c.add("unknown", "p", 100, true, false, 140000)

	rep := New(DefaultConfig(), budget.Default(), testIndex(t)).Analyze(c.attempts)
	require.Len(t, rep.TimeBudget, 1)
	assert.Equal(t, 120, rep.TimeBudget[0].BudgetSecs)
	assert.Equal(t, 3, rep.TimeBudget[0].Difficulty)
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, variance(nil))
	assert.Equal(t, 0.0, variance([]float64{0.5, 0.5}))
	assert.Equal(t, 0.25, variance([]float64{0, 1}))
}
