package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/catalog"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, questions []catalog.Question) *Generator {
	t.Helper()
	cat, err := catalog.New(questions)
	require.NoError(t, err)
	n := 0
	return NewGenerator(cat, budget.Default(),
		WithClock(func() time.Time { return testNow }),
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("sess-%d", n)
		}),
	)
}

// gridCatalog builds patterns × perPattern questions. Question k of each
// pattern has difficulty 1 + k%5 and the tag "all" plus "t<pattern index>".
func gridCatalog(patterns, perPattern int) []catalog.Question {
	var qs []catalog.Question
	for p := 0; p < patterns; p++ {
		for k := 0; k < perPattern; k++ {
			qs = append(qs, catalog.Question{
				ID:         fmt.Sprintf("p%d-q%d", p, k),
				PatternID:  fmt.Sprintf("p%d", p),
				Difficulty: 1 + k%5,
				Tags:       []string{"all", fmt.Sprintf("t%d", p)},
			})
		}
	}
	return qs
}

func intPtr(v int) *int { return &v }

func assertNoDuplicates(t *testing.T, ids []string) {
	t.Helper()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %s in %v", id, ids)
		seen[id] = true
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	questions := gridCatalog(4, 6)
	req := Request{Mode: ModeTag, Tags: []string{"all"}, Size: 8, UserID: "u1"}
	history := []attempt.Attempt{
		{QuestionID: "p0-q0", PatternID: "p0", Difficulty: 2, IsCorrect: false},
		{QuestionID: "p1-q0", PatternID: "p1", Difficulty: 2, IsCorrect: true},
	}

	a, err := newTestGenerator(t, questions).Generate(req, history)
	require.NoError(t, err)
	b, err := newTestGenerator(t, questions).Generate(req, history)
	require.NoError(t, err)

	assert.Equal(t, a.QuestionIDs, b.QuestionIDs)
	assert.Equal(t, a.Explain, b.Explain)
	assert.Len(t, a.QuestionIDs, 8)
	assert.Equal(t, 2, a.RecommendedDifficulty)
	assert.Equal(t, "sess-1", a.ID)
	assert.Equal(t, testNow, a.CreatedAt)
}

func TestGenerate_DailyUsesDate(t *testing.T) {
	questions := gridCatalog(3, 5)
	req := Request{Mode: ModeDaily, Size: 5, UserID: "u1"}

	g1 := newTestGenerator(t, questions)
	g2 := newTestGenerator(t, questions)
	a, err := g1.Generate(req, nil)
	require.NoError(t, err)
	b, err := g2.Generate(req, nil)
	require.NoError(t, err)
	assert.Equal(t, a.QuestionIDs, b.QuestionIDs)
	assert.Equal(t, ModeDaily, a.Explain.Mode)
}

func TestGenerate_MembershipAndNoDuplicates(t *testing.T) {
	questions := gridCatalog(5, 4)
	g := newTestGenerator(t, questions)

	tagged := map[string]bool{}
	for _, q := range questions {
		if q.PatternID == "p1" || q.PatternID == "p3" {
			tagged[q.ID] = true
		}
	}

	for u := 0; u < 25; u++ {
		for _, size := range []int{1, 3, 5, 8, 20} {
			req := Request{Mode: ModeTag, Tags: []string{"t1", "t3"}, Size: size, UserID: fmt.Sprintf("u%d", u)}
			s, err := g.Generate(req, nil)
			require.NoError(t, err)
			assert.Len(t, s.QuestionIDs, min(size, len(tagged)))
			assertNoDuplicates(t, s.QuestionIDs)
			for _, id := range s.QuestionIDs {
				assert.True(t, tagged[id], "id %s outside the tag pool", id)
			}
		}
	}
}

func TestGenerate_AntiRepeat(t *testing.T) {
	g := newTestGenerator(t, gridCatalog(3, 3))
	for u := 0; u < 50; u++ {
		history := []attempt.Attempt{
			{PatternID: "p0", IsCorrect: false},
			{PatternID: "p0", IsCorrect: false},
			{PatternID: "p1", IsCorrect: true},
		}
		s, err := g.Generate(Request{Mode: ModeDaily, Size: 6, UserID: fmt.Sprintf("u%d", u)}, history)
		require.NoError(t, err)
		require.Len(t, s.QuestionIDs, 6)

		run, last := 0, ""
		for _, id := range s.QuestionIDs {
			entry, _ := g.catalog.QuestionIndex(id)
			if entry.PatternID == last {
				run++
			} else {
				last, run = entry.PatternID, 1
			}
			assert.LessOrEqual(t, run, 2, "session %v", s.QuestionIDs)
		}
	}
}

func TestGenerate_PatternCountsMatchSelection(t *testing.T) {
	g := newTestGenerator(t, gridCatalog(3, 4))
	s, err := g.Generate(Request{Mode: ModeDaily, Size: 7, UserID: "u1"}, nil)
	require.NoError(t, err)

	total := 0.0
	for _, k := range s.Explain.PatternCounts.Keys() {
		total += s.Explain.PatternCounts.Get(k)
	}
	assert.Equal(t, float64(len(s.QuestionIDs)), total)
	assert.Equal(t, []string{"p0", "p1", "p2"}, s.Explain.PatternWeights.Keys(), "unseen patterns default in")
	assert.Equal(t, 1.0, s.Explain.PatternWeights.Get("p0"))
}

func TestGenerate_NoCandidates(t *testing.T) {
	g := newTestGenerator(t, gridCatalog(2, 2))

	tests := []struct {
		name string
		req  Request
	}{
		{"tag mode without tags", Request{Mode: ModeTag, Size: 3, UserID: "u"}},
		{"unknown tag", Request{Mode: ModeTag, Tags: []string{"nope"}, Size: 3, UserID: "u"}},
		{"daily with unknown tag", Request{Mode: ModeDaily, Tags: []string{"nope"}, Size: 3, UserID: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.req, nil)
			assert.ErrorIs(t, err, ErrNoCandidates)
		})
	}
}

func TestGenerate_TimeBudget(t *testing.T) {
	g := newTestGenerator(t, []catalog.Question{
		{ID: "a", PatternID: "p", Difficulty: 1, Tags: []string{"x"}},
		{ID: "b", PatternID: "p", Difficulty: 4, Tags: []string{"x"}},
		{ID: "c", PatternID: "q", Tags: []string{"x"}},
	})

	s, err := g.Generate(Request{Mode: ModeTag, Tags: []string{"x"}, TargetDifficulty: intPtr(5), Size: 3, UserID: "u"}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.QuestionIDs)
	assert.Equal(t, 60+180+240, s.TimeBudget)
	assert.Equal(t, 5, s.RecommendedDifficulty)
}

func TestGenerate_PrefersTargetDifficulty(t *testing.T) {
	var qs []catalog.Question
	for i := 0; i < 10; i++ {
		qs = append(qs,
			catalog.Question{ID: fmt.Sprintf("easy-%d", i), PatternID: "p", Difficulty: 1, Tags: []string{"x"}},
			catalog.Question{ID: fmt.Sprintf("mid-%d", i), PatternID: "p", Difficulty: 3, Tags: []string{"x"}},
		)
	}
	g := newTestGenerator(t, qs)

	// With target 1 the plan is 1 current + 0 low + 0 high for size 1.
	s, err := g.Generate(Request{Mode: ModeTag, Tags: []string{"x"}, TargetDifficulty: intPtr(1), Size: 1, UserID: "u"}, nil)
	require.NoError(t, err)
	require.Len(t, s.QuestionIDs, 1)
	entry, _ := g.catalog.QuestionIndex(s.QuestionIDs[0])
	assert.Equal(t, 1, entry.Difficulty)
	assert.Equal(t, Quota{}, *s.Explain.DifficultyPlan)
}

func TestGenerate_Review(t *testing.T) {
	questions := []catalog.Question{
		{ID: "a1", PatternID: "pA", Difficulty: 2},
		{ID: "a2", PatternID: "pA", Difficulty: 2},
		{ID: "a3", PatternID: "pA", Difficulty: 2},
		{ID: "a4", PatternID: "pA", Difficulty: 3},
		{ID: "a5", PatternID: "pA"},
		{ID: "b1", PatternID: "pB", Difficulty: 3},
		{ID: "b2", PatternID: "pB", Difficulty: 3},
		{ID: "b3", PatternID: "pB", Difficulty: 3},
	}
	history := []attempt.Attempt{
		{QuestionID: "a1", PatternID: "pA", Difficulty: 3, IsCorrect: false},
		{QuestionID: "x1", PatternID: "pA", Difficulty: 3, IsCorrect: false},
		{QuestionID: "x2", PatternID: "pB", Difficulty: 3, IsCorrect: true},
		{QuestionID: "x3", PatternID: "pB", Difficulty: 3, IsCorrect: true},
		{QuestionID: "x4", PatternID: "pB", Difficulty: 3, IsCorrect: true},
	}
	g := newTestGenerator(t, questions)

	s, err := g.Generate(Request{Mode: ModeReview, Size: 5, UserID: "u"}, history)
	require.NoError(t, err)
	require.Len(t, s.QuestionIDs, 5)
	assertNoDuplicates(t, s.QuestionIDs)

	// a1 was attempted recently and a4 is above the review difficulty.
	assert.ElementsMatch(t, []string{"a2", "a3", "a5"}, s.QuestionIDs[:3])
	for _, id := range s.QuestionIDs[3:] {
		assert.NotContains(t, []string{"a2", "a3", "a5"}, id)
	}

	assert.Equal(t, ModeReview, s.Mode)
	assert.Equal(t, ModeReview, s.Explain.Mode)
	require.NotNil(t, s.Explain.Review)
	require.NotNil(t, s.Explain.Main)
	assert.Equal(t, `{"pA":2}`, s.Explain.Review.PatternWeights.String())
	assert.Nil(t, s.Explain.DifficultyPlan)
	assert.Equal(t, 3.0, s.Explain.PatternCounts.Get("pA")-countIn(s.QuestionIDs[3:], "a"))
}

func countIn(ids []string, prefix string) float64 {
	n := 0.0
	for _, id := range ids {
		if id[:1] == prefix {
			n++
		}
	}
	return n
}

func TestGenerate_ReviewOnly(t *testing.T) {
	g := newTestGenerator(t, []catalog.Question{
		{ID: "a1", PatternID: "pA", Difficulty: 2},
		{ID: "a2", PatternID: "pA", Difficulty: 2},
		{ID: "b1", PatternID: "pB", Difficulty: 3},
	})
	history := []attempt.Attempt{{QuestionID: "zz", PatternID: "pA", Difficulty: 3}}

	s, err := g.Generate(Request{Mode: ModeReview, Size: 2, UserID: "u"}, history)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, s.QuestionIDs)
	assert.Nil(t, s.Explain.Review)
	require.NotNil(t, s.Explain.DifficultyPlan)
	assert.Equal(t, ModeReview, s.Explain.Mode)
}

func TestGenerate_ReviewFallback(t *testing.T) {
	questions := gridCatalog(2, 3)

	tests := []struct {
		name     string
		tags     []string
		history  []attempt.Attempt
		wantMode Mode
	}{
		{"no wrong attempts, no tags", nil, []attempt.Attempt{{PatternID: "p0", IsCorrect: true}}, ModeDaily},
		{"no wrong attempts, tags", []string{"t1"}, nil, ModeTag},
		{"wrong pattern not in catalog", nil, []attempt.Attempt{{PatternID: "gone", IsCorrect: false}}, ModeDaily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, questions)
			s, err := g.Generate(Request{Mode: ModeReview, Tags: tt.tags, Size: 3, UserID: "u"}, tt.history)
			require.NoError(t, err)
			assert.Equal(t, ModeReview, s.Mode)
			assert.Equal(t, tt.wantMode, s.Explain.Mode)
			assert.Nil(t, s.Explain.Review)
			assert.Len(t, s.QuestionIDs, 3)
		})
	}
}

func TestRecommendedDifficulty(t *testing.T) {
	mk := func(diffs ...int) []attempt.Attempt {
		out := make([]attempt.Attempt, len(diffs))
		for i, d := range diffs {
			out[i] = attempt.Attempt{Difficulty: d}
		}
		return out
	}
	old := make([]int, 60)
	for i := range old {
		old[i] = 5
		if i >= 10 {
			old[i] = 2
		}
	}

	tests := []struct {
		name    string
		history []attempt.Attempt
		target  *int
		want    int
	}{
		{"explicit target", mk(1, 1, 1), intPtr(4), 4},
		{"no history", nil, nil, budget.DefaultDifficulty},
		{"unknown difficulties only", mk(0, 0), nil, budget.DefaultDifficulty},
		{"most frequent", mk(2, 4, 4, 1), nil, 4},
		{"tie goes to easier", mk(4, 2, 4, 2), nil, 2},
		{"only last fifty count", mk(old...), nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendedDifficulty(tt.history, tt.target))
		})
	}
}

func TestCandidates_DropsUnknownIDs(t *testing.T) {
	g := newTestGenerator(t, []catalog.Question{{ID: "a", Difficulty: 2}})
	got := g.candidates([]string{"a", "missing"})
	require.Len(t, got, 1)
	assert.Equal(t, candidate{id: "a", pattern: attempt.UnspecifiedPattern, difficulty: 2}, got[0])
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("review")
	require.NoError(t, err)
	assert.Equal(t, ModeReview, m)

	_, err = ParseMode("weekly")
	assert.Error(t, err)
}
