// Package session generates deterministic, weighted practice sessions from
// a learner's attempt history and the content catalog.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/catalog"
)

// Mode selects how the candidate pool is built.
type Mode string

const (
	ModeTag    Mode = "tag"
	ModeReview Mode = "review"
	ModeDaily  Mode = "daily"
)

// ParseMode validates s as a session mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeTag, ModeReview, ModeDaily:
		return m, nil
	}
	return "", fmt.Errorf("unknown session mode %q", s)
}

const (
	// recentDifficultyWindow is how many trailing attempts vote on the
	// recommended difficulty.
	recentDifficultyWindow = 50

	// reviewExcludeRecent is how many of the latest attempted questions a
	// review pass skips.
	reviewExcludeRecent = 5
)

// Request describes the session to generate.
type Request struct {
	Mode             Mode
	Tags             []string
	TargetDifficulty *int
	Size             int
	UserID           string
}

// Session is a generated practice set.
type Session struct {
	ID                    string    `json:"session_id"`
	UserID                string    `json:"user_id"`
	Mode                  Mode      `json:"mode"`
	Tags                  []string  `json:"tags"`
	TargetDifficulty      *int      `json:"target_difficulty"`
	Size                  int       `json:"size"`
	QuestionIDs           []string  `json:"question_ids"`
	RecommendedDifficulty int       `json:"recommended_difficulty"`
	TimeBudget            int       `json:"time_budget"`
	Explain               Explain   `json:"explain"`
	CreatedAt             time.Time `json:"created_at"`
}

// Explain records how a session was built. Mode is the mode actually used,
// which differs from the requested mode when a review falls back.
type Explain struct {
	Mode           Mode       `json:"mode"`
	Tags           []string   `json:"tags"`
	DifficultyPlan *Quota     `json:"difficulty_plan,omitempty"`
	PatternWeights *Weights   `json:"pattern_weights,omitempty"`
	PatternCounts  *Weights   `json:"pattern_counts"`
	Review         *Breakdown `json:"review,omitempty"`
	Main           *Breakdown `json:"main,omitempty"`
}

// Breakdown is the plan and weights of one part of a review session.
type Breakdown struct {
	DifficultyPlan Quota    `json:"difficulty_plan"`
	PatternWeights *Weights `json:"pattern_weights"`
}

// Generator builds sessions. It is safe for concurrent use.
type Generator struct {
	catalog catalog.Catalog
	budgets budget.Table
	now     func() time.Time
	newID   func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for daily seeds and timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDFunc sets the session id source.
func WithIDFunc(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator creates a Generator over cat.
func NewGenerator(cat catalog.Catalog, budgets budget.Table, opts ...Option) *Generator {
	g := &Generator{
		catalog: cat,
		budgets: budgets,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// selection is the id list and explain data of one generation path.
type selection struct {
	ids     []string
	explain Explain
}

// Generate builds a session for req from history, the user's attempts in
// chronological order. It returns ErrNoCandidates when the pool is empty.
func (g *Generator) Generate(req Request, history []attempt.Attempt) (*Session, error) {
	rec := RecommendedDifficulty(history, req.TargetDifficulty)

	var sel selection
	var err error
	if req.Mode == ModeReview {
		sel, err = g.review(req, history, rec)
	} else {
		sel, err = g.standard(req, req.Mode, req.Tags, history, rec)
	}
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:                    g.newID(),
		UserID:                req.UserID,
		Mode:                  req.Mode,
		Tags:                  req.Tags,
		TargetDifficulty:      req.TargetDifficulty,
		Size:                  req.Size,
		QuestionIDs:           sel.ids,
		RecommendedDifficulty: rec,
		TimeBudget:            g.timeBudget(sel.ids, rec),
		Explain:               sel.explain,
		CreatedAt:             g.now(),
	}, nil
}

// standard handles tag and daily sessions.
func (g *Generator) standard(req Request, mode Mode, tags []string, history []attempt.Attempt, rec int) (selection, error) {
	cands := g.candidates(g.filterByTags(tags, mode))
	if len(cands) == 0 {
		return selection{}, ErrNoCandidates
	}

	weights := HistoryWeights(history)
	parts := []string{
		string(mode),
		strings.Join(tags, ","),
		targetString(req.TargetDifficulty),
		strconv.Itoa(req.Size),
		req.UserID,
		weights.String(),
	}
	if mode == ModeDaily {
		parts = append(parts, g.now().UTC().Format("2006-01-02"))
	}

	core, err := generateCore(cands, req.Size, rec, weights, seedFrom(parts...))
	if err != nil {
		return selection{}, err
	}
	return selection{
		ids: core.ids,
		explain: Explain{
			Mode:           mode,
			Tags:           tags,
			DifficultyPlan: &core.plan,
			PatternWeights: core.weights,
			PatternCounts:  core.counts,
		},
	}, nil
}

// review draws a few questions from patterns the learner got wrong, one
// level below the recommended difficulty, then fills the rest like a
// regular session. Without usable review material it falls back to a tag
// session when tags were given and a daily session otherwise.
func (g *Generator) review(req Request, history []attempt.Attempt, rec int) (selection, error) {
	wrong := WrongCounts(history)
	reviewDifficulty := max(budget.MinDifficulty, rec-1)
	reviewSize := reviewSizeFor(req.Size)

	recent := make(map[string]bool, reviewExcludeRecent)
	for _, a := range history[max(0, len(history)-reviewExcludeRecent):] {
		recent[a.QuestionID] = true
	}

	var pool []string
	for _, id := range g.catalog.AllQuestionIDs() {
		if recent[id] {
			continue
		}
		entry, ok := g.catalog.QuestionIndex(id)
		if !ok || !wrong.Has(patternKey(entry.PatternID)) {
			continue
		}
		if entry.Difficulty != 0 && entry.Difficulty != reviewDifficulty {
			continue
		}
		pool = append(pool, id)
	}
	reviewCands := g.candidates(pool)

	if wrong.Len() == 0 || len(reviewCands) == 0 {
		if len(req.Tags) > 0 {
			return g.standard(req, ModeTag, req.Tags, history, rec)
		}
		return g.standard(req, ModeDaily, []string{}, history, rec)
	}

	reviewSeed := seedFrom(
		string(ModeReview),
		strconv.Itoa(reviewDifficulty),
		strconv.Itoa(reviewSize),
		req.UserID,
		wrong.String(),
	)
	rev, err := generateCore(reviewCands, reviewSize, reviewDifficulty, wrong, reviewSeed)
	if err != nil {
		return selection{}, err
	}

	remaining := req.Size - len(rev.ids)
	if remaining <= 0 {
		return selection{
			ids: rev.ids,
			explain: Explain{
				Mode:           ModeReview,
				Tags:           req.Tags,
				DifficultyPlan: &rev.plan,
				PatternWeights: rev.weights,
				PatternCounts:  rev.counts,
			},
		}, nil
	}

	mainIDs := g.catalog.AllQuestionIDs()
	if len(req.Tags) > 0 {
		mainIDs = g.filterByTags(req.Tags, ModeTag)
	}
	var mainCands []candidate
	for _, c := range g.candidates(mainIDs) {
		if !slices.Contains(rev.ids, c.id) {
			mainCands = append(mainCands, c)
		}
	}

	weights := HistoryWeights(history)
	mainSeed := seedFrom(
		"main",
		strings.Join(req.Tags, ","),
		targetString(req.TargetDifficulty),
		strconv.Itoa(remaining),
		req.UserID,
		weights.String(),
	)
	rest, err := generateCore(mainCands, remaining, rec, weights, mainSeed)
	switch {
	case errors.Is(err, ErrNoCandidates):
		rest = coreResult{plan: NewQuota(remaining, rec), weights: weights, counts: NewWeights()}
	case err != nil:
		return selection{}, err
	}

	counts := rev.counts.Clone()
	for _, k := range rest.counts.Keys() {
		counts.Add(k, rest.counts.Get(k))
	}

	return selection{
		ids: append(slices.Clone(rev.ids), rest.ids...),
		explain: Explain{
			Mode:          ModeReview,
			Tags:          req.Tags,
			PatternCounts: counts,
			Review:        &Breakdown{DifficultyPlan: rev.plan, PatternWeights: rev.weights},
			Main:          &Breakdown{DifficultyPlan: rest.plan, PatternWeights: rest.weights},
		},
	}, nil
}

// filterByTags returns the ids tagged with any of tags, in tag index order.
// Without tags a tag session has no pool and other modes use the whole
// catalog.
func (g *Generator) filterByTags(tags []string, mode Mode) []string {
	if len(tags) == 0 {
		if mode == ModeTag {
			return nil
		}
		return g.catalog.AllQuestionIDs()
	}
	idx := g.catalog.TagIndex()
	if idx == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, tag := range tags {
		for _, pattern := range idx.Patterns(tag) {
			for _, id := range idx.QuestionIDs(tag, pattern) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// candidates resolves ids against the catalog index, dropping unknown ids.
func (g *Generator) candidates(ids []string) []candidate {
	out := make([]candidate, 0, len(ids))
	for _, id := range ids {
		entry, ok := g.catalog.QuestionIndex(id)
		if !ok {
			continue
		}
		out = append(out, candidate{
			id:         id,
			pattern:    patternKey(entry.PatternID),
			difficulty: entry.Difficulty,
		})
	}
	return out
}

// timeBudget sums the budget of each question, using rec for questions
// without a difficulty.
func (g *Generator) timeBudget(ids []string, rec int) int {
	total := 0
	for _, id := range ids {
		entry, _ := g.catalog.QuestionIndex(id)
		total += g.budgets.SecondsOr(entry.Difficulty, rec)
	}
	return total
}

// RecommendedDifficulty returns target when set, otherwise the most common
// difficulty among the last 50 attempts (ties go to the easier level), or
// the default difficulty with no usable history.
func RecommendedDifficulty(history []attempt.Attempt, target *int) int {
	if target != nil {
		return *target
	}
	var counts [budget.MaxDifficulty + 1]int
	for _, a := range history[max(0, len(history)-recentDifficultyWindow):] {
		if a.Difficulty >= budget.MinDifficulty && a.Difficulty <= budget.MaxDifficulty {
			counts[a.Difficulty]++
		}
	}
	best, bestCount := budget.DefaultDifficulty, 0
	for d := budget.MinDifficulty; d <= budget.MaxDifficulty; d++ {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func reviewSizeFor(size int) int {
	switch {
	case size <= 2:
		return size
	case size <= 4:
		return 2
	default:
		return 3
	}
}

func targetString(target *int) string {
	if target == nil {
		return ""
	}
	return strconv.Itoa(*target)
}

func patternKey(pattern string) string {
	if pattern == "" {
		return attempt.UnspecifiedPattern
	}
	return pattern
}
