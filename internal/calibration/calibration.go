// Package calibration analyzes the whole attempt corpus for questions whose
// difficulty or time budget looks wrong and for patterns that group
// questions of very different difficulty.
package calibration

import (
	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/catalog"
	"github.com/abhisek/kakomon/internal/ratio"
	"github.com/abhisek/kakomon/internal/stats"
)

// Action is a suggested difficulty change.
type Action string

const (
	ActionUpgrade   Action = "upgrade"
	ActionDowngrade Action = "downgrade"
)

// Config holds the analysis thresholds.
type Config struct {
	MinEligibleAttempts int
	MinUsers            int

	MinQuestionAttempts int
	UpgradeAccuracy     float64 // accuracy below this ...
	UpgradeOvertime     float64 // ... and overtime above this
	DowngradeAccuracy   float64 // accuracy above this ...
	DowngradeOvertime   float64 // ... and overtime below this

	MinPatternAttempts int
	MinPatternSpread   int
	VarianceThreshold  float64

	MinTimingSamples int
	BudgetTolerance  float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinEligibleAttempts: 100,
		MinUsers:            30,
		MinQuestionAttempts: 20,
		UpgradeAccuracy:     0.5,
		UpgradeOvertime:     0.4,
		DowngradeAccuracy:   0.9,
		DowngradeOvertime:   0.1,
		MinPatternAttempts:  50,
		MinPatternSpread:    2,
		VarianceThreshold:   0.2,
		MinTimingSamples:    10,
		BudgetTolerance:     1.1,
	}
}

// DifficultyCandidate suggests moving a question up or down a level.
type DifficultyCandidate struct {
	QuestionID   string  `json:"question_id"`
	Action       Action  `json:"action"`
	Accuracy     float64 `json:"accuracy"`
	OvertimeRate float64 `json:"overtime_rate"`
}

// PatternCandidate flags a pattern whose questions vary widely in accuracy.
type PatternCandidate struct {
	PatternID string  `json:"pattern_id"`
	Variance  float64 `json:"variance"`
}

// TimeBudgetCandidate flags a question whose successful attempts routinely
// run long.
type TimeBudgetCandidate struct {
	QuestionID string `json:"question_id"`
	P75Ms      int64  `json:"p75_duration"`
	BudgetSecs int    `json:"time_budget"`
	Difficulty int    `json:"difficulty"`
}

// Report is the analysis result. Candidate lists are empty, never nil, and
// keep the order in which questions and patterns first appear in the corpus.
type Report struct {
	EligibleAttempts int                   `json:"eligible_attempts"`
	EligibleUsers    int                   `json:"eligible_users"`
	Gated            bool                  `json:"gated"`
	Difficulty       []DifficultyCandidate `json:"difficulty_adjustment_candidates"`
	PatternSplit     []PatternCandidate    `json:"pattern_split_candidates"`
	TimeBudget       []TimeBudgetCandidate `json:"time_budget_adjustment_candidates"`
}

// Index resolves question metadata.
type Index interface {
	QuestionIndex(id string) (catalog.IndexEntry, bool)
}

// Analyzer runs calibration over a corpus.
type Analyzer struct {
	cfg     Config
	budgets budget.Table
	index   Index
}

// New creates an Analyzer.
func New(cfg Config, budgets budget.Table, index Index) *Analyzer {
	return &Analyzer{cfg: cfg, budgets: budgets, index: index}
}

type questionAgg struct {
	total, correct, overtime int
	durations                []int64
}

type patternAgg struct {
	total     int
	questions []string
	perQ      map[string]*questionAgg
}

// Analyze computes the report over every attempt in the corpus.
func (a *Analyzer) Analyze(attempts []attempt.Attempt) Report {
	rep := Report{
		Difficulty:   []DifficultyCandidate{},
		PatternSplit: []PatternCandidate{},
		TimeBudget:   []TimeBudgetCandidate{},
	}

	users := make(map[string]struct{})
	for _, at := range attempts {
		users[at.UserID] = struct{}{}
		if at.Eligible() {
			rep.EligibleAttempts++
		}
	}
	rep.EligibleUsers = len(users)
	if rep.EligibleAttempts < a.cfg.MinEligibleAttempts || rep.EligibleUsers < a.cfg.MinUsers {
		rep.Gated = true
		return rep
	}

	var qOrder, pOrder []string
	questions := make(map[string]*questionAgg)
	patterns := make(map[string]*patternAgg)
	for _, at := range attempts {
		q, ok := questions[at.QuestionID]
		if !ok {
			q = &questionAgg{}
			questions[at.QuestionID] = q
			qOrder = append(qOrder, at.QuestionID)
		}
		q.add(at)

		key := at.PatternKey()
		p, ok := patterns[key]
		if !ok {
			p = &patternAgg{perQ: make(map[string]*questionAgg)}
			patterns[key] = p
			pOrder = append(pOrder, key)
		}
		p.total++
		pq, ok := p.perQ[at.QuestionID]
		if !ok {
			pq = &questionAgg{}
			p.perQ[at.QuestionID] = pq
			p.questions = append(p.questions, at.QuestionID)
		}
		pq.add(at)
	}

	for _, id := range qOrder {
		if c, ok := a.difficultyCandidate(id, questions[id]); ok {
			rep.Difficulty = append(rep.Difficulty, c)
		}
	}
	for _, id := range pOrder {
		if c, ok := a.patternCandidate(id, patterns[id]); ok {
			rep.PatternSplit = append(rep.PatternSplit, c)
		}
	}
	for _, id := range qOrder {
		if c, ok := a.timeBudgetCandidate(id, questions[id]); ok {
			rep.TimeBudget = append(rep.TimeBudget, c)
		}
	}
	return rep
}

func (q *questionAgg) add(at attempt.Attempt) {
	q.total++
	if at.IsCorrect {
		q.correct++
	}
	if at.Overtime {
		q.overtime++
	}
	if at.Eligible() {
		q.durations = append(q.durations, at.DurationMs)
	}
}

func (a *Analyzer) difficultyCandidate(id string, q *questionAgg) (DifficultyCandidate, bool) {
	if q.total < a.cfg.MinQuestionAttempts {
		return DifficultyCandidate{}, false
	}
	accuracy := ratio.Of(q.correct, q.total)
	overtime := ratio.Of(q.overtime, q.total)

	var action Action
	switch {
	case accuracy < a.cfg.UpgradeAccuracy && overtime > a.cfg.UpgradeOvertime:
		action = ActionUpgrade
	case accuracy > a.cfg.DowngradeAccuracy && overtime < a.cfg.DowngradeOvertime:
		action = ActionDowngrade
	default:
		return DifficultyCandidate{}, false
	}
	return DifficultyCandidate{
		QuestionID:   id,
		Action:       action,
		Accuracy:     ratio.Round4(accuracy),
		OvertimeRate: ratio.Round4(overtime),
	}, true
}

func (a *Analyzer) patternCandidate(id string, p *patternAgg) (PatternCandidate, bool) {
	if p.total < a.cfg.MinPatternAttempts || len(p.questions) < a.cfg.MinPatternSpread {
		return PatternCandidate{}, false
	}
	rates := make([]float64, 0, len(p.questions))
	for _, qid := range p.questions {
		q := p.perQ[qid]
		rates = append(rates, ratio.Of(q.correct, q.total))
	}
	v := variance(rates)
	if v <= a.cfg.VarianceThreshold {
		return PatternCandidate{}, false
	}
	return PatternCandidate{PatternID: id, Variance: ratio.Round4(v)}, true
}

func (a *Analyzer) timeBudgetCandidate(id string, q *questionAgg) (TimeBudgetCandidate, bool) {
	if len(q.durations) < a.cfg.MinTimingSamples {
		return TimeBudgetCandidate{}, false
	}
	difficulty := budget.DefaultDifficulty
	if entry, ok := a.lookup(id); ok && entry.Difficulty != 0 {
		difficulty = entry.Difficulty
	}
	secs := a.budgets.Seconds(difficulty)
	p75 := stats.Percentile(q.durations, 0.75)
	if p75 == nil || float64(*p75) <= float64(secs)*1000*a.cfg.BudgetTolerance {
		return TimeBudgetCandidate{}, false
	}
	return TimeBudgetCandidate{
		QuestionID: id,
		P75Ms:      *p75,
		BudgetSecs: secs,
		Difficulty: difficulty,
	}, true
}

// variance returns the population variance of values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return sq / float64(len(values))
}

func (a *Analyzer) lookup(id string) (catalog.IndexEntry, bool) {
	if a.index == nil {
		return catalog.IndexEntry{}, false
	}
	return a.index.QuestionIndex(id)
}
