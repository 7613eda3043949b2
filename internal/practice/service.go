// Package practice is the boundary between callers and the practice engine.
// It validates requests, loads history from the store, runs the engines and
// persists their results.
package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/calibration"
	"github.com/abhisek/kakomon/internal/catalog"
	"github.com/abhisek/kakomon/internal/grading"
	"github.com/abhisek/kakomon/internal/mastery"
	"github.com/abhisek/kakomon/internal/session"
	"github.com/abhisek/kakomon/internal/stats"
	"github.com/abhisek/kakomon/internal/store"
)

// Options configure a Service. Catalog and the three repositories are
// required; the rest have defaults.
type Options struct {
	Catalog  catalog.Catalog
	Attempts store.AttemptRepo
	Mastery  store.MasteryRepo
	Sessions store.SessionRepo

	Budgets     *budget.Table
	Thresholds  *mastery.Thresholds
	Calibration *calibration.Config
	Logger      *slog.Logger
	Clock       func() time.Time
	NewID       func() string
}

// Service runs practice operations for one catalog and store.
type Service struct {
	catalog     catalog.Catalog
	attempts    store.AttemptRepo
	mastery     store.MasteryRepo
	sessions    store.SessionRepo
	budgets     budget.Table
	thresholds  mastery.Thresholds
	calibration calibration.Config
	generator   *session.Generator
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Service from opts.
func New(opts Options) *Service {
	s := &Service{
		catalog:     opts.Catalog,
		attempts:    opts.Attempts,
		mastery:     opts.Mastery,
		sessions:    opts.Sessions,
		budgets:     budget.Default(),
		thresholds:  mastery.DefaultThresholds(),
		calibration: calibration.DefaultConfig(),
		logger:      opts.Logger,
		now:         opts.Clock,
	}
	if opts.Budgets != nil {
		s.budgets = *opts.Budgets
	}
	if opts.Thresholds != nil {
		s.thresholds = *opts.Thresholds
	}
	if opts.Calibration != nil {
		s.calibration = *opts.Calibration
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}

	genOpts := []session.Option{session.WithClock(s.now)}
	if opts.NewID != nil {
		genOpts = append(genOpts, session.WithIDFunc(opts.NewID))
	}
	s.generator = session.NewGenerator(s.catalog, s.budgets, genOpts...)
	return s
}

// SubmitRequest is one answer submission.
type SubmitRequest struct {
	UserID     string
	QuestionID string
	Answers    map[string]grading.Value
	DurationMs int64
}

// SubmitAttempt grades req, stores the attempt and refreshes the user's
// mastery record for the question's pattern.
func (s *Service) SubmitAttempt(ctx context.Context, req SubmitRequest) (*attempt.Attempt, error) {
	if req.QuestionID == "" {
		return nil, requestError(CodeQuestionIDRequired, "question_id is required")
	}
	if req.DurationMs < 0 {
		return nil, requestError(CodeDurationInvalid, "duration_ms must be a non-negative integer, got %d", req.DurationMs)
	}

	q, ok := s.catalog.Question(req.QuestionID)
	if !ok {
		return nil, &NotFoundError{Kind: "question", ID: req.QuestionID}
	}
	canonical, ok := s.catalog.AnswerGroups(req.QuestionID)
	if !ok {
		return nil, &DataIntegrityError{QuestionID: req.QuestionID}
	}

	result, err := grading.Grade(canonical, req.Answers, q.Alphabet())
	if err != nil {
		var verr *grading.ValidationError
		if errors.As(err, &verr) {
			return nil, &ValidationError{Issues: verr.Issues, Err: err}
		}
		return nil, fmt.Errorf("grade %s: %w", req.QuestionID, err)
	}

	now := s.now().UTC()
	a := &attempt.Attempt{
		UserID:         req.UserID,
		QuestionID:     req.QuestionID,
		AnswersUser:    grading.NormalizeGroups(req.Answers),
		AnswersCorrect: grading.NormalizeGroups(canonical),
		PerBlank:       result.PerBlank,
		IsCorrect:      result.IsCorrect,
		DurationMs:     req.DurationMs,
		Difficulty:     q.Difficulty,
		Tags:           q.Tags,
		PatternID:      q.PatternID,
		Overtime:       s.budgets.Overtime(q.Difficulty, req.DurationMs),
		CreatedAt:      now,
	}

	id, err := s.attempts.Insert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("store attempt: %w", err)
	}
	a.ID = id
	s.logger.Info("attempt graded",
		"user", a.UserID,
		"question", a.QuestionID,
		"correct", a.IsCorrect,
		"overtime", a.Overtime,
		"incorrect_blanks", result.IncorrectBlanks(),
	)

	if a.PatternID != "" {
		if err := s.refreshMastery(ctx, a.UserID, a.PatternID, now); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// refreshMastery recomputes and stores the record for (userID, patternID).
func (s *Service) refreshMastery(ctx context.Context, userID, patternID string, now time.Time) error {
	history, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	rec, ok := s.thresholds.Compute(history, userID, patternID, now)
	if !ok {
		return nil
	}

	previous, err := s.mastery.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load mastery: %w", err)
	}
	tr := mastery.Transition{UserID: userID, PatternID: patternID, To: rec.Status}
	for _, p := range previous {
		if p.PatternID == patternID {
			tr.From = p.Status
			break
		}
	}

	if err := s.mastery.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store mastery: %w", err)
	}
	if tr.Changed() {
		s.logger.Info("mastery status changed",
			"user", tr.UserID, "pattern", tr.PatternID, "from", tr.From, "to", tr.To)
	}
	return nil
}

// SessionRequest asks for a new practice session.
type SessionRequest struct {
	UserID           string
	Mode             string
	Tags             []string
	TargetDifficulty *int
	Size             int
}

// GenerateSession validates req, builds a session from the user's history
// and stores it.
func (s *Service) GenerateSession(ctx context.Context, req SessionRequest) (*session.Session, error) {
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		return nil, requestError(CodeInvalidMode, "mode must be tag, review or daily, got %q", req.Mode)
	}
	if req.Size <= 0 {
		return nil, requestError(CodeInvalidSize, "size must be a positive integer, got %d", req.Size)
	}
	if mode == session.ModeTag && len(req.Tags) == 0 {
		return nil, requestError(CodeTagsRequired, "tag mode requires at least one tag")
	}
	if t := req.TargetDifficulty; t != nil && (*t < budget.MinDifficulty || *t > budget.MaxDifficulty) {
		return nil, requestError(CodeInvalidTargetDifficulty, "target difficulty must be in [%d, %d], got %d",
			budget.MinDifficulty, budget.MaxDifficulty, *t)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	history, err := s.attempts.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	sess, err := s.generator.Generate(session.Request{
		Mode:             mode,
		Tags:             tags,
		TargetDifficulty: req.TargetDifficulty,
		Size:             req.Size,
		UserID:           req.UserID,
	}, history)
	if errors.Is(err, session.ErrNoCandidates) {
		return nil, &GenerationError{Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("generate session: %w", err)
	}

	if err := s.sessions.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("session generated",
		"session", sess.ID,
		"user", sess.UserID,
		"mode", sess.Mode,
		"used_mode", sess.Explain.Mode,
		"questions", len(sess.QuestionIDs),
		"recommended_difficulty", sess.RecommendedDifficulty,
	)
	return sess, nil
}

// QuestionSummary is the catalog metadata of one session question.
type QuestionSummary struct {
	ID         string   `json:"question_id"`
	Title      string   `json:"title,omitempty"`
	PatternID  string   `json:"pattern_id,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
	Tags       []string `json:"tags"`
	Blanks     []string `json:"blanks"`
}

// SessionView is a stored session with its questions resolved.
type SessionView struct {
	*session.Session
	Questions []QuestionSummary `json:"questions"`
}

// GetSession returns the session sessionID if it belongs to userID.
// Questions no longer in the catalog are omitted from the view.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Kind: "session", ID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != userID {
		return nil, &NotFoundError{Kind: "session", ID: sessionID}
	}

	view := &SessionView{Session: sess, Questions: []QuestionSummary{}}
	for _, id := range sess.QuestionIDs {
		q, ok := s.catalog.Question(id)
		if !ok {
			continue
		}
		summary := QuestionSummary{
			ID:         q.ID,
			Title:      q.Title,
			PatternID:  q.PatternID,
			Difficulty: q.Difficulty,
			Tags:       q.Tags,
			Blanks:     []string{},
		}
		if groups, ok := s.catalog.AnswerGroups(id); ok {
			summary.Blanks = groupKeys(groups)
		}
		view.Questions = append(view.Questions, summary)
	}
	return view, nil
}

// StatsReport is the result of Stats.
type StatsReport struct {
	GroupBy    stats.GroupBy `json:"group_by"`
	WindowDays *int          `json:"window_days"`
	Stats      []stats.Group `json:"stats"`
}

// Stats aggregates the user's attempts by groupBy. windowDays of 0 uses
// the whole history.
func (s *Service) Stats(ctx context.Context, userID, groupBy string, windowDays int) (*StatsReport, error) {
	by, err := stats.ParseGroupBy(groupBy)
	if err != nil {
		return nil, requestError(CodeInvalidGroupBy, "%v", err)
	}
	if windowDays < 0 {
		return nil, requestError(CodeInvalidWindowDays, "window_days must be positive, got %d", windowDays)
	}

	history, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	report := &StatsReport{
		GroupBy: by,
		Stats:   stats.Compute(history, stats.Options{GroupBy: by, WindowDays: windowDays, Now: s.now()}),
	}
	if windowDays > 0 {
		report.WindowDays = &windowDays
	}
	if report.Stats == nil {
		report.Stats = []stats.Group{}
	}
	return report, nil
}

// Mastery returns the user's stored mastery records.
func (s *Service) Mastery(ctx context.Context, userID string) ([]mastery.Record, error) {
	recs, err := s.mastery.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load mastery: %w", err)
	}
	if recs == nil {
		recs = []mastery.Record{}
	}
	return recs, nil
}

// Calibration runs the calibration analysis over every stored attempt.
func (s *Service) Calibration(ctx context.Context) (*calibration.Report, error) {
	all, err := s.attempts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	report := calibration.New(s.calibration, s.budgets, s.catalog).Analyze(all)
	s.logger.Debug("calibration analyzed",
		"eligible_attempts", report.EligibleAttempts,
		"eligible_users", report.EligibleUsers,
		"gated", report.Gated,
	)
	return &report, nil
}

// Overview reports corpus totals and every grouping over all attempts.
func (s *Service) Overview(ctx context.Context) (*stats.Overview, error) {
	all, err := s.attempts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	ov, err := stats.ComputeOverview(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("compute overview: %w", err)
	}
	return ov, nil
}

// Budgets returns the time-budget table in use.
func (s *Service) Budgets() budget.Table {
	return s.budgets
}

func groupKeys(groups map[string]grading.Value) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
