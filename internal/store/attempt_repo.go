package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/kakomon/internal/attempt"
)

var attemptColumns = []string{
	"id", "user_id", "question_id", "answers_user", "answers_correct", "per_blank",
	"is_correct", "duration_ms", "difficulty", "tags", "pattern_id", "overtime", "created_at",
}

// attemptRepo implements AttemptRepo with ent SQL builders.
type attemptRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *attemptRepo) Insert(ctx context.Context, a *attempt.Attempt) (int64, error) {
	answersUser, err := jsonText(a.AnswersUser)
	if err != nil {
		return 0, fmt.Errorf("marshal answers_user: %w", err)
	}
	answersCorrect, err := jsonText(a.AnswersCorrect)
	if err != nil {
		return 0, fmt.Errorf("marshal answers_correct: %w", err)
	}
	perBlank, err := jsonText(a.PerBlank)
	if err != nil {
		return 0, fmt.Errorf("marshal per_blank: %w", err)
	}
	tags, err := jsonText(nonNil(a.Tags))
	if err != nil {
		return 0, fmt.Errorf("marshal tags: %w", err)
	}

	query, args := builder().Insert(attemptsTable).
		Columns(attemptColumns[1:]...).
		Values(a.UserID, a.QuestionID, answersUser, answersCorrect, perBlank,
			a.IsCorrect, a.DurationMs, a.Difficulty, tags, a.PatternID, a.Overtime, a.CreatedAt.UTC()).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read attempt id: %w", err)
	}
	r.logger.Debug("attempt stored", "id", id, "user", a.UserID, "question", a.QuestionID)
	return id, nil
}

func (r *attemptRepo) ListByUser(ctx context.Context, userID string) ([]attempt.Attempt, error) {
	return r.list(ctx, entsql.EQ("user_id", userID))
}

func (r *attemptRepo) ListAll(ctx context.Context) ([]attempt.Attempt, error) {
	return r.list(ctx, nil)
}

func (r *attemptRepo) list(ctx context.Context, where *entsql.Predicate) ([]attempt.Attempt, error) {
	b := builder()
	sel := b.Select(attemptColumns...).From(b.Table(attemptsTable)).OrderBy("id")
	if where != nil {
		sel.Where(where)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []attempt.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

func scanAttempt(rows *sql.Rows) (attempt.Attempt, error) {
	var (
		a                                           attempt.Attempt
		answersUser, answersCorrect, perBlank, tags []byte
	)
	err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &answersUser, &answersCorrect, &perBlank,
		&a.IsCorrect, &a.DurationMs, &a.Difficulty, &tags, &a.PatternID, &a.Overtime, &a.CreatedAt)
	if err != nil {
		return a, fmt.Errorf("scan attempt: %w", err)
	}
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"answers_user", answersUser, &a.AnswersUser},
		{"answers_correct", answersCorrect, &a.AnswersCorrect},
		{"per_blank", perBlank, &a.PerBlank},
		{"tags", tags, &a.Tags},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return a, fmt.Errorf("unmarshal attempt %d %s: %w", a.ID, col.name, err)
		}
	}
	return a, nil
}

// jsonText encodes v for a JSON column.
func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
