package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/kakomon/internal/session"
)

// sessionRepo implements SessionRepo with ent SQL builders.
type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Insert(ctx context.Context, s *session.Session) error {
	tags, err := jsonText(nonNil(s.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	ids, err := jsonText(nonNil(s.QuestionIDs))
	if err != nil {
		return fmt.Errorf("marshal question_ids: %w", err)
	}
	explain, err := jsonText(s.Explain)
	if err != nil {
		return fmt.Errorf("marshal explain: %w", err)
	}

	var target sql.NullInt64
	if s.TargetDifficulty != nil {
		target = sql.NullInt64{Int64: int64(*s.TargetDifficulty), Valid: true}
	}

	query, args := builder().Insert(sessionsTable).
		Columns("session_id", "user_id", "mode", "tags", "target_difficulty", "size",
			"question_ids", "recommended_difficulty", "time_budget", "explanation", "created_at").
		Values(s.ID, s.UserID, string(s.Mode), tags, target, s.Size,
			ids, s.RecommendedDifficulty, s.TimeBudget, explain, s.CreatedAt.UTC()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	b := builder()
	query, args := b.Select("session_id", "user_id", "mode", "tags", "target_difficulty", "size",
		"question_ids", "recommended_difficulty", "time_budget", "explanation", "created_at").
		From(b.Table(sessionsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		Limit(1).
		Query()

	var (
		s                  session.Session
		mode               string
		tags, ids, explain []byte
		target             sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.UserID, &mode, &tags, &target, &s.Size,
		&ids, &s.RecommendedDifficulty, &s.TimeBudget, &explain, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}

	s.Mode = session.Mode(mode)
	if target.Valid {
		d := int(target.Int64)
		s.TargetDifficulty = &d
	}
	if err := json.Unmarshal(tags, &s.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal session tags: %w", err)
	}
	if err := json.Unmarshal(ids, &s.QuestionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal session question_ids: %w", err)
	}
	if err := json.Unmarshal(explain, &s.Explain); err != nil {
		return nil, fmt.Errorf("unmarshal session explain: %w", err)
	}
	return &s, nil
}
