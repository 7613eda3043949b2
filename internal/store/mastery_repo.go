package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/kakomon/internal/mastery"
)

// masteryRepo implements MasteryRepo with ent SQL builders.
type masteryRepo struct {
	db *sql.DB
}

func (r *masteryRepo) Upsert(ctx context.Context, rec mastery.Record) error {
	query, args := builder().Insert(masteryTable).
		Columns("user_id", "pattern_id", "accuracy", "overtime_rate", "consecutive_correct", "status", "updated_at").
		Values(rec.UserID, rec.PatternID, rec.Accuracy, rec.OvertimeRate, rec.ConsecutiveCorrect,
			string(rec.Status), rec.UpdatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id", "pattern_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert mastery %s/%s: %w", rec.UserID, rec.PatternID, err)
	}
	return nil
}

func (r *masteryRepo) ListByUser(ctx context.Context, userID string) ([]mastery.Record, error) {
	b := builder()
	query, args := b.Select("user_id", "pattern_id", "accuracy", "overtime_rate", "consecutive_correct", "status", "updated_at").
		From(b.Table(masteryTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("pattern_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mastery: %w", err)
	}
	defer rows.Close()

	var out []mastery.Record
	for rows.Next() {
		var rec mastery.Record
		var status string
		if err := rows.Scan(&rec.UserID, &rec.PatternID, &rec.Accuracy, &rec.OvertimeRate,
			&rec.ConsecutiveCorrect, &status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		rec.Status = mastery.Status(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mastery: %w", err)
	}
	return out, nil
}
