package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	attemptsTable = "attempts"
	masteryTable  = "mastery_records"
	sessionsTable = "sessions"
)

var (
	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "answers_user", Type: field.TypeJSON},
		{Name: "answers_correct", Type: field.TypeJSON},
		{Name: "per_blank", Type: field.TypeJSON},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "duration_ms", Type: field.TypeInt64},
		{Name: "difficulty", Type: field.TypeInt, Default: 0},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "pattern_id", Type: field.TypeString, Default: ""},
		{Name: "overtime", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	AttemptsTable = &schema.Table{
		Name:       attemptsTable,
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "attempt_user_id", Columns: []*schema.Column{AttemptsColumns[1]}},
			{Name: "attempt_question_id", Columns: []*schema.Column{AttemptsColumns[2]}},
			{Name: "attempt_created_at", Columns: []*schema.Column{AttemptsColumns[12]}},
		},
	}

	// MasteryColumns holds the columns for the "mastery_records" table.
	MasteryColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "pattern_id", Type: field.TypeString},
		{Name: "accuracy", Type: field.TypeFloat64},
		{Name: "overtime_rate", Type: field.TypeFloat64},
		{Name: "consecutive_correct", Type: field.TypeInt},
		{Name: "status", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// MasteryTable holds the schema information for the "mastery_records" table.
	MasteryTable = &schema.Table{
		Name:       masteryTable,
		Columns:    MasteryColumns,
		PrimaryKey: []*schema.Column{MasteryColumns[0]},
		Indexes: []*schema.Index{
			{Name: "mastery_user_pattern", Unique: true, Columns: []*schema.Column{MasteryColumns[1], MasteryColumns[2]}},
		},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "session_id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "target_difficulty", Type: field.TypeInt, Nullable: true},
		{Name: "size", Type: field.TypeInt},
		{Name: "question_ids", Type: field.TypeJSON},
		{Name: "recommended_difficulty", Type: field.TypeInt},
		{Name: "time_budget", Type: field.TypeInt},
		{Name: "explanation", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       sessionsTable,
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_id", Columns: []*schema.Column{SessionsColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AttemptsTable,
		MasteryTable,
		SessionsTable,
	}
)
