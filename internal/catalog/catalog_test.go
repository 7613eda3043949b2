package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/grading"
)

func TestNew_BuildsTagIndexInOrder(t *testing.T) {
	b, err := New([]Question{
		{ID: "q1", PatternID: "p1", Tags: []string{"t1"}},
		{ID: "q2", PatternID: "p2", Tags: []string{"t1", "t2"}},
		{ID: "q3", PatternID: "p1", Tags: []string{"t1"}},
		{ID: "q4", Tags: []string{"t2", ""}},
	})
	require.NoError(t, err)

	idx := b.TagIndex()
	assert.Equal(t, []string{"t1", "t2"}, idx.Tags())
	assert.Equal(t, []string{"p1", "p2"}, idx.Patterns("t1"))
	assert.Equal(t, []string{"q1", "q3"}, idx.QuestionIDs("t1", "p1"))
	assert.Equal(t, []string{"p2", attempt.UnspecifiedPattern}, idx.Patterns("t2"))
	assert.Equal(t, []string{"q4"}, idx.QuestionIDs("t2", attempt.UnspecifiedPattern))
	assert.Equal(t, 3, idx.Count("t1"))
	assert.Empty(t, idx.Patterns("missing"))

	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, b.AllQuestionIDs())
	assert.Equal(t, []string{"p1", "p2", attempt.UnspecifiedPattern}, b.Patterns())
}

func TestBank_Lookups(t *testing.T) {
	b, err := New([]Question{
		{ID: "q1", PatternID: "p1", Difficulty: 4, Tags: []string{"t"}, Answers: map[string]grading.Value{"AB": grading.String("12")}},
		{ID: "q2"},
	})
	require.NoError(t, err)

	entry, ok := b.QuestionIndex("q1")
	require.True(t, ok)
	assert.Equal(t, IndexEntry{PatternID: "p1", Difficulty: 4, Tags: []string{"t"}}, entry)

	_, ok = b.QuestionIndex("nope")
	assert.False(t, ok)

	groups, ok := b.AnswerGroups("q1")
	require.True(t, ok)
	assert.Equal(t, "12", groups["AB"].Chars())

	_, ok = b.AnswerGroups("q2")
	assert.False(t, ok, "question without answers")

	q, ok := b.Question("q2")
	require.True(t, ok)
	assert.Equal(t, grading.DefaultAlphabet, q.Alphabet())
}

func questionIDs(qs []*Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestBank_ExamsAndSearch(t *testing.T) {
	b, err := New([]Question{
		{ID: "q1", PatternID: "p1", Tags: []string{"t1"}, ExamID: "2024"},
		{ID: "q2", PatternID: "p2", Tags: []string{"t2"}, ExamID: "2023"},
		{ID: "q3", PatternID: "p1", Tags: []string{"t2"}, ExamID: "2024"},
		{ID: "q4", Tags: []string{"t1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2023", "2024"}, b.Exams())
	assert.Equal(t, []string{"q1", "q3"}, questionIDs(b.QuestionsByExam("2024")))
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, questionIDs(b.QuestionsByExam("")))
	assert.Empty(t, b.QuestionsByExam("1999"))

	tests := []struct {
		name         string
		tag, pattern string
		want         []string
	}{
		{"tag only", "t1", "", []string{"q1", "q4"}},
		{"pattern only", "", "p1", []string{"q1", "q3"}},
		{"union without duplicates", "t2", "p1", []string{"q2", "q3", "q1"}},
		{"unspecified pattern", "", attempt.UnspecifiedPattern, []string{"q4"}},
		{"unknown", "nope", "nope", []string{}},
		{"nothing requested", "", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, questionIDs(b.Search(tt.tag, tt.pattern)))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
		wantErr   string
	}{
		{
			name:      "valid",
			questions: []Question{{ID: "a", Difficulty: 5}, {ID: "b"}},
		},
		{
			name:      "duplicate id",
			questions: []Question{{ID: "a"}, {ID: "a"}},
			wantErr:   `duplicate question ID: "a"`,
		},
		{
			name:      "missing id",
			questions: []Question{{PatternID: "p"}},
			wantErr:   "has no question_id",
		},
		{
			name:      "difficulty out of range",
			questions: []Question{{ID: "a", Difficulty: 6}},
			wantErr:   "difficulty must be in [1, 5], got 6",
		},
		{
			name:      "answer length mismatch",
			questions: []Question{{ID: "a", Answers: map[string]grading.Value{"AB": grading.String("1")}}},
			wantErr:   "answer length 1 does not match group length 2",
		},
		{
			name:      "empty answer",
			questions: []Question{{ID: "a", Answers: map[string]grading.Value{"A": grading.String("")}}},
			wantErr:   "answer is empty",
		},
		{
			name:      "multi character allowed char",
			questions: []Question{{ID: "a", BlankRules: &BlankRules{AllowedChars: []string{"ab"}}}},
			wantErr:   "must be a single character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.questions)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	b, err := Load(filepath.Join("testdata", "basic"))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())

	groups, ok := b.AnswerGroups("q1")
	require.True(t, ok)
	assert.Equal(t, "12", groups["AB"].Chars())

	groups, ok = b.AnswerGroups("q2")
	require.True(t, ok)
	assert.Equal(t, grading.KindNumber, groups["C"].Kind())
	assert.Equal(t, "7", groups["C"].Chars())

	groups, ok = b.AnswerGroups("q3")
	require.True(t, ok)
	assert.Equal(t, "-4", groups["DE"].Chars())

	groups, ok = b.AnswerGroups("q4")
	require.True(t, ok, "inline answers survive when answers.json has none for the question")
	assert.Equal(t, "5", groups["A"].Chars())

	q3, _ := b.Question("q3")
	assert.True(t, q3.Alphabet().Allows('/'))

	assert.Equal(t, []string{"algebra", "linear", "geometry"}, b.TagIndex().Tags())
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "badversion"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoad_MissingCatalog(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogFile, `{"questions": [{"question_id": "q1", "difficulty": "hard"}]}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestLoad_AnswersForUnknownQuestion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogFile, `{"questions": [{"question_id": "q1"}]}`)
	writeFile(t, dir, AnswersFile, `{"answers": {"zzz": {"A": "1"}}}`)

	_, err := Load(dir)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{`answers reference unknown question "zzz"`}, verr.Problems)
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"", false},
		{"1", false},
		{"v1", false},
		{"1.4.2", false},
		{"v1.0.0-beta", false},
		{"2.0.0", true},
		{"0.9.0", true},
		{"latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := checkVersion(tt.version)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedVersion)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
