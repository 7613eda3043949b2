// Package catalog provides read-only access to the question bank: per-question
// metadata, the tag index used to build candidate pools, and canonical answer
// groups used for grading.
package catalog

import (
	"slices"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/grading"
)

// Question is one exam question as described by the catalog.
type Question struct {
	ID         string                   `json:"question_id"`
	PatternID  string                   `json:"pattern_id,omitempty"`
	Difficulty int                      `json:"difficulty,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	ExamID     string                   `json:"exam_id,omitempty"`
	Title      string                   `json:"title,omitempty"`
	BlankRules *BlankRules              `json:"blank_rules,omitempty"`
	Answers    map[string]grading.Value `json:"answers,omitempty"`
}

// BlankRules holds per-question grading overrides.
type BlankRules struct {
	AllowedChars []string `json:"allowed_chars,omitempty"`
}

// Alphabet returns the characters a blank of q accepts.
func (q *Question) Alphabet() grading.Alphabet {
	if q.BlankRules == nil {
		return grading.DefaultAlphabet
	}
	return grading.AlphabetOf(q.BlankRules.AllowedChars)
}

// IndexEntry is the metadata the session generator needs for one question.
// Difficulty is 0 when unknown.
type IndexEntry struct {
	PatternID  string
	Difficulty int
	Tags       []string
}

// Catalog is the read-only content source consumed by the practice engine.
type Catalog interface {
	Question(id string) (*Question, bool)
	QuestionIndex(id string) (IndexEntry, bool)
	AllQuestionIDs() []string
	TagIndex() *TagIndex
	AnswerGroups(id string) (map[string]grading.Value, bool)
}

// Bank is an in-memory Catalog built from a list of questions.
type Bank struct {
	questions map[string]*Question
	order     []string
	tags      *TagIndex
	patterns  []string
	byPattern map[string][]string
}

var _ Catalog = (*Bank)(nil)

// New builds a Bank from questions, preserving their order. It returns a
// *ValidationError if the questions are structurally inconsistent.
func New(questions []Question) (*Bank, error) {
	if err := Validate(questions); err != nil {
		return nil, err
	}

	b := &Bank{
		questions: make(map[string]*Question, len(questions)),
		order:     make([]string, 0, len(questions)),
		tags:      newTagIndex(),
		byPattern: make(map[string][]string),
	}
	seenPattern := make(map[string]bool)
	for i := range questions {
		q := questions[i]
		b.questions[q.ID] = &q
		b.order = append(b.order, q.ID)

		pattern := q.PatternID
		if pattern == "" {
			pattern = attempt.UnspecifiedPattern
		}
		if !seenPattern[pattern] {
			seenPattern[pattern] = true
			b.patterns = append(b.patterns, pattern)
		}
		b.byPattern[pattern] = append(b.byPattern[pattern], q.ID)
		for _, tag := range q.Tags {
			if tag == "" {
				continue
			}
			b.tags.add(tag, pattern, q.ID)
		}
	}
	return b, nil
}

// Question returns the question with the given id.
func (b *Bank) Question(id string) (*Question, bool) {
	q, ok := b.questions[id]
	return q, ok
}

// QuestionIndex returns index metadata for id.
func (b *Bank) QuestionIndex(id string) (IndexEntry, bool) {
	q, ok := b.questions[id]
	if !ok {
		return IndexEntry{}, false
	}
	return IndexEntry{PatternID: q.PatternID, Difficulty: q.Difficulty, Tags: q.Tags}, true
}

// AllQuestionIDs returns every question id in catalog order.
func (b *Bank) AllQuestionIDs() []string {
	return append([]string(nil), b.order...)
}

// TagIndex returns the tag → pattern → ids index.
func (b *Bank) TagIndex() *TagIndex {
	return b.tags
}

// AnswerGroups returns the canonical answers for id. The second result is
// false when the question is unknown or has no answers on file.
func (b *Bank) AnswerGroups(id string) (map[string]grading.Value, bool) {
	q, ok := b.questions[id]
	if !ok || len(q.Answers) == 0 {
		return nil, false
	}
	return q.Answers, true
}

// Patterns returns the distinct pattern ids in order of first appearance.
// Questions with no pattern are reported under the unspecified pattern.
func (b *Bank) Patterns() []string {
	return append([]string(nil), b.patterns...)
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.order) }

// Exams returns the distinct exam ids, sorted. Questions without an exam
// id are not listed.
func (b *Bank) Exams() []string {
	var out []string
	for _, id := range b.order {
		if exam := b.questions[id].ExamID; exam != "" && !slices.Contains(out, exam) {
			out = append(out, exam)
		}
	}
	slices.Sort(out)
	return out
}

// QuestionsByExam returns the questions of examID in catalog order. An
// empty examID returns every question.
func (b *Bank) QuestionsByExam(examID string) []*Question {
	out := make([]*Question, 0)
	for _, id := range b.order {
		if q := b.questions[id]; examID == "" || q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out
}

// Search returns the union of the questions tagged tag and the questions
// of pattern. Tag matches come first, each id once. Empty arguments match
// nothing.
func (b *Bank) Search(tag, pattern string) []*Question {
	var ids []string
	if tag != "" {
		for _, p := range b.tags.Patterns(tag) {
			ids = append(ids, b.tags.QuestionIDs(tag, p)...)
		}
	}
	if pattern != "" {
		ids = append(ids, b.byPattern[pattern]...)
	}

	out := make([]*Question, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, b.questions[id])
	}
	return out
}
