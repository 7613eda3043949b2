package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kakomon/internal/catalog"
)

func TestQuestionListing(t *testing.T) {
	out := questionListing([]*catalog.Question{
		{ID: "q1", ExamID: "2024", PatternID: "p1", Difficulty: 2, Tags: []string{"t1"}},
		{ID: "q2"},
	})

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[
		{"question_id":"q1","exam_id":"2024","pattern_id":"p1","difficulty":2,"tags":["t1"]},
		{"question_id":"q2","tags":[]}
	]}`, string(b))

	b, err = json.Marshal(questionListing(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[]}`, string(b))
}
