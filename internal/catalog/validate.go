package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/grading"
)

// ValidationError lists every structural problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Validate performs all structural checks on questions and returns a
// *ValidationError describing every problem found, or nil.
func Validate(questions []Question) error {
	var errs []string

	ids := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			errs = append(errs, fmt.Sprintf("question at index %d has no question_id", i))
			continue
		}
		if ids[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question ID: %q", q.ID))
		}
		ids[q.ID] = true
	}

	for _, q := range questions {
		if q.Difficulty != 0 && (q.Difficulty < budget.MinDifficulty || q.Difficulty > budget.MaxDifficulty) {
			errs = append(errs, fmt.Sprintf("question %q: difficulty must be in [%d, %d], got %d",
				q.ID, budget.MinDifficulty, budget.MaxDifficulty, q.Difficulty))
		}

		if q.BlankRules != nil {
			for _, c := range q.BlankRules.AllowedChars {
				if utf8.RuneCountInString(c) != 1 {
					errs = append(errs, fmt.Sprintf("question %q: allowed_chars entry %q must be a single character", q.ID, c))
				}
			}
		}

		for _, key := range sortedGroupKeys(q.Answers) {
			val := q.Answers[key].Chars()
			if val == "" {
				errs = append(errs, fmt.Sprintf("question %q group %q: answer is empty", q.ID, key))
				continue
			}
			if k, v := utf8.RuneCountInString(key), utf8.RuneCountInString(val); k != v {
				errs = append(errs, fmt.Sprintf("question %q group %q: answer length %d does not match group length %d", q.ID, key, v, k))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func sortedGroupKeys(groups map[string]grading.Value) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
