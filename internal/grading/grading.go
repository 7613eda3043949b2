// Package grading scores a submitted attempt against canonical answer groups.
//
// A group key is a string whose characters name individual blanks; the
// group's value holds one answer character per blank, in key order. Grading
// expands both sides into per-blank maps and compares them blank by blank.
// Grade is a pure function and safe for concurrent use.
package grading

import (
	"fmt"
	"sort"
	"strings"
)

// Issue codes reported by Grade.
const (
	CodeUserAnswerMissing        = "USER_ANSWER_MISSING"
	CodeUserAnswerInvalid        = "USER_ANSWER_INVALID"
	CodeUserAnswerLengthMismatch = "USER_ANSWER_LENGTH_MISMATCH"
	CodeUserAnswerCharInvalid    = "USER_ANSWER_CHAR_INVALID"
	CodeUserAnswerExtra          = "USER_ANSWER_EXTRA"
	CodeAnswerLengthMismatch     = "ANSWER_LENGTH_MISMATCH"
	CodeAnswerValueInvalid       = "ANSWER_VALUE_INVALID"
)

// DefaultAlphabet is the set of characters a blank accepts unless the
// question overrides it.
const DefaultAlphabet Alphabet = "-0123456789"

// Alphabet is the set of characters allowed in a blank.
type Alphabet string

// AlphabetOf builds an alphabet from a per-question character list.
// An empty list yields DefaultAlphabet.
func AlphabetOf(chars []string) Alphabet {
	if len(chars) == 0 {
		return DefaultAlphabet
	}
	return Alphabet(strings.Join(chars, ""))
}

// Allows reports whether r is a member of the alphabet.
func (a Alphabet) Allows(r rune) bool {
	if a == "" {
		a = DefaultAlphabet
	}
	return strings.ContainsRune(string(a), r)
}

// Issue is a single validation problem found while grading.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Group   string `json:"group,omitempty"`
}

// ValidationError carries every issue found in one grading call.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Code + ": " + is.Message
	}
	return fmt.Sprintf("invalid answer (%d issues): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Codes returns the issue codes in report order.
func (e *ValidationError) Codes() []string {
	codes := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		codes[i] = is.Code
	}
	return codes
}

// BlankResult is the grading outcome for one blank. Actual is nil when the
// learner left the blank unanswered.
type BlankResult struct {
	Expected  string  `json:"expected"`
	Actual    *string `json:"actual"`
	IsCorrect bool    `json:"is_correct"`
}

// Result is a successful grading outcome.
type Result struct {
	PerBlank  map[string]BlankResult
	IsCorrect bool
}

// IncorrectBlanks returns the ids of blanks graded incorrect, sorted.
func (r *Result) IncorrectBlanks() []string {
	var ids []string
	for id, b := range r.PerBlank {
		if !b.IsCorrect {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Grade compares submitted groups against canonical groups.
//
// All validation problems are collected before returning; if any exist the
// call returns a *ValidationError and no partial result.
func Grade(canonical, submitted map[string]Value, alphabet Alphabet) (*Result, error) {
	if submitted == nil {
		return nil, &ValidationError{Issues: []Issue{{
			Code:    CodeUserAnswerMissing,
			Message: "user answers are required",
		}}}
	}

	var issues []Issue
	userKeys := sortedKeys(submitted)

	for _, key := range userKeys {
		val := submitted[key]
		if !val.IsString() {
			issues = append(issues, Issue{
				Code:    CodeUserAnswerInvalid,
				Message: fmt.Sprintf("answer for %s must be a string, got %s", key, val.Kind()),
				Group:   key,
			})
			continue
		}
		chars := []rune(val.Chars())
		if n := len([]rune(key)); len(chars) != n {
			issues = append(issues, Issue{
				Code:    CodeUserAnswerLengthMismatch,
				Message: fmt.Sprintf("answer length %d does not match group length %d", len(chars), n),
				Group:   key,
			})
		}
		for _, r := range chars {
			if !alphabet.Allows(r) {
				issues = append(issues, Issue{
					Code:    CodeUserAnswerCharInvalid,
					Message: fmt.Sprintf("invalid character %q in %s", r, key),
					Group:   key,
				})
				break
			}
		}
	}

	expected := make(map[string]string)
	declared := make(map[string]bool)
	for _, key := range sortedKeys(canonical) {
		blanks := []rune(key)
		for _, b := range blanks {
			declared[string(b)] = true
		}
		chars := []rune(canonical[key].Chars())
		if len(chars) == 0 {
			issues = append(issues, Issue{
				Code:    CodeAnswerValueInvalid,
				Message: "answer value is empty",
				Group:   key,
			})
			continue
		}
		if len(chars) != len(blanks) {
			issues = append(issues, Issue{
				Code:    CodeAnswerLengthMismatch,
				Message: fmt.Sprintf("answer length %d does not match group length %d", len(chars), len(blanks)),
				Group:   key,
			})
			continue
		}
		for i, b := range blanks {
			expected[string(b)] = string(chars[i])
		}
	}

	reported := make(map[string]bool)
	for _, key := range userKeys {
		for _, b := range key {
			blank := string(b)
			if declared[blank] || reported[blank] {
				continue
			}
			reported[blank] = true
			issues = append(issues, Issue{
				Code:    CodeUserAnswerExtra,
				Message: fmt.Sprintf("unexpected blank %q in user answers", blank),
				Group:   key,
			})
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	perBlank := make(map[string]BlankResult, len(expected))
	for _, key := range userKeys {
		chars := []rune(submitted[key].Chars())
		for i, b := range []rune(key) {
			blank := string(b)
			actual := string(chars[i])
			want := expected[blank]
			perBlank[blank] = BlankResult{
				Expected:  want,
				Actual:    &actual,
				IsCorrect: want == actual,
			}
		}
	}
	for blank, want := range expected {
		if _, ok := perBlank[blank]; !ok {
			perBlank[blank] = BlankResult{Expected: want}
		}
	}

	correct := true
	for _, b := range perBlank {
		if !b.IsCorrect {
			correct = false
			break
		}
	}
	return &Result{PerBlank: perBlank, IsCorrect: correct}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
