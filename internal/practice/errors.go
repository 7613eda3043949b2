package practice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/kakomon/internal/grading"
)

// Stable error codes reported by ErrorCode.
const (
	CodeInvalidAnswer           = "INVALID_ANSWER"
	CodeQuestionNotFound        = "QUESTION_NOT_FOUND"
	CodeSessionNotFound         = "SESSION_NOT_FOUND"
	CodeAnswerNotAvailable      = "ANSWER_NOT_AVAILABLE"
	CodeNoCandidates            = "NO_CANDIDATES"
	CodeInvalidMode             = "INVALID_MODE"
	CodeInvalidSize             = "INVALID_SIZE"
	CodeTagsRequired            = "TAGS_REQUIRED"
	CodeInvalidTargetDifficulty = "INVALID_TARGET_DIFFICULTY"
	CodeInvalidGroupBy          = "INVALID_GROUP_BY"
	CodeInvalidWindowDays       = "INVALID_WINDOW_DAYS"
	CodeQuestionIDRequired      = "QUESTION_ID_REQUIRED"
	CodeDurationInvalid         = "DURATION_MS_INVALID"
)

// ValidationError reports a submission the grader rejected. Issues holds
// every problem found.
type ValidationError struct {
	Issues []grading.Issue
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Code returns CodeInvalidAnswer.
func (e *ValidationError) Code() string { return CodeInvalidAnswer }

// NotFoundError reports a missing question or session.
type NotFoundError struct {
	Kind string // "question" or "session"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Code returns QUESTION_NOT_FOUND or SESSION_NOT_FOUND.
func (e *NotFoundError) Code() string {
	return strings.ToUpper(e.Kind) + "_NOT_FOUND"
}

// DataIntegrityError reports a catalog question without canonical answers.
type DataIntegrityError struct {
	QuestionID string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("question %q has no canonical answers", e.QuestionID)
}

// Code returns CodeAnswerNotAvailable.
func (e *DataIntegrityError) Code() string { return CodeAnswerNotAvailable }

// GenerationError reports a session request with an empty candidate pool.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate session: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Code returns CodeNoCandidates.
func (e *GenerationError) Code() string { return CodeNoCandidates }

// RequestError reports a malformed request parameter.
type RequestError struct {
	code    string
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Code returns the request error code, such as INVALID_SIZE.
func (e *RequestError) Code() string { return e.code }

func requestError(code, format string, args ...any) error {
	return &RequestError{code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode returns the stable code carried by err or any error it wraps,
// or "" when there is none.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
