package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned when a manual submit has zero options chosen.
	ErrNoSelection = errors.New("no option selected")
	// ErrNoQuestions indicates the category returned an empty question list.
	ErrNoQuestions = errors.New("no questions available for category")
	// ErrNotReady is returned by Start before a non-empty question list is loaded.
	ErrNotReady = errors.New("questions not loaded")
	// ErrNotInProgress is returned by per-question operations outside a running session.
	ErrNotInProgress = errors.New("quiz session is not in progress")
	// ErrInvalidTransition rejects an operation the current session state does not allow.
	ErrInvalidTransition = errors.New("operation not allowed in current session state")
	// ErrAlreadyAnswered rejects a second result for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered rejects advancing past a question without a result.
	ErrNotAnswered = errors.New("question not answered yet")
	// ErrUnknownOption indicates an option key the question does not declare.
	ErrUnknownOption = errors.New("option not found")
	// ErrLoadInProgress rejects operations while questions are being fetched.
	ErrLoadInProgress = errors.New("questions are loading")
	// ErrStaleLoad marks a fetch response discarded because a newer load started.
	ErrStaleLoad = errors.New("stale question response discarded")
	// ErrCategoryRequired indicates an empty category.
	ErrCategoryRequired = errors.New("category is required")
	// ErrCategoryNotFound indicates the question bank has no such category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidSubmission indicates an aggregate that does not add up.
	ErrInvalidSubmission = errors.New("invalid quiz submission")
	// ErrStatsNotUpdated marks a stored submission whose stats update failed.
	ErrStatsNotUpdated = errors.New("result stored, stats not updated")
	// ErrUnauthorized indicates a missing or invalid bearer credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionClosed is returned after the controller is closed.
	ErrSessionClosed = errors.New("quiz session closed")
)

// LoadError reports a failed question fetch. It is recoverable: the caller may
// load again.
type LoadError struct {
	Category string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load questions for %q: %v", e.Category, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SubmissionError reports a failed result post. The session result stays valid.
type SubmissionError struct {
	Category string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit results for %q: %v", e.Category, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
