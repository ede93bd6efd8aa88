package engine

import (
	"context"

	"quiz-session-engine/internal/domain"
)

// QuestionSource supplies the ordered question list for a category.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, category string) ([]domain.Question, error)
}

// ResultSubmitter posts a completed session aggregate to the backend.
type ResultSubmitter interface {
	SubmitResults(ctx context.Context, aggregate domain.Aggregate) error
}

// SourceFunc adapts a function to QuestionSource.
type SourceFunc func(ctx context.Context, category string) ([]domain.Question, error)

func (f SourceFunc) FetchQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	return f(ctx, category)
}

// SubmitterFunc adapts a function to ResultSubmitter.
type SubmitterFunc func(ctx context.Context, aggregate domain.Aggregate) error

func (f SubmitterFunc) SubmitResults(ctx context.Context, aggregate domain.Aggregate) error {
	return f(ctx, aggregate)
}

// Level classifies a user-visible notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a non-blocking message for the user (toast style).
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
