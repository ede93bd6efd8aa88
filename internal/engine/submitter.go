package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"quiz-session-engine/internal/domain"
)

// DefaultSubmitTimeout bounds the single submission attempt.
const DefaultSubmitTimeout = 15 * time.Second

// SubmissionStatus tracks the one submission attempt of a completed session.
type SubmissionStatus string

const (
	SubmissionNone      SubmissionStatus = ""
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// BuildAggregate packages a finished session for the backend.
func BuildAggregate(category string, results []domain.ResultRecord, completedAt time.Time) domain.Aggregate {
	records := make([]domain.ResultRecord, len(results))
	copy(records, results)
	return domain.Aggregate{
		Category:       category,
		Results:        records,
		Score:          ScorePercentage(records),
		TotalQuestions: len(records),
		CompletedAt:    completedAt.UTC(),
	}
}

// submit makes the single submission attempt for a completed session. It never
// retries and never touches the Completed state or the score; it only records
// and announces the outcome when the session epoch is still current.
func (c *Controller) submit(ctx context.Context, epoch uint64, aggregate domain.Aggregate) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.submitTimeout)
	defer cancel()

	err := c.submitter.SubmitResults(ctx, aggregate)

	c.mu.Lock()
	current := c.epoch == epoch
	if current {
		if err != nil {
			c.submission = SubmissionFailed
			c.submissionErr = err.Error()
		} else {
			c.submission = SubmissionSucceeded
		}
		c.broadcastLocked()
	}
	c.mu.Unlock()

	if !current {
		// The player restarted meanwhile; the outcome belongs to a discarded session.
		c.logger.Debug("quiz result submission finished after restart",
			zap.String("category", aggregate.Category),
			zap.Bool("failed", err != nil),
		)
		return
	}
	if err != nil {
		subErr := &domain.SubmissionError{Category: aggregate.Category, Err: err}
		c.logger.Warn("quiz result submission failed",
			zap.String("category", aggregate.Category),
			zap.Int("score", aggregate.Score),
			zap.Error(err),
		)
		c.notifier.Notify(Notification{Level: LevelError, Message: "Failed to save quiz results.", Err: subErr})
		return
	}
	c.logger.Info("quiz results submitted",
		zap.String("category", aggregate.Category),
		zap.Int("score", aggregate.Score),
		zap.Int("total", aggregate.TotalQuestions),
	)
	c.notifier.Notify(Notification{Level: LevelSuccess, Message: "Quiz results saved successfully!"})
}
