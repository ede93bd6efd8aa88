package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// DefaultQuestionLimit is the page size of /questions when no limit is given.
const DefaultQuestionLimit = 10

// QuestionRepository loads the question bank of a category (from cache/backing store).
type QuestionRepository interface {
	Questions(ctx context.Context, category string) ([]domain.Question, error)
}

// ResultRepository persists accepted quiz aggregates.
type ResultRepository interface {
	SaveResult(ctx context.Context, submission domain.StoredSubmission) error
}

// StatsRepository accumulates per-user answer tallies by difficulty.
type StatsRepository interface {
	AddResults(ctx context.Context, username string, results []domain.ResultRecord) error
	Stats(ctx context.Context, username string) (domain.DifficultyStats, error)
}

// BankService contains the question bank use cases behind the HTTP API.
type BankService struct {
	questions    QuestionRepository
	results      ResultRepository
	stats        StatsRepository
	defaultLimit int
	now          func() time.Time
	newID        func() string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankService(questions QuestionRepository, results ResultRepository, stats StatsRepository, defaultLimit int) *BankService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultQuestionLimit
	}
	return &BankService{
		questions:    questions,
		results:      results,
		stats:        stats,
		defaultLimit: defaultLimit,
		now:          time.Now,
		newID:        uuid.NewString,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewBankServiceWithClock fixes the receipt clock and the shuffle seed.
func NewBankServiceWithClock(questions QuestionRepository, results ResultRepository, stats StatsRepository, defaultLimit int, now func() time.Time, seed int64) *BankService {
	s := NewBankService(questions, results, stats, defaultLimit)
	s.now = now
	s.rnd = rand.New(rand.NewSource(seed))
	return s
}

// Questions returns up to limit shuffled questions of category. An unknown or
// empty category yields an empty list, not an error.
func (s *BankService) Questions(ctx context.Context, category string, limit int) ([]domain.Question, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.ErrCategoryRequired
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	bank, err := s.questions.Questions(ctx, category)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return []domain.Question{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s questions: %w", category, err)
	}

	out := append([]domain.Question(nil), bank...)
	s.rndMu.Lock()
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.rndMu.Unlock()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SubmitResults validates and stores a completed session for username and folds
// its results into the user's difficulty stats. The stored result is
// authoritative: when only the stats update fails, the receipt is returned with
// an error wrapping ErrStatsNotUpdated and the submission must not be resent.
func (s *BankService) SubmitResults(ctx context.Context, username string, aggregate domain.Aggregate) (domain.SubmissionReceipt, error) {
	if strings.TrimSpace(username) == "" {
		return domain.SubmissionReceipt{}, domain.ErrUnauthorized
	}
	if err := ValidateAggregate(aggregate); err != nil {
		return domain.SubmissionReceipt{}, err
	}

	receipt := domain.SubmissionReceipt{
		ID:         s.newID(),
		Username:   username,
		Category:   aggregate.Category,
		Score:      aggregate.Score,
		ReceivedAt: s.now().UTC(),
	}
	if err := s.results.SaveResult(ctx, domain.StoredSubmission{Receipt: receipt, Aggregate: aggregate}); err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("save result: %w", err)
	}
	if err := s.stats.AddResults(ctx, username, aggregate.Results); err != nil {
		return receipt, fmt.Errorf("%w: %w", domain.ErrStatsNotUpdated, err)
	}
	return receipt, nil
}

// Stats returns the accumulated difficulty stats of username.
func (s *BankService) Stats(ctx context.Context, username string) (domain.DifficultyStats, error) {
	if strings.TrimSpace(username) == "" {
		return domain.DifficultyStats{}, domain.ErrUnauthorized
	}
	return s.stats.Stats(ctx, username)
}

// ValidateAggregate rejects a payload whose counts or score do not follow from
// its results.
func ValidateAggregate(aggregate domain.Aggregate) error {
	switch {
	case strings.TrimSpace(aggregate.Category) == "":
		return fmt.Errorf("%w: category is empty", domain.ErrInvalidSubmission)
	case aggregate.TotalQuestions != len(aggregate.Results):
		return fmt.Errorf("%w: totalQuestions %d but %d results", domain.ErrInvalidSubmission, aggregate.TotalQuestions, len(aggregate.Results))
	case aggregate.Score < 0 || aggregate.Score > 100:
		return fmt.Errorf("%w: score %d out of range", domain.ErrInvalidSubmission, aggregate.Score)
	case aggregate.Score != engine.ScorePercentage(aggregate.Results):
		return fmt.Errorf("%w: score %d does not match results", domain.ErrInvalidSubmission, aggregate.Score)
	}
	return nil
}
