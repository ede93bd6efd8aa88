package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-session-engine/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultRepository.
type ResultStore struct {
	mu          sync.RWMutex
	submissions map[string][]domain.StoredSubmission
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		submissions: make(map[string][]domain.StoredSubmission),
	}
}

func (s *ResultStore) SaveResult(_ context.Context, submission domain.StoredSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := submission.Receipt.Username
	s.submissions[user] = append(s.submissions[user], submission)
	return nil
}

// History returns the submissions of username, newest first.
func (s *ResultStore) History(username string) []domain.StoredSubmission {
	s.mu.RLock()
	out := append([]domain.StoredSubmission(nil), s.submissions[username]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Receipt.ReceivedAt.After(out[j].Receipt.ReceivedAt)
	})
	return out
}

// StatsStore is an in-memory implementation of app.StatsRepository.
type StatsStore struct {
	mu    sync.RWMutex
	stats map[string]map[domain.Difficulty]domain.Tally
}

func NewStatsStore() *StatsStore {
	return &StatsStore{
		stats: make(map[string]map[domain.Difficulty]domain.Tally),
	}
}

func (s *StatsStore) AddResults(_ context.Context, username string, results []domain.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.DifficultyStats{Username: username, ByLevel: s.stats[username]}
	stats.Add(results)
	s.stats[username] = stats.ByLevel
	return nil
}

func (s *StatsStore) Stats(_ context.Context, username string) (domain.DifficultyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.DifficultyStats{Username: username, ByLevel: make(map[domain.Difficulty]domain.Tally)}
	for level, tally := range s.stats[username] {
		out.ByLevel[level] = tally
	}
	return out, nil
}
