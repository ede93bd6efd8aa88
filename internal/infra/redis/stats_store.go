package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"quiz-session-engine/internal/domain"
)

// StatsStore keeps per-user difficulty tallies in one Redis hash per user:
//
//	HINCRBY quiz:stats:{username} {difficulty}:total   1
//	HINCRBY quiz:stats:{username} {difficulty}:correct 1
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) AddResults(ctx context.Context, username string, results []domain.ResultRecord) error {
	if len(results) == 0 {
		return nil
	}
	key := statsKey(username)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range results {
			level := string(r.Difficulty)
			pipe.HIncrBy(ctx, key, level+":total", 1)
			if r.Correct {
				pipe.HIncrBy(ctx, key, level+":correct", 1)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update stats for %s: %w", username, err)
	}
	return nil
}

func (s *StatsStore) Stats(ctx context.Context, username string) (domain.DifficultyStats, error) {
	stats := domain.DifficultyStats{Username: username, ByLevel: make(map[domain.Difficulty]domain.Tally)}

	fields, err := s.client.HGetAll(ctx, statsKey(username)).Result()
	if err != nil && !isMiss(err) {
		return stats, fmt.Errorf("read stats for %s: %w", username, err)
	}
	for field, raw := range fields {
		// Labels may contain ':'; the counter name never does.
		i := strings.LastIndexByte(field, ':')
		if i < 0 {
			continue
		}
		level, counter := field[:i], field[i+1:]
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		difficulty := domain.Difficulty(level)
		tally := stats.ByLevel[difficulty]
		switch counter {
		case "total":
			tally.Total = n
		case "correct":
			tally.Correct = n
		default:
			continue
		}
		stats.ByLevel[difficulty] = tally
	}
	return stats, nil
}

func statsKey(username string) string {
	return "quiz:stats:" + username
}
