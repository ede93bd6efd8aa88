package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

// QuestionCache caches question banks in Redis and falls back to a loader on cache miss.
// Banks are stored as: SET quiz:questions:{category} <json array in backend wire form>
type QuestionCache struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionCache) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx, category); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, category); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, category)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode %s questions: %w", category, err)
		}
		// best-effort: a failed write only costs another load
		_ = r.client.Set(ctx, questionsKey(category), payload, r.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached bank of category.
func (r *QuestionCache) Invalidate(ctx context.Context, category string) error {
	return r.client.Del(ctx, questionsKey(category)).Err()
}

func (r *QuestionCache) cached(ctx context.Context, category string) ([]domain.Question, bool) {
	payload, err := r.client.Get(ctx, questionsKey(category)).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func questionsKey(category string) string {
	return "quiz:questions:" + category
}

func (r *QuestionCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// isMiss reports whether err is a plain cache miss.
func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
