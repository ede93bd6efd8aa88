package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-session-engine/internal/domain"
)

// QuestionLoader fetches a category's question bank from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionCache caches question banks with TTL to avoid repeated DB hits.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// Questions returns the cached bank of category, loading it on a miss. Callers
// must not modify the returned slice.
func (r *QuestionCache) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	if questions, ok := r.lookup(category); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		if questions, ok := r.lookup(category); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, category)
		if err != nil {
			return nil, err
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[category] = cachedBank{questions: questions, expiresAt: expiresAt}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached bank of category.
func (r *QuestionCache) Invalidate(category string) {
	r.mu.Lock()
	delete(r.cache, category)
	r.mu.Unlock()
}

func (r *QuestionCache) lookup(category string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[category]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionLoader struct {
	banks map[string][]domain.Question
}

func NewStaticQuestionLoader(banks map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{banks: banks}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, category string) ([]domain.Question, error) {
	if questions, ok := l.banks[category]; ok {
		return questions, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// FetchQuestions lets the loader act directly as an engine question source.
func (l *StaticQuestionLoader) FetchQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	return l.LoadQuestions(ctx, category)
}
