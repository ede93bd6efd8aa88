package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// manualTicks is a TickSource driven by the test. Every started timer keeps
// its channel so old timers can be ticked too.
type manualTicks struct {
	mu     sync.Mutex
	timers []chan time.Time
}

func (m *manualTicks) source() (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	m.mu.Lock()
	m.timers = append(m.timers, ch)
	m.mu.Unlock()
	return ch, func() {}
}

// tick delivers one tick to the newest timer; false when nobody is listening.
func (m *manualTicks) tick() bool {
	m.mu.Lock()
	n := len(m.timers) - 1
	m.mu.Unlock()
	return m.tickTimer(n, 200*time.Millisecond)
}

// tickTimer delivers one tick to the n-th started timer (0-based); false when
// that timer no longer listens within wait.
func (m *manualTicks) tickTimer(n int, wait time.Duration) bool {
	m.mu.Lock()
	if n < 0 || n >= len(m.timers) {
		m.mu.Unlock()
		return false
	}
	ch := m.timers[n]
	m.mu.Unlock()
	select {
	case ch <- time.Now():
		return true
	case <-time.After(wait):
		return false
	}
}

func (m *manualTicks) timersStarted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

type staticSource struct {
	mu        sync.Mutex
	questions map[string][]domain.Question
	err       error
	calls     int
}

func (s *staticSource) FetchQuestions(_ context.Context, category string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions[category], nil
}

func (s *staticSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSubmitter struct {
	mu         sync.Mutex
	aggregates []domain.Aggregate
	err        error
}

func (r *recordingSubmitter) SubmitResults(_ context.Context, agg domain.Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates = append(r.aggregates, agg)
	return r.err
}

func (r *recordingSubmitter) submitted() []domain.Aggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Aggregate(nil), r.aggregates...)
}

type notificationLog struct {
	mu    sync.Mutex
	items []engine.Notification
}

func (n *notificationLog) Notify(item engine.Notification) {
	n.mu.Lock()
	n.items = append(n.items, item)
	n.mu.Unlock()
}

func (n *notificationLog) levels() []engine.Level {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]engine.Level, 0, len(n.items))
	for _, item := range n.items {
		out = append(out, item.Level)
	}
	return out
}

func singleQuestion(id int64, correct domain.OptionKey, difficulty domain.Difficulty) domain.Question {
	q := domain.Question{
		ID:         id,
		Category:   "linux",
		Difficulty: difficulty,
		Text:       "question " + string(rune('0'+id)),
		Options: []domain.Option{
			{Key: domain.AnswerA, Text: "first"},
			{Key: domain.AnswerB, Text: "second"},
			{Key: domain.AnswerC, Text: "third"},
		},
	}
	for i := range q.Options {
		q.Options[i].Correct = q.Options[i].Key == correct
	}
	return q
}

func multiQuestion(id int64, correct ...domain.OptionKey) domain.Question {
	q := singleQuestion(id, "", domain.DifficultyHard)
	q.MultipleCorrect = true
	for i := range q.Options {
		for _, key := range correct {
			if q.Options[i].Key == key {
				q.Options[i].Correct = true
			}
		}
	}
	return q
}

func threeQuestions() []domain.Question {
	return []domain.Question{
		singleQuestion(1, domain.AnswerA, domain.DifficultyEasy),
		singleQuestion(2, domain.AnswerB, domain.DifficultyMedium),
		singleQuestion(3, domain.AnswerC, domain.DifficultyHard),
	}
}

type harness struct {
	ctrl      *engine.Controller
	source    *staticSource
	submitter *recordingSubmitter
	ticks     *manualTicks
	notes     *notificationLog
}

func newHarness(t *testing.T, questions map[string][]domain.Question) *harness {
	t.Helper()
	h := &harness{
		source:    &staticSource{questions: questions},
		submitter: &recordingSubmitter{},
		ticks:     &manualTicks{},
		notes:     &notificationLog{},
	}
	h.ctrl = engine.NewController(h.source, h.submitter,
		engine.WithTickSource(h.ticks.source),
		engine.WithNotifier(h.notes),
		engine.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) answer(t *testing.T, key domain.OptionKey) bool {
	t.Helper()
	if err := h.ctrl.Select(key); err != nil {
		t.Fatalf("select %s: %v", key, err)
	}
	correct, err := h.ctrl.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return correct
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var errBackend = errors.New("backend unavailable")
