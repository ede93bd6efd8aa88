package engine

import (
	"sync"
	"time"
)

// DefaultQuestionTime is the per-question answer window.
const DefaultQuestionTime = 60 * time.Second

// TickSource yields one tick per elapsed second until stop is called.
type TickSource func() (ticks <-chan time.Time, stop func())

// SecondTicker is the production TickSource.
func SecondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

// QuestionTimer counts down one question's answer window. It is never reused:
// every question gets a fresh timer and the old one is cancelled.
type QuestionTimer struct {
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	stopped   bool

	cancel     chan struct{}
	cancelOnce sync.Once
}

// StartQuestionTimer starts counting down from seconds. onTick receives the
// remaining seconds after every tick; onExpire runs once when it reaches zero.
// Callbacks run on the timer goroutine and may race with Cancel, so receivers
// must check that the timer is still the current one.
func StartQuestionTimer(seconds int, source TickSource, onTick func(int), onExpire func()) *QuestionTimer {
	if source == nil {
		source = SecondTicker
	}
	t := &QuestionTimer{
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
		cancel:    make(chan struct{}),
	}
	ticks, stop := source()
	go t.run(ticks, stop)
	return t
}

func (t *QuestionTimer) run(ticks <-chan time.Time, stop func()) {
	defer stop()
	for {
		select {
		case <-t.cancel:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			remaining, expired, live := t.tick()
			if !live {
				return
			}
			if t.onTick != nil {
				t.onTick(remaining)
			}
			if expired {
				if t.onExpire != nil {
					t.onExpire()
				}
				return
			}
		}
	}
}

func (t *QuestionTimer) tick() (remaining int, expired, live bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return t.remaining, false, false
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.stopped = true
		return 0, true, true
	}
	return t.remaining, false, true
}

// Cancel stops the countdown. It is idempotent and never blocks, so it is safe
// to call from inside the expiry callback.
func (t *QuestionTimer) Cancel() {
	if t == nil {
		return
	}
	t.cancelOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.cancel)
	})
}

// Remaining reports the seconds left.
func (t *QuestionTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}
