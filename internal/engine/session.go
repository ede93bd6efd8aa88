package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"quiz-session-engine/internal/domain"
)

// SessionState is the controller's lifecycle state.
type SessionState string

const (
	StateNotStarted SessionState = "not_started"
	StateLoading    SessionState = "loading"
	StateReady      SessionState = "ready"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
)

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier routes user-visible notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTickSource overrides the per-second tick source of question timers.
func WithTickSource(src TickSource) Option {
	return func(c *Controller) {
		if src != nil {
			c.ticks = src
		}
	}
}

// WithQuestionTime sets the per-question answer window (whole seconds).
func WithQuestionTime(d time.Duration) Option {
	return func(c *Controller) {
		if secs := int(d / time.Second); secs > 0 {
			c.questionSeconds = secs
		}
	}
}

// WithSubmitTimeout bounds the submission attempt.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.submitTimeout = d
		}
	}
}

// questionToken identifies one presented question of one session so that
// callbacks from an old timer can be recognised and ignored.
type questionToken struct {
	epoch uint64
	index int
}

// Controller owns one quiz session: its state, the loaded questions and the
// result sequence. Every mutation goes through its methods under one lock.
type Controller struct {
	source          QuestionSource
	submitter       ResultSubmitter
	notifier        Notifier
	logger          *zap.Logger
	now             func() time.Time
	ticks           TickSource
	questionSeconds int
	submitTimeout   time.Duration

	mu            sync.Mutex
	state         SessionState
	category      string
	loadGen       uint64
	epoch         uint64
	questions     []domain.Question
	index         int
	answered      bool
	lastCorrect   bool
	selection     domain.Selection
	results       []domain.ResultRecord
	timer         *QuestionTimer
	timeLeft      int
	token         questionToken
	submission    SubmissionStatus
	submissionErr string
	closed        bool
	subscribers   map[chan Snapshot]struct{}

	wg sync.WaitGroup
}

// NewController wires a session to its question source and result submitter.
func NewController(source QuestionSource, submitter ResultSubmitter, opts ...Option) *Controller {
	c := &Controller{
		source:          source,
		submitter:       submitter,
		notifier:        nopNotifier{},
		logger:          zap.NewNop(),
		now:             time.Now,
		ticks:           SecondTicker,
		questionSeconds: int(DefaultQuestionTime / time.Second),
		submitTimeout:   DefaultSubmitTimeout,
		state:           StateNotStarted,
		subscribers:     make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the questions for category. The session stays Loading while the
// fetch is outstanding. A response that arrives after a newer Load (or a
// restart) is discarded and ErrStaleLoad is returned.
func (c *Controller) Load(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return &domain.LoadError{Category: category, Err: domain.ErrCategoryRequired}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	switch c.state {
	case StateNotStarted, StateLoading, StateReady:
	default:
		c.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	c.loadGen++
	gen := c.loadGen
	c.state = StateLoading
	c.category = category
	c.questions = nil
	c.broadcastLocked()
	c.mu.Unlock()

	c.logger.Debug("loading questions", zap.String("category", category))
	questions, err := c.source.FetchQuestions(ctx, category)

	c.mu.Lock()
	if gen != c.loadGen || c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding stale question response", zap.String("category", category))
		return domain.ErrStaleLoad
	}
	if err == nil && len(questions) == 0 {
		err = domain.ErrNoQuestions
	}
	if err != nil {
		c.state = StateNotStarted
		c.questions = nil
		c.broadcastLocked()
		c.mu.Unlock()

		loadErr := &domain.LoadError{Category: category, Err: err}
		c.logger.Warn("loading questions failed", zap.String("category", category), zap.Error(err))
		c.notifier.Notify(Notification{Level: LevelError, Message: "Failed to load quiz questions. Please try again.", Err: loadErr})
		return loadErr
	}
	c.questions = append([]domain.Question(nil), questions...)
	c.state = StateReady
	c.broadcastLocked()
	c.mu.Unlock()

	c.logger.Info("questions loaded", zap.String("category", category), zap.Int("count", len(questions)))
	return nil
}

// Start begins the session at the first question with an empty result list.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return domain.ErrSessionClosed
	case c.state == StateLoading:
		return domain.ErrLoadInProgress
	case c.state != StateReady || len(c.questions) == 0:
		return domain.ErrNotReady
	}

	c.epoch++
	c.state = StateInProgress
	c.index = 0
	c.results = make([]domain.ResultRecord, 0, len(c.questions))
	c.submission = SubmissionNone
	c.submissionErr = ""
	c.beginQuestionLocked()
	c.broadcastLocked()
	return nil
}

// Select applies a user pick to the live question's selection.
func (c *Controller) Select(key domain.OptionKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireUnansweredLocked(); err != nil {
		return err
	}
	next, err := c.selection.Pick(key)
	if err != nil {
		return err
	}
	c.selection = next
	c.broadcastLocked()
	return nil
}

// Submit evaluates the current selection and records the verdict. An empty
// selection is rejected with ErrNoSelection and never reaches the evaluator.
func (c *Controller) Submit() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireUnansweredLocked(); err != nil {
		return false, err
	}
	if c.selection.IsEmpty() {
		return false, domain.ErrNoSelection
	}
	correct := Evaluate(c.questions[c.index], c.selection)
	c.recordLocked(correct)
	c.broadcastLocked()
	return correct, nil
}

// RecordAnswer appends the result for the current question. A second call for
// the same question returns ErrAlreadyAnswered and changes nothing.
func (c *Controller) RecordAnswer(correct bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireUnansweredLocked(); err != nil {
		return err
	}
	c.recordLocked(correct)
	c.broadcastLocked()
	return nil
}

// Advance moves to the next question, or completes the session after the last
// one and starts the single submission attempt.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return domain.ErrNotInProgress
	}
	if !c.answered {
		c.mu.Unlock()
		return domain.ErrNotAnswered
	}

	if c.index < len(c.questions)-1 {
		c.index++
		c.beginQuestionLocked()
		c.broadcastLocked()
		c.mu.Unlock()
		return nil
	}

	c.stopTimerLocked()
	c.state = StateCompleted
	aggregate := BuildAggregate(c.category, c.results, c.now())
	c.submission = SubmissionPending
	epoch := c.epoch
	c.wg.Add(1)
	c.broadcastLocked()
	c.mu.Unlock()

	c.logger.Info("quiz completed",
		zap.String("category", aggregate.Category),
		zap.Int("score", aggregate.Score),
		zap.Int("total", aggregate.TotalQuestions),
	)
	go c.submit(ctx, epoch, aggregate)
	return nil
}

// Restart discards the session, returns to NotStarted and loads the same
// category again.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	category := c.category
	c.stopTimerLocked()
	c.epoch++
	c.loadGen++
	c.state = StateNotStarted
	c.questions = nil
	c.index = 0
	c.results = nil
	c.answered = false
	c.lastCorrect = false
	c.selection = domain.Selection{}
	c.timeLeft = 0
	c.submission = SubmissionNone
	c.submissionErr = ""
	c.broadcastLocked()
	c.mu.Unlock()

	return c.Load(ctx, category)
}

// Wait blocks until in-flight submissions have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops the timer, discards any outstanding fetch and closes subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.loadGen++
	c.stopTimerLocked()
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

// Results returns a copy of the recorded results.
func (c *Controller) Results() []domain.ResultRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ResultRecord(nil), c.results...)
}

func (c *Controller) requireUnansweredLocked() error {
	if c.closed {
		return domain.ErrSessionClosed
	}
	if c.state != StateInProgress {
		return domain.ErrNotInProgress
	}
	if c.answered {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

// recordLocked is the single place results are appended.
func (c *Controller) recordLocked(correct bool) {
	c.stopTimerLocked()
	c.results = append(c.results, domain.NewResultRecord(c.questions[c.index], correct))
	c.answered = true
	c.lastCorrect = correct
}

func (c *Controller) beginQuestionLocked() {
	c.stopTimerLocked()
	q := c.questions[c.index]
	c.answered = false
	c.lastCorrect = false
	c.selection = domain.NewSelection(q)
	c.timeLeft = c.questionSeconds
	token := questionToken{epoch: c.epoch, index: c.index}
	c.token = token
	c.timer = StartQuestionTimer(c.questionSeconds, c.ticks,
		func(remaining int) { c.onTick(token, remaining) },
		func() { c.forceSubmit(token) },
	)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Cancel()
		c.timer = nil
	}
}

func (c *Controller) liveLocked(token questionToken) bool {
	return !c.closed && c.state == StateInProgress && c.token == token && !c.answered
}

func (c *Controller) onTick(token questionToken, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.liveLocked(token) {
		return
	}
	c.timeLeft = remaining
	c.broadcastLocked()
}

// forceSubmit is the timer expiry path: the question is judged with no
// selection, which is always incorrect.
func (c *Controller) forceSubmit(token questionToken) {
	c.mu.Lock()
	if !c.liveLocked(token) {
		c.mu.Unlock()
		return
	}
	q := c.questions[c.index]
	c.timeLeft = 0
	c.recordLocked(Evaluate(q, domain.Selection{}))
	c.broadcastLocked()
	c.mu.Unlock()

	c.logger.Info("question timed out", zap.Int64("question_id", q.ID), zap.Int("index", token.index))
	c.notifier.Notify(Notification{Level: LevelInfo, Message: "Time's up!"})
}
