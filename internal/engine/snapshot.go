package engine

import "quiz-session-engine/internal/domain"

// OptionView is a presented option without its correctness flag.
type OptionView struct {
	Key   domain.OptionKey `json:"key"`
	Label string           `json:"label"`
	Text  string           `json:"text"`
}

// QuestionView is the renderable form of the live question. Correct keys and
// the explanation are only revealed once the question is answered.
type QuestionView struct {
	ID              int64              `json:"id"`
	Text            string             `json:"text"`
	Description     string             `json:"description,omitempty"`
	Difficulty      domain.Difficulty  `json:"difficulty"`
	MultipleCorrect bool               `json:"multipleCorrect"`
	Options         []OptionView       `json:"options"`
	CorrectKeys     []domain.OptionKey `json:"correctKeys,omitempty"`
	Explanation     string             `json:"explanation,omitempty"`
}

// Snapshot is a read-only copy of the session for rendering layers.
type Snapshot struct {
	State           SessionState          `json:"state"`
	Category        string                `json:"category"`
	TotalQuestions  int                   `json:"totalQuestions"`
	QuestionIndex   int                   `json:"questionIndex"`
	Question        *QuestionView         `json:"question,omitempty"`
	Selected        []domain.OptionKey    `json:"selected"`
	Answered        bool                  `json:"answered"`
	LastCorrect     bool                  `json:"lastCorrect"`
	TimeLeft        int                   `json:"timeLeft"`
	Results         []domain.ResultRecord `json:"results"`
	CorrectCount    int                   `json:"correctCount"`
	Score           int                   `json:"score"`
	Submission      SubmissionStatus      `json:"submission,omitempty"`
	SubmissionError string                `json:"submissionError,omitempty"`
}

// IsLast reports whether the live question is the final one.
func (s Snapshot) IsLast() bool {
	return s.TotalQuestions > 0 && s.QuestionIndex == s.TotalQuestions-1
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change, starting
// with the current one. Slow readers only ever miss intermediate snapshots.
// The caller must invoke the returned cancel function.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcastLocked() {
	if len(c.subscribers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           c.state,
		Category:        c.category,
		TotalQuestions:  len(c.questions),
		QuestionIndex:   c.index,
		Selected:        c.selection.Keys(),
		Answered:        c.answered,
		LastCorrect:     c.lastCorrect,
		TimeLeft:        c.timeLeft,
		Results:         append([]domain.ResultRecord(nil), c.results...),
		CorrectCount:    CountCorrect(c.results),
		Score:           ScorePercentage(c.results),
		Submission:      c.submission,
		SubmissionError: c.submissionErr,
	}
	if c.state == StateInProgress && c.index < len(c.questions) {
		snap.Question = viewOf(c.questions[c.index], c.answered)
	}
	return snap
}

func viewOf(q domain.Question, reveal bool) *QuestionView {
	view := &QuestionView{
		ID:              q.ID,
		Text:            q.Text,
		Description:     q.Description,
		Difficulty:      q.Difficulty,
		MultipleCorrect: q.MultipleCorrect,
		Options:         make([]OptionView, 0, len(q.Options)),
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{Key: opt.Key, Label: opt.Key.Label(), Text: opt.Text})
	}
	if reveal {
		view.CorrectKeys = q.CorrectKeys()
		view.Explanation = q.Explanation
	}
	return view
}
