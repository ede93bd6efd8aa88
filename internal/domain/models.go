package domain

import "time"

// ResultRecord is the outcome of one presented question. Records are appended
// in presentation order and never modified.
type ResultRecord struct {
	QuestionID int64      `json:"question_id"`
	Question   string     `json:"question"`
	Difficulty Difficulty `json:"difficulty"`
	Correct    bool       `json:"correct"`
}

// NewResultRecord builds the record for q with the evaluator's verdict.
func NewResultRecord(q Question, correct bool) ResultRecord {
	return ResultRecord{
		QuestionID: q.ID,
		Question:   q.Text,
		Difficulty: q.Difficulty,
		Correct:    correct,
	}
}

// Aggregate is the per-session payload posted to the backend on completion.
type Aggregate struct {
	Category       string         `json:"category"`
	Results        []ResultRecord `json:"results"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	CompletedAt    time.Time      `json:"completedAt"`
}

// SubmissionReceipt acknowledges a stored aggregate.
type SubmissionReceipt struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Category   string    `json:"category"`
	Score      int       `json:"score"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// StoredSubmission is an accepted aggregate as persisted by the backend.
type StoredSubmission struct {
	Receipt   SubmissionReceipt
	Aggregate Aggregate
}

// Tally counts answers for one difficulty.
type Tally struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Accuracy is the rounded percentage of correct answers, 0 when empty.
func (t Tally) Accuracy() int {
	if t.Total <= 0 {
		return 0
	}
	return (200*t.Correct + t.Total) / (2 * t.Total)
}

// DifficultyStats accumulates a user's answers per difficulty.
type DifficultyStats struct {
	Username string               `json:"username"`
	ByLevel  map[Difficulty]Tally `json:"byDifficulty"`
}

// Add folds one batch of results into the stats.
func (s *DifficultyStats) Add(results []ResultRecord) {
	if s.ByLevel == nil {
		s.ByLevel = make(map[Difficulty]Tally)
	}
	for _, r := range results {
		t := s.ByLevel[r.Difficulty]
		t.Total++
		if r.Correct {
			t.Correct++
		}
		s.ByLevel[r.Difficulty] = t
	}
}
