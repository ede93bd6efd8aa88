package engine

import (
	"fmt"
	"iter"

	"quiz-session-engine/internal/domain"
)

// CountCorrect counts correct records.
func CountCorrect(results []domain.ResultRecord) int {
	n := 0
	for _, r := range results {
		if r.Correct {
			n++
		}
	}
	return n
}

// ScorePercentage is round-half-up(100 * correct / total), 0 for no results.
func ScorePercentage(results []domain.ResultRecord) int {
	total := len(results)
	if total == 0 {
		return 0
	}
	return (200*CountCorrect(results) + total) / (2 * total)
}

// SummaryLine is one review row of a finished session.
type SummaryLine struct {
	Passed     bool
	Question   string
	Difficulty domain.Difficulty
}

func (l SummaryLine) String() string {
	mark := "✗"
	if l.Passed {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s (difficulty: %s)", mark, l.Question, l.Difficulty)
}

// Summary yields review rows in presentation order without copying or
// touching the stored records.
func Summary(results []domain.ResultRecord) iter.Seq[SummaryLine] {
	return func(yield func(SummaryLine) bool) {
		for _, r := range results {
			if !yield(SummaryLine{Passed: r.Correct, Question: r.Question, Difficulty: r.Difficulty}) {
				return
			}
		}
	}
}

// DifficultyBreakdown tallies results per difficulty label.
func DifficultyBreakdown(results []domain.ResultRecord) map[domain.Difficulty]domain.Tally {
	var stats domain.DifficultyStats
	stats.Add(results)
	if stats.ByLevel == nil {
		return map[domain.Difficulty]domain.Tally{}
	}
	return stats.ByLevel
}
