package engine_test

import (
	"slices"
	"testing"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

func records(verdicts ...bool) []domain.ResultRecord {
	out := make([]domain.ResultRecord, 0, len(verdicts))
	for i, v := range verdicts {
		out = append(out, domain.ResultRecord{
			QuestionID: int64(i + 1),
			Question:   "q",
			Difficulty: domain.DifficultyEasy,
			Correct:    v,
		})
	}
	return out
}

func TestScorePercentage(t *testing.T) {
	cases := []struct {
		name     string
		verdicts []bool
		want     int
	}{
		{"empty", nil, 0},
		{"two of three", []bool{true, false, true}, 67},
		{"one of three", []bool{true, false, false}, 33},
		{"half up", []bool{true, false, false, false, false, false, false, false}, 13},
		{"all wrong", []bool{false, false}, 0},
		{"all right", []bool{true, true, true}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.ScorePercentage(records(tc.verdicts...)); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScorePercentageStaysInRange(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for correct := 0; correct <= total; correct++ {
			verdicts := make([]bool, total)
			for i := 0; i < correct; i++ {
				verdicts[i] = true
			}
			got := engine.ScorePercentage(records(verdicts...))
			if got < 0 || got > 100 {
				t.Fatalf("%d/%d out of range: %d", correct, total, got)
			}
			// round half up of 100*c/t, computed in floating point for comparison.
			want := int(100*float64(correct)/float64(total) + 0.5)
			if got != want {
				t.Fatalf("%d/%d: got %d, want %d", correct, total, got, want)
			}
		}
	}
}

func TestSummaryKeepsOrderAndDoesNotMutate(t *testing.T) {
	results := []domain.ResultRecord{
		{QuestionID: 1, Question: "first", Difficulty: domain.DifficultyEasy, Correct: true},
		{QuestionID: 2, Question: "second", Difficulty: domain.DifficultyHard, Correct: false},
	}
	before := slices.Clone(results)

	lines := slices.Collect(engine.Summary(results))
	if len(lines) != 2 || lines[0].Question != "first" || !lines[0].Passed || lines[1].Passed {
		t.Fatalf("unexpected summary: %+v", lines)
	}
	if lines[1].String() != "✗ second (difficulty: hard)" {
		t.Fatalf("unexpected line: %q", lines[1].String())
	}
	if !slices.Equal(before, results) {
		t.Fatalf("summary mutated results")
	}

	var firstOnly []engine.SummaryLine
	for line := range engine.Summary(results) {
		firstOnly = append(firstOnly, line)
		break
	}
	if len(firstOnly) != 1 {
		t.Fatalf("expected early stop, got %d lines", len(firstOnly))
	}
}

func TestDifficultyBreakdown(t *testing.T) {
	results := []domain.ResultRecord{
		{Difficulty: domain.DifficultyEasy, Correct: true},
		{Difficulty: domain.DifficultyEasy, Correct: false},
		{Difficulty: domain.DifficultyHard, Correct: true},
	}
	got := engine.DifficultyBreakdown(results)
	if got[domain.DifficultyEasy] != (domain.Tally{Total: 2, Correct: 1}) {
		t.Fatalf("unexpected easy tally: %+v", got[domain.DifficultyEasy])
	}
	if got[domain.DifficultyHard].Accuracy() != 100 {
		t.Fatalf("unexpected hard accuracy: %d", got[domain.DifficultyHard].Accuracy())
	}
	if len(engine.DifficultyBreakdown(nil)) != 0 {
		t.Fatalf("expected empty breakdown")
	}
}
