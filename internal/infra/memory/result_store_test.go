package memory

import (
	"context"
	"testing"
	"time"

	"quiz-session-engine/internal/domain"
)

func TestResultStoreHistoryNewestFirst(t *testing.T) {
	store := NewResultStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second"} {
		err := store.SaveResult(context.Background(), domain.StoredSubmission{
			Receipt: domain.SubmissionReceipt{ID: id, Username: "ada", ReceivedAt: base.Add(time.Duration(i) * time.Minute)},
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history := store.History("ada")
	if len(history) != 2 || history[0].Receipt.ID != "second" {
		t.Fatalf("unexpected history %+v", history)
	}
	if len(store.History("bob")) != 0 {
		t.Fatalf("expected empty history for unknown user")
	}
}

func TestStatsStoreAccumulates(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	_ = store.AddResults(ctx, "ada", []domain.ResultRecord{
		{QuestionID: 1, Difficulty: domain.DifficultyEasy, Correct: true},
		{QuestionID: 2, Difficulty: domain.DifficultyHard, Correct: false},
	})
	_ = store.AddResults(ctx, "ada", []domain.ResultRecord{
		{QuestionID: 3, Difficulty: domain.DifficultyEasy, Correct: false},
	})

	stats, err := store.Stats(ctx, "ada")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	easy := stats.ByLevel[domain.DifficultyEasy]
	if easy.Total != 2 || easy.Correct != 1 || easy.Accuracy() != 50 {
		t.Fatalf("unexpected easy tally %+v", easy)
	}
	if hard := stats.ByLevel[domain.DifficultyHard]; hard.Total != 1 || hard.Correct != 0 {
		t.Fatalf("unexpected hard tally %+v", hard)
	}

	// Returned stats are a copy.
	stats.ByLevel[domain.DifficultyEasy] = domain.Tally{}
	again, _ := store.Stats(ctx, "ada")
	if again.ByLevel[domain.DifficultyEasy].Total != 2 {
		t.Fatalf("stats copy leaked into store")
	}
}
