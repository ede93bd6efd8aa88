package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	service *app.BankService
	results *memory.ResultStore
	tokens  *TokenIssuer
	metrics *Metrics
}

func newTestEnv() *testEnv {
	loader := memory.NewStaticQuestionLoader(sampleBank())
	results := memory.NewResultStore()
	service := app.NewBankServiceWithClock(
		memory.NewQuestionCache(loader, time.Minute),
		results,
		memory.NewStatsStore(),
		0,
		func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		7,
	)
	return &testEnv{
		service: service,
		results: results,
		tokens:  NewTokenIssuer("test-secret", time.Hour),
		metrics: NewMetrics(),
	}
}

func (e *testEnv) token(username string) string {
	token, err := e.tokens.Issue(username)
	if err != nil {
		panic(err)
	}
	return token
}

func sampleBank() map[string][]domain.Question {
	return map[string][]domain.Question{
		"linux": {
			{
				ID:         1,
				Category:   "linux",
				Difficulty: domain.DifficultyEasy,
				Text:       "Which command lists files?",
				Options: []domain.Option{
					{Key: domain.AnswerA, Text: "ls", Correct: true},
					{Key: domain.AnswerB, Text: "cd"},
					{Key: domain.AnswerC, Text: "rm"},
				},
			},
		},
		"empty": {},
	}
}
