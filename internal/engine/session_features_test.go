package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// TestSessionScenarios runs the quiz session feature scenarios.
func TestSessionScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz-session",
		ScenarioInitializer: InitializeSessionScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{filepath.Join("testdata", "features", "session.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeSessionScenario wires steps for the session scenarios.
func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	state := &sessionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if state.ctrl != nil {
			state.ctrl.Close()
		}
		return ctx, nil
	})

	ctx.Step(`^the "([^"]+)" category has these questions:$`, state.givenCategory)
	ctx.Step(`^the "([^"]+)" category has no questions$`, state.givenEmptyCategory)
	ctx.Step(`^I start a "([^"]+)" quiz$`, state.whenStart)
	ctx.Step(`^I load the "([^"]+)" category$`, state.whenLoad)
	ctx.Step(`^I answer "([^"]+)"$`, state.whenAnswer)
	ctx.Step(`^the clock runs for (\d+) seconds$`, state.whenClockRuns)
	ctx.Step(`^I restart the quiz$`, state.whenRestart)
	ctx.Step(`^the quiz is completed$`, state.thenCompleted)
	ctx.Step(`^the score is (\d+)$`, state.thenScore)
	ctx.Step(`^the backend received (\d+) submissions? with (\d+) questions$`, state.thenSubmitted)
	ctx.Step(`^the results are "([^"]+)"$`, state.thenResults)
	ctx.Step(`^the current question is answered incorrectly$`, state.thenAnsweredIncorrectly)
	ctx.Step(`^I cannot answer the current question again$`, state.thenCannotAnswerAgain)
	ctx.Step(`^the quiz is ready with (\d+) questions$`, state.thenReady)
	ctx.Step(`^no results are recorded$`, state.thenNoResults)
	ctx.Step(`^loading fails$`, state.thenLoadFailed)
	ctx.Step(`^the quiz cannot be started$`, state.thenCannotStart)
}

type sessionScenarioState struct {
	catalog   map[string][]domain.Question
	ctrl      *engine.Controller
	ticks     *manualTicks
	submitter *recordingSubmitter
	loadErr   error
}

func (s *sessionScenarioState) reset() {
	s.catalog = make(map[string][]domain.Question)
	s.ctrl = nil
	s.ticks = &manualTicks{}
	s.submitter = &recordingSubmitter{}
	s.loadErr = nil
}

func (s *sessionScenarioState) controller() *engine.Controller {
	if s.ctrl == nil {
		s.ctrl = engine.NewController(&staticSource{questions: s.catalog}, s.submitter,
			engine.WithTickSource(s.ticks.source),
		)
	}
	return s.ctrl
}

func (s *sessionScenarioState) givenCategory(category string, table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return err
		}
		keys := parseKeys(row.Cells[2].Value)
		var q domain.Question
		if row.Cells[3].Value == "true" {
			q = multiQuestion(id, keys...)
		} else {
			q = singleQuestion(id, keys[0], domain.ParseDifficulty(row.Cells[1].Value))
		}
		q.Category = category
		q.Difficulty = domain.ParseDifficulty(row.Cells[1].Value)
		s.catalog[category] = append(s.catalog[category], q)
	}
	return nil
}

func (s *sessionScenarioState) givenEmptyCategory(category string) error {
	s.catalog[category] = nil
	return nil
}

func (s *sessionScenarioState) whenLoad(category string) error {
	s.loadErr = s.controller().Load(context.Background(), category)
	return nil
}

func (s *sessionScenarioState) whenStart(category string) error {
	if err := s.controller().Load(context.Background(), category); err != nil {
		return err
	}
	return s.controller().Start()
}

func (s *sessionScenarioState) whenAnswer(list string) error {
	ctrl := s.controller()
	for _, key := range parseKeys(list) {
		if err := ctrl.Select(key); err != nil {
			return fmt.Errorf("select %s: %w", key, err)
		}
	}
	if _, err := ctrl.Submit(); err != nil {
		return err
	}
	if err := ctrl.Advance(context.Background()); err != nil {
		return err
	}
	ctrl.Wait()
	return nil
}

func (s *sessionScenarioState) whenClockRuns(seconds int) error {
	for i := 0; i < seconds; i++ {
		if !s.ticks.tick() {
			return fmt.Errorf("tick %d was not consumed", i+1)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for !s.ctrl.Snapshot().Answered {
		if time.Now().After(deadline) {
			return errors.New("question was not force-submitted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (s *sessionScenarioState) whenRestart() error {
	return s.controller().Restart(context.Background())
}

func (s *sessionScenarioState) thenCompleted() error {
	if state := s.ctrl.Snapshot().State; state != engine.StateCompleted {
		return fmt.Errorf("expected completed, got %s", state)
	}
	return nil
}

func (s *sessionScenarioState) thenScore(score int) error {
	if got := s.ctrl.Snapshot().Score; got != score {
		return fmt.Errorf("expected score %d, got %d", score, got)
	}
	return nil
}

func (s *sessionScenarioState) thenSubmitted(count, total int) error {
	submitted := s.submitter.submitted()
	if len(submitted) != count {
		return fmt.Errorf("expected %d submissions, got %d", count, len(submitted))
	}
	for _, agg := range submitted {
		if agg.TotalQuestions != total || len(agg.Results) != total {
			return fmt.Errorf("expected %d questions in aggregate, got %+v", total, agg)
		}
	}
	return nil
}

func (s *sessionScenarioState) thenResults(list string) error {
	results := s.ctrl.Results()
	want := strings.Split(list, ",")
	if len(results) != len(want) {
		return fmt.Errorf("expected %d results, got %d", len(want), len(results))
	}
	for i, w := range want {
		if results[i].Correct != (strings.TrimSpace(w) == "correct") {
			return fmt.Errorf("result %d: expected %s", i+1, strings.TrimSpace(w))
		}
	}
	return nil
}

func (s *sessionScenarioState) thenAnsweredIncorrectly() error {
	snap := s.ctrl.Snapshot()
	if !snap.Answered || snap.LastCorrect || len(snap.Results) != 1 {
		return fmt.Errorf("expected one forced wrong answer, got %+v", snap)
	}
	return nil
}

func (s *sessionScenarioState) thenCannotAnswerAgain() error {
	if err := s.ctrl.RecordAnswer(true); !errors.Is(err, domain.ErrAlreadyAnswered) {
		return fmt.Errorf("expected ErrAlreadyAnswered, got %v", err)
	}
	return nil
}

func (s *sessionScenarioState) thenReady(count int) error {
	snap := s.ctrl.Snapshot()
	if snap.State != engine.StateReady || snap.TotalQuestions != count {
		return fmt.Errorf("expected ready with %d questions, got %s/%d", count, snap.State, snap.TotalQuestions)
	}
	return nil
}

func (s *sessionScenarioState) thenNoResults() error {
	if n := len(s.ctrl.Results()); n != 0 {
		return fmt.Errorf("expected no results, got %d", n)
	}
	return nil
}

func (s *sessionScenarioState) thenLoadFailed() error {
	if !errors.Is(s.loadErr, domain.ErrNoQuestions) {
		return fmt.Errorf("expected ErrNoQuestions, got %v", s.loadErr)
	}
	return nil
}

func (s *sessionScenarioState) thenCannotStart() error {
	if err := s.ctrl.Start(); !errors.Is(err, domain.ErrNotReady) {
		return fmt.Errorf("expected ErrNotReady, got %v", err)
	}
	return nil
}

func parseKeys(list string) []domain.OptionKey {
	parts := strings.Split(list, ",")
	keys := make([]domain.OptionKey, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, domain.OptionKey(strings.TrimSpace(p)))
	}
	return keys
}
