package cli

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/engine"
	"quiz-session-engine/internal/infra/httpclient"
	"quiz-session-engine/internal/tui"
)

var isTerminal = term.IsTerminal

// NewPlayCmd plays a quiz in the terminal against a question bank server.
func NewPlayCmd(configPath *string) *cobra.Command {
	var category, backend, token string
	var noColor bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(int(os.Stdin.Fd())) || !isTerminal(int(os.Stdout.Fd())) {
				return errors.New("play needs an interactive terminal")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			category = firstNonEmpty(category, cfg.Engine.Category)
			backend = firstNonEmpty(backend, cfg.Engine.BackendURL, "http://localhost:8080")
			token = firstNonEmpty(token, cfg.Engine.Token)

			// The screen belongs to the UI; logs only go to the configured file.
			logger := newLogger(cfg, false)
			defer func() { _ = logger.Sync() }()

			questionTime := config.TTLDuration(cfg.Engine.QuestionTime, engine.DefaultQuestionTime)
			client := httpclient.NewWithTimeout(backend, httpclient.StaticToken(token), 30*time.Second)
			notes := tui.NewNotifications(16)
			ctrl := engine.NewController(client, client,
				engine.WithNotifier(notes),
				engine.WithLogger(logger.Named("engine")),
				engine.WithQuestionTime(questionTime),
				engine.WithSubmitTimeout(config.TTLDuration(cfg.Engine.SubmitTimeout, engine.DefaultSubmitTimeout)),
			)
			defer ctrl.Close()

			err = tui.Run(cmd.Context(), ctrl, notes, cmd.InOrStdin(), cmd.OutOrStdout(), tui.Options{
				Category:     category,
				QuestionTime: questionTime,
				NoColor:      noColor,
			})
			// Let a submission started by the last answer finish.
			ctrl.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "question category")
	cmd.Flags().StringVar(&backend, "backend", "", "question bank base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (see the token command)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
