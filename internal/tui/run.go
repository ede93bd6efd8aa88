package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run plays one session in the terminal until the user quits.
func Run(ctx context.Context, session Session, notes Notifications, in io.Reader, out io.Writer, opts Options) error {
	updates, cancel := session.Subscribe()
	defer cancel()

	model := NewModel(ctx, session, updates, notes, opts)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}
