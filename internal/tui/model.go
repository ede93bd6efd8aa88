package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// Session is the part of the engine controller the terminal client drives.
type Session interface {
	Dispatch(ctx context.Context, action engine.Action) error
	Snapshot() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
}

// Notifications is a buffered notification sink. Notify never blocks; when the
// buffer is full the notification is dropped.
type Notifications chan engine.Notification

func NewNotifications(size int) Notifications {
	return make(Notifications, size)
}

func (n Notifications) Notify(note engine.Notification) {
	select {
	case n <- note:
	default:
	}
}

// Options configures the play model.
type Options struct {
	Category     string
	QuestionTime time.Duration
	NoColor      bool
}

// Model renders a quiz session using Bubble Tea.
type Model struct {
	ctx          context.Context
	session      Session
	updates      <-chan engine.Snapshot
	notes        <-chan engine.Notification
	snap         engine.Snapshot
	category     string
	questionTime int
	lastNote     engine.Notification
	lastErr      string
	progress     progress.Model
	table        table.Model
	noColor      bool
}

// NewModel constructs a play model. updates should come from session.Subscribe.
func NewModel(ctx context.Context, session Session, updates <-chan engine.Snapshot, notes <-chan engine.Notification, opts Options) Model {
	seconds := int(opts.QuestionTime / time.Second)
	if seconds <= 0 {
		seconds = int(engine.DefaultQuestionTime / time.Second)
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40))
	if opts.NoColor {
		bar = progress.New(progress.WithFillCharacters('#', '.'), progress.WithoutPercentage(), progress.WithWidth(40))
	}
	t := table.New(
		table.WithColumns(summaryColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	return Model{
		ctx:          ctx,
		session:      session,
		updates:      updates,
		notes:        notes,
		snap:         session.Snapshot(),
		category:     opts.Category,
		questionTime: seconds,
		progress:     bar,
		table:        t,
		noColor:      opts.NoColor,
	}
}

// Init waits for session updates and loads the configured category.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.updates), waitForNote(m.notes)}
	if m.category != "" && m.snap.State == engine.StateNotStarted {
		cmds = append(cmds, m.dispatch(engine.Action{Type: engine.ActionLoad, Category: m.category}))
	}
	return tea.Batch(cmds...)
}

// Update consumes key presses and session updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(typed.Width)
		m.progress.Width = min(max(typed.Width-20, 10), 60)
		return m, nil
	case snapshotMsg:
		m.snap = engine.Snapshot(typed)
		if m.snap.State == engine.StateCompleted {
			m.table.SetRows(summaryRows(m.snap.Results))
		}
		return m, waitForSnapshot(m.updates)
	case noteMsg:
		m.lastNote = engine.Notification(typed)
		return m, waitForNote(m.notes)
	case errMsg:
		m.lastErr = typed.err.Error()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := key.String()
	if k == "q" || k == "ctrl+c" {
		return m, tea.Quit
	}
	m.lastErr = ""

	switch m.snap.State {
	case engine.StateNotStarted:
		if (k == "enter" || k == "r") && m.category != "" {
			return m, m.dispatch(engine.Action{Type: engine.ActionLoad, Category: m.category})
		}
	case engine.StateReady:
		if k == "enter" || k == "s" {
			return m, m.dispatch(engine.Action{Type: engine.ActionStart})
		}
	case engine.StateInProgress:
		if m.snap.Answered {
			if k == "enter" || k == "n" {
				return m, m.dispatch(engine.Action{Type: engine.ActionNext})
			}
			return m, nil
		}
		if k == "enter" {
			return m, m.dispatch(engine.Action{Type: engine.ActionSubmit})
		}
		if optionKey, ok := m.optionForLabel(k); ok {
			return m, m.dispatch(engine.Action{Type: engine.ActionSelect, Key: optionKey})
		}
	case engine.StateCompleted:
		// Restart waits until the results are saved.
		if k == "r" && m.snap.Submission != engine.SubmissionPending {
			return m, m.dispatch(engine.Action{Type: engine.ActionRestart})
		}
	}
	return m, nil
}

func (m Model) optionForLabel(label string) (domain.OptionKey, bool) {
	if m.snap.Question == nil || len(label) != 1 {
		return "", false
	}
	for _, opt := range m.snap.Question.Options {
		if strings.EqualFold(opt.Label, label) {
			return opt.Key, true
		}
	}
	return "", false
}

// View renders the current screen.
func (m Model) View() string {
	var body string
	switch m.snap.State {
	case engine.StateNotStarted:
		body = renderStart(m)
	case engine.StateLoading:
		body = stylize("Loading "+m.snap.Category+" questions...", m.noColor, lipgloss.Color("242"))
	case engine.StateReady:
		body = renderReady(m)
	case engine.StateInProgress:
		body = renderQuestion(m)
	case engine.StateCompleted:
		body = renderSummary(m)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, renderFooter(m))
}

// dispatch runs an action off the UI loop; Load blocks on the network.
func (m Model) dispatch(action engine.Action) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Dispatch(m.ctx, action); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

type snapshotMsg engine.Snapshot

type noteMsg engine.Notification

type errMsg struct {
	err error
}

func waitForSnapshot(updates <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		snap, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg(snap)
	}
}

func waitForNote(notes <-chan engine.Notification) tea.Cmd {
	return func() tea.Msg {
		if notes == nil {
			return nil
		}
		note, ok := <-notes
		if !ok {
			return nil
		}
		return noteMsg(note)
	}
}
