package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

func renderStart(m Model) string {
	if m.category == "" {
		return "No category configured. Pass --category."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		stylize("Quiz: "+m.category, m.noColor, lipgloss.Color("33")),
		"Press enter to load questions.",
	)
}

func renderReady(m Model) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		stylize(fmt.Sprintf("Quiz: %s | %d questions", m.snap.Category, m.snap.TotalQuestions), m.noColor, lipgloss.Color("33")),
		fmt.Sprintf("You have %d seconds per question.", m.questionTime),
		"Press enter to start.",
	)
}

func renderQuestion(m Model) string {
	q := m.snap.Question
	if q == nil {
		return ""
	}
	header := fmt.Sprintf("Question %d/%d | %s", m.snap.QuestionIndex+1, m.snap.TotalQuestions, q.Difficulty)
	if q.MultipleCorrect {
		header += " | select all that apply"
	}
	timer := m.progress.ViewAs(float64(m.snap.TimeLeft)/float64(m.questionTime)) + " " + strconv.Itoa(m.snap.TimeLeft) + "s"

	lines := []string{
		stylize(header, m.noColor, lipgloss.Color("33")),
		timer,
		"",
		lipgloss.NewStyle().Bold(!m.noColor).Render(q.Text),
	}
	if q.Description != "" {
		lines = append(lines, stylize(q.Description, m.noColor, lipgloss.Color("244")))
	}
	lines = append(lines, "")

	selected := make(map[domain.OptionKey]bool, len(m.snap.Selected))
	for _, key := range m.snap.Selected {
		selected[key] = true
	}
	correct := make(map[domain.OptionKey]bool, len(q.CorrectKeys))
	for _, key := range q.CorrectKeys {
		correct[key] = true
	}
	for _, opt := range q.Options {
		mark := "[ ]"
		if selected[opt.Key] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s) %s", mark, opt.Label, opt.Text)
		switch {
		case m.snap.Answered && correct[opt.Key]:
			line = stylize(line+"  ✓", m.noColor, lipgloss.Color("42"))
		case m.snap.Answered && selected[opt.Key]:
			line = stylize(line+"  ✗", m.noColor, lipgloss.Color("196"))
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	if m.snap.Answered {
		verdict := stylize("Correct!", m.noColor, lipgloss.Color("42"))
		if !m.snap.LastCorrect {
			verdict = stylize("Incorrect.", m.noColor, lipgloss.Color("196"))
		}
		lines = append(lines, verdict)
		if q.Explanation != "" {
			lines = append(lines, q.Explanation)
		}
		next := "Press enter for the next question."
		if m.snap.IsLast() {
			next = "Press enter to finish."
		}
		lines = append(lines, next)
	} else {
		lines = append(lines, "Pick with a-f, enter to submit.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSummary(m Model) string {
	score := fmt.Sprintf("Score: %d%% (%d/%d correct)", m.snap.Score, m.snap.CorrectCount, len(m.snap.Results))
	status := ""
	hint := "Press r to play again, q to quit."
	switch m.snap.Submission {
	case engine.SubmissionPending:
		status = "Saving results..."
		hint = "Press q to quit."
	case engine.SubmissionSucceeded:
		status = "Results saved."
	case engine.SubmissionFailed:
		status = stylize("Results not saved: "+m.snap.SubmissionError, m.noColor, lipgloss.Color("196"))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		stylize("Quiz complete: "+m.snap.Category, m.noColor, lipgloss.Color("33")),
		score,
		m.table.View(),
		renderBreakdown(m.snap.Results),
		status,
		hint,
	)
}

// renderBreakdown shows accuracy per difficulty, known levels first.
func renderBreakdown(results []domain.ResultRecord) string {
	byLevel := engine.DifficultyBreakdown(results)
	if len(byLevel) == 0 {
		return ""
	}
	levels := make([]domain.Difficulty, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	slices.SortFunc(levels, func(a, b domain.Difficulty) int {
		if ra, rb := levelRank(a), levelRank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(string(a), string(b))
	})

	lines := make([]string, 0, len(levels)+1)
	lines = append(lines, "By difficulty:")
	for _, level := range levels {
		tally := byLevel[level]
		name := string(level)
		if name == "" {
			name = "unrated"
		}
		lines = append(lines, fmt.Sprintf("  %-8s %d/%d  %3d%%", name, tally.Correct, tally.Total, tally.Accuracy()))
	}
	return strings.Join(lines, "\n")
}

func levelRank(level domain.Difficulty) int {
	switch level {
	case domain.DifficultyEasy:
		return 0
	case domain.DifficultyMedium:
		return 1
	case domain.DifficultyHard:
		return 2
	}
	return 3
}

func renderFooter(m Model) string {
	var parts []string
	if m.lastNote.Message != "" {
		color := lipgloss.Color("244")
		switch m.lastNote.Level {
		case engine.LevelSuccess:
			color = lipgloss.Color("42")
		case engine.LevelError:
			color = lipgloss.Color("196")
		}
		parts = append(parts, stylize(m.lastNote.Message, m.noColor, color))
	}
	if m.lastErr != "" {
		parts = append(parts, stylize("! "+m.lastErr, m.noColor, lipgloss.Color("208")))
	}
	return strings.Join(parts, "\n")
}

func summaryColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "Question", Width: 48},
		{Title: "Difficulty", Width: 10},
		{Title: "Result", Width: 6},
	}
}

func summaryRows(results []domain.ResultRecord) []table.Row {
	rows := make([]table.Row, 0, len(results))
	i := 0
	for line := range engine.Summary(results) {
		i++
		mark := "✗"
		if line.Passed {
			mark = "✓"
		}
		rows = append(rows, table.Row{strconv.Itoa(i), truncate(line.Question, 48), string(line.Difficulty), mark})
	}
	return rows
}

func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
