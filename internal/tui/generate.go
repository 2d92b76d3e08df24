// Package tui provides the terminal user interface for fable.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/fable/pkg/models"
)

// GenerateState tracks the current generation progress.
type GenerateState struct {
	Task         string
	TargetWords  int
	CurrentPhase models.Phase
	// SectionsDone and SectionsTotal track per-phase leaf progress.
	SectionsDone  int
	SectionsTotal int
	// Cost is the estimated spend so far in USD.
	Cost float64
}

// GenerateUpdateMsg is sent when generation state changes.
type GenerateUpdateMsg struct {
	State GenerateState
}

// GenerateLogMsg appends one activity log entry.
type GenerateLogMsg struct {
	Timestamp time.Time
	Phase     models.Phase
	Message   string
}

// GenerateDoneMsg is sent when the run completes.
type GenerateDoneMsg struct {
	WordCount int
	Err       error
}

type logEntry struct {
	timestamp time.Time
	phase     models.Phase
	message   string
}

// GenerateApp is the bubbletea model for the generate command TUI. It is a
// read-only progress display: the only input it accepts is quitting.
type GenerateApp struct {
	state    GenerateState
	spinner  spinner.Model
	logs     []logEntry
	width    int
	quitting bool
	done     bool
	words    int
	err      error

	headerStyle   lipgloss.Style
	labelStyle    lipgloss.Style
	valueStyle    lipgloss.Style
	phaseStyle    lipgloss.Style
	logStyle      lipgloss.Style
	logTimeStyle  lipgloss.Style
	barFullStyle  lipgloss.Style
	barEmptyStyle lipgloss.Style
	errorStyle    lipgloss.Style
	doneStyle     lipgloss.Style
	dimStyle      lipgloss.Style
}

// NewGenerateApp creates a new GenerateApp instance.
func NewGenerateApp(task string, targetWords int) *GenerateApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &GenerateApp{
		state: GenerateState{
			Task:         task,
			TargetWords:  targetWords,
			CurrentPhase: models.PhasePlan,
		},
		spinner: sp,
		logs:    make([]logEntry, 0),

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		barFullStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		barEmptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init implements tea.Model.
func (a *GenerateApp) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *GenerateApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case GenerateUpdateMsg:
		a.state = msg.State

	case GenerateLogMsg:
		a.logs = append(a.logs, logEntry{
			timestamp: msg.Timestamp,
			phase:     msg.Phase,
			message:   msg.Message,
		})

	case GenerateDoneMsg:
		a.done = true
		a.words = msg.WordCount
		a.err = msg.Err
		// Stay on screen so the final state is readable.

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model.
func (a *GenerateApp) View() string {
	if a.quitting {
		return "Generation cancelled.\n"
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render("=== fable generate ==="))
	b.WriteString("\n\n")

	task := a.state.Task
	if r := []rune(task); len(r) > 70 {
		task = string(r[:67]) + "..."
	}
	b.WriteString(a.labelStyle.Render("Task:"))
	b.WriteString(a.valueStyle.Render(task))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Target:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d words", a.state.TargetWords)))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Cost:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("$%.2f", a.state.Cost)))
	b.WriteString("\n\n")

	if !a.done {
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
	}
	b.WriteString(a.labelStyle.Render("Phase:"))
	b.WriteString(a.phaseStyle.Render(string(a.state.CurrentPhase)))
	b.WriteString("\n")

	if a.state.SectionsTotal > 0 {
		pct := float64(a.state.SectionsDone) / float64(a.state.SectionsTotal) * 100
		b.WriteString(a.labelStyle.Render("Sections:"))
		b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d/%d", a.state.SectionsDone, a.state.SectionsTotal)))
		b.WriteString("\n")
		b.WriteString(a.renderProgressBar(pct, 30))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderLogs())

	b.WriteString("\n")
	if a.done {
		if a.err != nil {
			b.WriteString(a.errorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
		} else {
			b.WriteString(a.doneStyle.Render(fmt.Sprintf("Done: %d words. Press q to exit.", a.words)))
		}
	} else {
		b.WriteString(a.dimStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderProgressBar renders a progress bar.
func (a *GenerateApp) renderProgressBar(pct float64, width int) string {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	filled := int(pct / 100 * float64(width))
	empty := width - filled

	bar := a.barFullStyle.Render(strings.Repeat("█", filled)) +
		a.barEmptyStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("  %s %.0f%%", bar, pct)
}

// renderLogs renders the recent log entries.
func (a *GenerateApp) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity"))
	b.WriteString("\n")

	// Show last 8 log entries
	start := 0
	if len(a.logs) > 8 {
		start = len(a.logs) - 8
	}

	for _, entry := range a.logs[start:] {
		ts := a.logTimeStyle.Render(entry.timestamp.Format("15:04:05"))
		phase := lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(8).
			Render(string(entry.phase))
		msg := a.logStyle.Render(entry.message)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, phase, msg))
	}

	return b.String()
}

// NewGenerateProgram creates a new Bubbletea program for the generate TUI.
func NewGenerateProgram(task string, targetWords int) (*tea.Program, *GenerateApp) {
	app := NewGenerateApp(task, targetWords)
	p := tea.NewProgram(app)
	return p, app
}
