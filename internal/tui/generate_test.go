package tui

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/fable/pkg/models"
)

func TestGenerateApp_UpdateState(t *testing.T) {
	app := NewGenerateApp("write a story", 6000)

	model, _ := app.Update(GenerateUpdateMsg{State: GenerateState{
		Task:          "write a story",
		TargetWords:   6000,
		CurrentPhase:  models.PhaseWrite,
		SectionsDone:  2,
		SectionsTotal: 4,
		Cost:          1.25,
	}})
	app = model.(*GenerateApp)

	view := app.View()
	for _, want := range []string{"write a story", "6000 words", "write", "2/4", "$1.25"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestGenerateApp_LongMultibyteTaskStaysValid(t *testing.T) {
	task := strings.Repeat("灯台守の物語を書く。", 12)
	app := NewGenerateApp(task, 6000)

	view := app.View()
	if !utf8.ValidString(view) {
		t.Error("truncated task rendered invalid UTF-8")
	}
	if !strings.Contains(view, "...") {
		t.Error("long task should be truncated with an ellipsis")
	}
}

func TestGenerateApp_LogEntries(t *testing.T) {
	app := NewGenerateApp("task", 1000)

	model, _ := app.Update(GenerateLogMsg{
		Timestamp: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Phase:     models.PhaseOutline,
		Message:   "section outlined",
	})
	app = model.(*GenerateApp)

	view := app.View()
	if !strings.Contains(view, "section outlined") {
		t.Error("view missing log message")
	}
	if !strings.Contains(view, "10:30:00") {
		t.Error("view missing log timestamp")
	}
}

func TestGenerateApp_Done(t *testing.T) {
	app := NewGenerateApp("task", 1000)

	model, _ := app.Update(GenerateDoneMsg{WordCount: 980})
	app = model.(*GenerateApp)

	if !strings.Contains(app.View(), "980 words") {
		t.Error("done view should report the final word count")
	}
}

func TestGenerateApp_DoneWithError(t *testing.T) {
	app := NewGenerateApp("task", 1000)

	model, _ := app.Update(GenerateDoneMsg{Err: errors.New("outline phase failed")})
	app = model.(*GenerateApp)

	if !strings.Contains(app.View(), "outline phase failed") {
		t.Error("done view should surface the error")
	}
}

func TestGenerateApp_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		app := NewGenerateApp("task", 1000)

		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}

		model, cmd := app.Update(msg)
		app = model.(*GenerateApp)

		if cmd == nil {
			t.Errorf("%s should quit", key)
		}
		if !strings.Contains(app.View(), "cancelled") {
			t.Errorf("%s should show the cancelled view", key)
		}
	}
}
