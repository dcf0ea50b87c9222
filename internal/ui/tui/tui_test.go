package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func TestModel_Transcript(t *testing.T) {
	m := NewModel("scribe", "Welcome.", func(string) (string, error) { return "", nil })
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = step(t, m, ChunkMsg("streamed "))
	m = step(t, m, ChunkMsg("text"))

	if !strings.Contains(m.View(), "streamed text") {
		t.Errorf("view missing streamed chunks:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "Welcome.") {
		t.Errorf("view missing greeting")
	}
}

func TestModel_ResultAndStatus(t *testing.T) {
	m := NewModel("scribe", "Hi.", func(string) (string, error) { return "", nil })
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = step(t, m, StatusMsg("Working..."))
	if m.Status != "Working..." {
		t.Errorf("status: %q", m.Status)
	}

	m = step(t, m, ResultMsg{Summary: "Draft generated."})
	if m.Status != "Ready" {
		t.Errorf("status after result: %q", m.Status)
	}
	if !strings.Contains(m.View(), "Draft generated.") {
		t.Error("view missing result summary")
	}

	m = step(t, m, ResultMsg{Err: errors.New("provider down")})
	if !strings.Contains(m.View(), "provider down") {
		t.Error("view missing error message")
	}
}

func TestModel_EnterDispatchesLine(t *testing.T) {
	var gotLine string
	m := NewModel("scribe", "Hi.", func(line string) (string, error) {
		gotLine = line
		return "done", nil
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	for _, r := range "topics" {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if !m.busy {
		t.Error("model should be busy while dispatching")
	}
	if cmd == nil {
		t.Fatal("expected a dispatch command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if rm, ok := c().(ResultMsg); ok {
				msg = rm
				break
			}
		}
	}
	result, ok := msg.(ResultMsg)
	if !ok {
		t.Fatalf("expected ResultMsg, got %T", msg)
	}
	if result.Summary != "done" || gotLine != "topics" {
		t.Errorf("dispatch: summary %q, line %q", result.Summary, gotLine)
	}
}
