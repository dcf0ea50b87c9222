// Package tui is the bubbletea chat view behind the interactive command.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI adapts a running program to the ui.Sink interface so the workflow
// runner can stream chunks into the view.
type TUI struct {
	program *tea.Program
}

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

func (t *TUI) Chunk(text string) {
	t.program.Send(ChunkMsg(text))
}

func (t *TUI) Status(status string) {
	t.program.Send(StatusMsg(status))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

type ChunkMsg string
type StatusMsg string

// ResultMsg reports a finished command dispatch.
type ResultMsg struct {
	Summary string
	Err     error
}

// Dispatch runs one submitted line and returns its summary. It is called
// from a tea command, off the update loop.
type Dispatch func(line string) (string, error)

// Model is the chat view state. Kept copyable, as bubbletea passes models
// by value through Update.
type Model struct {
	Title      string
	Status     string
	transcript string
	viewport   viewport.Model
	input      textinput.Model
	dispatch   Dispatch
	busy       bool
	ready      bool
	quitting   bool
}

func NewModel(title, greeting string, dispatch Dispatch) Model {
	ti := textinput.New()
	ti.Placeholder = "What would you like me to do?"
	ti.Focus()

	return Model{
		Title:      title,
		Status:     "Ready",
		transcript: greeting + "\n",
		input:      ti,
		dispatch:   dispatch,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				break
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			if strings.EqualFold(line, "exit") {
				m.quitting = true
				return m, tea.Quit
			}
			m.input.Reset()
			m.busy = true
			m.Status = "Working..."
			m.appendf("\n%s\n", promptStyle.Render("> "+line))
			dispatch := m.dispatch
			cmds = append(cmds, func() tea.Msg {
				summary, err := dispatch(line)
				return ResultMsg{Summary: summary, Err: err}
			})
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-5)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 5
		}
		m.syncViewport()

	case ChunkMsg:
		m.transcript += string(msg)
		m.syncViewport()

	case StatusMsg:
		m.Status = string(msg)

	case ResultMsg:
		m.busy = false
		m.Status = "Ready"
		if msg.Err != nil {
			m.appendf("\n%s\n", errorStyle.Render("error: "+msg.Err.Error()))
		} else if msg.Summary != "" {
			m.appendf("\n%s\n", msg.Summary)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) appendf(format string, args ...any) {
	m.transcript += fmt.Sprintf(format, args...)
	m.syncViewport()
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := titleStyle.Render(" "+m.Title+" ") + " " + m.Status
	view := fmt.Sprintf("%s\n%s\n\n%s", header, m.viewport.View(), m.input.View())
	if m.quitting {
		return view + "\n  Bye.\n"
	}
	return view
}
