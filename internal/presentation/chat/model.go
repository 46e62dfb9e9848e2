// Package chat is the full-screen chat host for a quest session.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/runner"
)

// SubmitFunc applies one line to the session and returns the stored result.
type SubmitFunc func(ctx context.Context, line string) (*domain.State, error)

// resultMsg carries a finished submission back into Update.
type resultMsg struct {
	seq   int
	state *domain.State
	err   error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a78bfa"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22d3ee"))
	systemStyle = lipgloss.NewStyle()
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the chat.
type Model struct {
	submit SubmitFunc
	ctx    context.Context
	cancel context.CancelFunc

	state    *domain.State
	notice   string
	busy     bool
	seq      int
	quitting bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	ready    bool
}

// NewModel creates a chat over state. submit runs off the UI goroutine.
func NewModel(ctx context.Context, state *domain.State, submit SubmitFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "generate, setup, help or clear"
	ti.CharLimit = runner.DefaultMaxInputSize
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(ctx)
	m := Model{
		submit:   submit,
		ctx:      ctx,
		cancel:   cancel,
		state:    state,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			return m.enter()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case resultMsg:
		// Results of an abandoned or superseded call are dropped.
		if m.quitting || msg.seq != m.seq {
			return m, nil
		}
		m.busy = false
		m.notice = ""
		if msg.err != nil {
			m.notice = fmt.Sprintf("Request failed: %v", msg.err)
		} else if msg.state != nil {
			m.state = msg.state
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// enter submits the typed line. It is ignored while a call is in flight.
func (m Model) enter() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	if runner.IsExit(line) {
		return m.quit()
	}

	clean, err := runner.SanitizeInput(line)
	if err != nil {
		m.notice = fmt.Sprintf("Error: %v.", err)
		m.refresh()
		return m, nil
	}

	m.input.Reset()
	m.busy = true
	m.seq++
	seq, ctx, submit := m.seq, m.ctx, m.submit
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		state, err := submit(ctx, clean)
		return resultMsg{seq: seq, state: state, err: err}
	})
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

// refresh redraws the transcript into the viewport.
func (m *Model) refresh() {
	var b strings.Builder
	for i, e := range m.state.Transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderEntry(e, m.viewport.Width))
	}
	if m.notice != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.notice))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderEntry(e domain.Entry, width int) string {
	style := systemStyle
	text := e.Text
	switch e.Kind {
	case domain.EntryUser:
		style = userStyle
		text = "> " + text
	case domain.EntryError:
		style = errorStyle
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(text)
}

func (m Model) View() string {
	if m.quitting {
		return runner.Farewell + "\n"
	}

	header := titleStyle.Render("Commit Message Quest") + "  " + stepStyle.Render(m.state.Step().String())

	footer := m.input.View()
	if m.busy {
		footer = m.spinner.View() + " consulting the oracle..."
	}

	return header + "\n" + m.viewport.View() + "\n" + footer + "\n" + hintStyle.Render("esc to leave")
}

// State returns the transcript currently shown.
func (m Model) State() *domain.State { return m.state }

// Busy reports whether a submission is in flight.
func (m Model) Busy() bool { return m.busy }
