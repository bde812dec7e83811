// Package chatui provides an interactive terminal chat client driving the
// orchestrator directly, without the HTTP layer.
package chatui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mfriebe/claimpilot/internal/router"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// turnDoneMsg carries a finished turn back into the update loop.
type turnDoneMsg struct {
	result *router.Result
	err    error
}

// Run starts the interactive chat session and blocks until the user quits.
func Run(orchestrator router.Orchestrator) error {
	m := &model{
		orchestrator: orchestrator,
		threadID:     uuid.NewString(),
	}

	ti := textinput.New()
	ti.Placeholder = "Frage eingeben..."
	ti.Focus()
	ti.CharLimit = 4000
	m.input = ti

	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

type model struct {
	orchestrator router.Orchestrator
	threadID     string

	viewport viewport.Model
	input    textinput.Model
	ready    bool
	busy     bool

	transcript []string
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.busy = true
			m.appendLine(userStyle.Render("you: ") + prompt)
			m.appendLine(metaStyle.Render("thinking..."))
			return m, m.runTurn(prompt)
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refresh()

	case turnDoneMsg:
		m.busy = false
		// Drop the "thinking..." line.
		if n := len(m.transcript); n > 0 {
			m.transcript = m.transcript[:n-1]
		}
		if msg.err != nil {
			m.appendLine(metaStyle.Render("error: " + msg.err.Error()))
		} else {
			m.appendLine(assistantStyle.Render("assistant: ") + msg.result.Response)
			if msg.result.Resource != nil {
				m.appendLine(metaStyle.Render(fmt.Sprintf("[interactive resource: %s (%s)]",
					msg.result.Resource.URI, msg.result.Resource.MimeType)))
			}
		}
		m.appendLine("")
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}
	header := titleStyle.Render("claimpilot") + " " +
		metaStyle.Render("thread "+m.threadID[:8])
	footer := m.input.View() + "\n" +
		helpStyle.Render("enter: send · esc: quit")
	return header + "\n" + m.viewport.View() + "\n" + footer
}

// runTurn executes one orchestration turn off the update loop.
func (m *model) runTurn(prompt string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.orchestrator.Handle(context.Background(), prompt, m.threadID)
		return turnDoneMsg{result: result, err: err}
	}
}

func (m *model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.refresh()
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(wordwrap.String(strings.Join(m.transcript, "\n"), width))
	m.viewport.GotoBottom()
}
