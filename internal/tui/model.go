// Package tui is the interactive ask loop: type a question about the
// processed reports, read the grounded answer, and browse the retrieved
// passages it was based on.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
)

// AskPort is the TUI-facing subset of the query engine.
type AskPort interface {
	Answer(ctx context.Context, question string, k int) (domain.Answer, error)
}

// Model is the Bubble Tea model for the ask loop.
type Model struct {
	engine AskPort

	input    textinput.Model
	viewport viewport.Model

	answer      domain.Answer
	status      string
	showSources bool
	cursor      int
	waiting     bool
	ready       bool
}

type answerMsg struct {
	answer domain.Answer
	err    error
}

// New creates the TUI model.
func New(engine AskPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your medical records"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		engine:   engine,
		input:    ti,
		status:   "Ready. Type a question and press Enter.",
		viewport: vp,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = domain.Answer{}
		} else {
			m.answer = msg.answer
			m.cursor = 0
			m.showSources = false
			m.status = fmt.Sprintf("Answered from %d retrieved passages. Tab toggles sources.", len(msg.answer.Sources))
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				return m, func() tea.Msg {
					answer, err := m.engine.Answer(context.Background(), q, 0)
					return answerMsg{answer: answer, err: err}
				}
			}
		case "tab":
			if len(m.answer.Sources) > 0 {
				m.showSources = !m.showSources
				m.viewport.SetContent(m.renderContent())
				return m, nil
			}
		case "down":
			if m.showSources && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderContent())
				return m, nil
			}
		case "up":
			if m.showSources && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Sources)) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderContent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("CareAI Medical Report Companion")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderContent() string {
	if m.answer.Text == "" {
		return "Ask a question to get started."
	}
	if !m.showSources {
		return m.answer.Text
	}
	src := m.answer.Sources[m.cursor]
	title := fmt.Sprintf("Source %d/%d  %s  score=%.3f",
		m.cursor+1, len(m.answer.Sources), src.Chunk.DocumentName, src.Score)
	return sourceTitleStyle.Render(title) + "\n\n" + src.Chunk.Text
}

var (
	headerStyle      = lipgloss.NewStyle().Bold(true)
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
