// Package ui renders live generation progress in the terminal and the
// finished plan summary. It consumes the same progress events a web
// client would read off the SSE stream, just in-process.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// Run displays progress until the event channel closes.
func Run(events <-chan progress.Event) error {
	p := tea.NewProgram(newModel(events))
	_, err := p.Run()
	return err
}

type eventMsg progress.Event

type streamClosedMsg struct{}

type model struct {
	events <-chan progress.Event

	spinner    spinner.Model
	agent      string
	modelName  string
	iteration  int
	maxIter    int
	violations int
	score      float64
	passes     bool
	scored     bool
	done       bool
	failed     bool
	errMsg     string
}

func newModel(events <-chan progress.Event) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return model{events: events, spinner: sp}
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case streamClosedMsg:
		m.done = true
		return m, tea.Quit
	case eventMsg:
		m.apply(progress.Event(msg))
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m *model) apply(ev progress.Event) {
	switch ev.Type {
	case progress.EventAgentStart:
		m.agent = asString(ev.Data["agent"])
	case progress.EventMoERouting:
		m.modelName = asString(ev.Data["model"])
	case progress.EventAgentComplete:
		if name := asString(ev.Data["modelUsed"]); name != "" {
			m.modelName = name
		}
	case progress.EventIterationStart:
		m.iteration = asInt(ev.Data["iteration"])
		m.maxIter = asInt(ev.Data["maxIterations"])
		m.violations = 0
	case progress.EventViolationUpdate:
		m.violations += violationCount(ev.Data["regulatoryViolations"]) + violationCount(ev.Data["vastuViolations"])
	case progress.EventScoreUpdate:
		if sc, ok := ev.Data["breakdown"].(plan.Score); ok {
			m.score = sc.Final
			m.passes = sc.PassesThreshold
			m.scored = true
		}
	case progress.EventError:
		m.failed = true
		m.errMsg = asString(ev.Data["message"])
	}
}

func (m model) View() string {
	if m.done {
		return ""
	}
	header := titleStyle.Render("archai") + dimStyle.Render("  generating floor plan")

	lines := []string{header, ""}
	row := func(label, value string) string {
		return "  " + labelStyle.Render(label) + " " + valueStyle.Render(value)
	}

	status := m.spinner.View() + " working"
	if m.failed {
		status = badStyle.Render("✗ " + m.errMsg)
	}
	lines = append(lines, "  "+status)

	if m.iteration > 0 {
		lines = append(lines, row("iteration", itoa(m.iteration)+"/"+itoa(m.maxIter)))
	}
	if m.agent != "" {
		agent := m.agent
		if m.modelName != "" {
			agent += dimStyle.Render(" (" + m.modelName + ")")
		}
		lines = append(lines, row("agent    ", agent))
	}
	if m.violations > 0 {
		lines = append(lines, row("issues   ", itoa(m.violations)))
	}
	if m.scored {
		score := ftoa(m.score)
		if m.passes {
			score = goodStyle.Render(score + " ✓")
		}
		lines = append(lines, row("score    ", score))
	}
	lines = append(lines, "", dimStyle.Render("  q to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}
