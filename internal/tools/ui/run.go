package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type actionMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	title     string
	details   []string
	err       error
	done      bool
	cancelled bool
	startedAt time.Time
	now       time.Time
	action    func(context.Context) ([]string, error)
	ctx       context.Context
	cancel    context.CancelFunc
}

func newModel(title string, action func(context.Context) ([]string, error)) model {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	now := time.Now()
	return model{title: title, action: action, ctx: ctx, cancel: cancel, startedAt: now, now: now}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	run := func() tea.Msg {
		details, err := m.action(m.ctx)
		return actionMsg{details: details, err: err}
	}
	return tea.Batch(run, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.cancelled = true
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.now = time.Time(msg)
		return m, tick()
	case actionMsg:
		m.cancel()
		m.details = msg.details
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	if !m.done {
		fmt.Fprintf(&b, "\nRunning... %s\n", m.now.Sub(m.startedAt).Round(100*time.Millisecond))
		return b.String()
	}
	switch {
	case m.cancelled:
		fmt.Fprintf(&b, "%s\n", failStyle.Render("CANCELLED"))
	case m.err != nil:
		fmt.Fprintf(&b, "%s: %v\n", failStyle.Render("FAILED"), m.err)
	default:
		fmt.Fprintf(&b, "%s\n", okStyle.Render("OK"))
	}
	for _, d := range m.details {
		b.WriteString(detailStyle.Render("- "+d) + "\n")
	}
	return b.String()
}

// Run shows a progress view while action executes and returns its result.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	p := tea.NewProgram(newModel(title, action))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
