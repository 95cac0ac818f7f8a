// Package tui provides the Bubble Tea report frontend.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bionicpro/reports-platform/pkg/client"
)

type phase int

const (
	phaseCheckingSession phase = iota
	phaseLoginPrompt
	phaseFetching
	phaseDone
)

type sessionCheckedMsg struct {
	state client.SessionState
}

type reportFetchedMsg struct {
	result client.ReportResult
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea report UI. The session is checked
// once at mount; rendering is gated on that check resolving.
type Model struct {
	api     *client.Client
	phase   phase
	state   client.SessionState
	result  client.ReportResult
	spinner spinner.Model
	width   int
}

// NewModel constructs the report TUI model.
func NewModel(api *client.Client) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		api:     api,
		phase:   phaseCheckingSession,
		state:   client.StateLoading,
		result:  client.Pending(),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkSession())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.phase == phaseDone && m.state == client.StateAuthenticated {
				m.phase = phaseFetching
				m.result = client.Pending()
				return m, tea.Batch(m.spinner.Tick, m.fetchReport())
			}
			return m, nil
		default:
			return m, nil
		}

	case sessionCheckedMsg:
		m.state = msg.state
		if msg.state == client.StateAuthenticated {
			m.phase = phaseFetching
			return m, m.fetchReport()
		}
		m.phase = phaseLoginPrompt
		return m, nil

	case reportFetchedMsg:
		m.phase = phaseDone
		m.result = msg.result
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	header := titleStyle.Render("BionicPRO Usage Report") + "\n\n"

	switch m.phase {
	case phaseCheckingSession:
		return header + m.spinner.View() + " Checking session...\n"

	case phaseLoginPrompt:
		return header +
			promptStyle.Render("You are not logged in.") + "\n\n" +
			"Open this URL in your browser to login:\n  " + m.api.LoginURL() + "\n\n" +
			footerStyle.Render("q: quit") + "\n"

	case phaseFetching:
		return header + m.spinner.View() + " Fetching report...\n"

	case phaseDone:
		return header + m.renderResult() + "\n" +
			footerStyle.Render("r: refresh  q: quit") + "\n"

	default:
		return header
	}
}

func (m *Model) renderResult() string {
	switch m.result.Kind {
	case client.KindDenied:
		return errorStyle.Render(m.result.Reason) + "\n\n" +
			"Login again:\n  " + m.api.LoginURL() + "\n"
	case client.KindFailure:
		return errorStyle.Render(m.result.Message) + "\n"
	case client.KindSuccess:
		return renderReport(m.result.Payload)
	default:
		return m.spinner.View() + " Fetching report...\n"
	}
}

func (m *Model) checkSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sessionCheckedMsg{state: m.api.CheckSession(ctx)}
	}
}

func (m *Model) fetchReport() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return reportFetchedMsg{result: m.api.FetchReport(ctx)}
	}
}
