package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
)

// Dashboard panel indices.
const (
	panelOverview = iota
	panelTimeline
	panelUtilization
	panelVariance
	panelAlerts
	panelCount
)

var panelNames = [panelCount]string{"Overview", "Timeline", "Utilization", "Variance", "Alerts"}

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	report *core.Report
	alerts []observability.Alert

	loading bool
	err     error

	load tea.Cmd
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	report *core.Report
	alerts []observability.Alert
	err    error
}

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(load tea.Cmd) dashboardModel {
	return dashboardModel{
		activePanel: panelOverview,
		loading:     true,
		load:        load,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.load
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab", "left", "h":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "1", "2", "3", "4", "5":
			m.activePanel = int(msg.String()[0] - '1')
			return m, nil
		case "r":
			m.loading = true
			return m, m.load
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.report = msg.report
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Work Pulse ")
	help := helpStyle.Render("tab/1-5: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading report...\n\n%s", title, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}
	if m.report == nil {
		return fmt.Sprintf("%s\n\n  No report loaded.\n\n%s", title, help)
	}

	panelWidth := m.width - 6
	if panelWidth < 40 {
		panelWidth = 40
	}
	body := panelStyle.Width(panelWidth).Render(m.renderPanel(panelWidth - 4))

	return fmt.Sprintf("%s  %s\n\n%s\n\n%s", title, m.renderTabs(), body, help)
}

func (m dashboardModel) renderTabs() string {
	tabs := make([]string, panelCount)
	for i, name := range panelNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == panelAlerts && len(m.alerts) > 0 {
			label = fmt.Sprintf("%s (%d)", label, len(m.alerts))
		}
		if i == m.activePanel {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m dashboardModel) renderPanel(width int) string {
	rep := m.report
	switch m.activePanel {
	case panelOverview:
		left := lipgloss.JoinVertical(lipgloss.Left,
			renderSummary(rep.Summary()), "", renderBreakdown("By status", rep.ByStatus))
		right := lipgloss.JoinVertical(lipgloss.Left,
			renderBreakdown("By priority", rep.ByPriority), "", renderTemporal(rep))
		if width > 120 {
			return lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
		}
		return lipgloss.JoinVertical(lipgloss.Left, left, "", right)
	case panelTimeline:
		track := width - 22
		if track < 10 {
			track = 10
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			renderTimeline("Work items", rep.Timeline, track), "",
			renderTimeline("Projects", rep.ProjectTimeline, track))
	case panelUtilization:
		return lipgloss.JoinVertical(lipgloss.Left,
			renderUtilization(rep.Utilization), "", renderBreakdown("By assignee", rep.ByAssignee))
	case panelVariance:
		return renderVariance(rep.Variance)
	case panelAlerts:
		var b strings.Builder
		b.WriteString(headerStyle.Render("Alerts"))
		b.WriteString("\n")
		b.WriteString(renderAlerts(m.alerts))
		if len(rep.Warnings) > 0 {
			b.WriteString("\n\n")
			b.WriteString(renderWarnings(rep.Warnings))
		}
		return b.String()
	}
	return ""
}

// dashboardLoader builds the load command for the dashboard from opts.
func dashboardLoader(opts reportOptions) tea.Cmd {
	return func() tea.Msg {
		run, err := generateReport(opts)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		var alerts []observability.Alert
		if AlertEngine != nil {
			alerts = AlertEngine.Evaluate(run.report)
			if err := run.recorder.RecordAlerts(alerts); err != nil {
				Logger.Warn().Err(err).Str("run_id", run.recorder.RunID()).Msg("event log write failed")
			}
		}
		return dataLoadedMsg{report: run.report, alerts: alerts}
	}
}

var dashboardOpts reportOptions

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the current records",
	Long: `Launch an interactive terminal dashboard showing the report overview,
timelines, resource utilization, estimate variance, and alerts.

Switch panels with Tab or 1-5, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reporter == nil {
			return fmt.Errorf("reporter not initialized")
		}
		p := tea.NewProgram(newDashboardModel(dashboardLoader(dashboardOpts)), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardOpts.bind(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}
