package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/port-navigator/internal/emergency"
	"github.com/ngmaloney/port-navigator/internal/mapview"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/ngmaloney/port-navigator/internal/navigation"
)

const defaultDivertText = "High Congestion at Gate A: suggest rerouting to Gate B"

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateSearch:
		return m.viewSearch()
	case StateLoading:
		return m.viewLoading()
	case StateNavigate:
		return m.viewNavigate()
	}
	return ""
}

// viewSearch renders the destination screen
func (m Model) viewSearch() string {
	title := titleStyle.Render("⚓ Port Navigator")
	subtitle := mutedStyle.Render("Route tracking for port-bound trucks")

	sections := []string{title, subtitle, "", searchBoxStyle.Render(m.searchInput.View())}

	if m.err != nil {
		sections = append(sections, "", errorStyle.Render("✗ "+m.err.Error()))
	}

	if len(m.suggestions.Items()) > 0 {
		heading := "Suggestions"
		if strings.TrimSpace(m.searchInput.Value()) == "" {
			heading = "Recent destinations"
		}
		if !m.listFocused {
			heading += mutedStyle.Render(" (↓ to choose)")
		}
		sections = append(sections, "", paneHeaderStyle.Render(heading), m.suggestions.View())
	}

	examples := mutedStyle.Render("Examples: Chennai Port | Kandla Port, Gujarat | Visakhapatnam")
	help := helpStyle.Render(fmt.Sprintf("Enter: Navigate (empty = %s) • ↑/↓: Choose • Ctrl+C: Quit", models.DefaultDestination.Label))

	sections = append(sections, "", examples, help)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewLoading renders the geocoding spinner
func (m Model) viewLoading() string {
	status := mutedStyle.Render(fmt.Sprintf("Finding %q...", m.searchQuery))
	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		titleStyle.Render("⚓ Port Navigator"),
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), status),
		"",
		helpStyle.Render("Esc: Back to search • Ctrl+C: Quit"),
	)
}

// viewNavigate renders the banner, map, sidebar and footer
func (m Model) viewNavigate() string {
	var top []string
	top = append(top, m.renderBanner())
	if m.divertShown {
		top = append(top, divertStyle.Width(m.width).Render("⚠ "+m.divertText()+"  [d] dismiss"))
	}
	if m.notice != "" {
		top = append(top, mutedStyle.Render(m.notice))
	}

	footer := m.renderFooter()

	mapW := max(m.width-sidebarWidth-1, 10)
	mapH := max(m.height-len(top)-lipgloss.Height(footer), 4)

	var main string
	if m.dialog.IsOpen() {
		main = lipgloss.Place(mapW, mapH, lipgloss.Center, lipgloss.Center, m.renderDialog())
	} else {
		main = m.renderMap(mapW, mapH)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, main, " ", m.renderSidebar(mapH))
	parts := append(top, body, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderBanner() string {
	text := "Calculating route..."
	switch {
	case m.hasInstruction:
		text = fmt.Sprintf("➤ %s · %s", strings.ToUpper(m.instruction.Text), navigation.FormatDistance(m.instruction.Distance))
	case m.route != nil:
		text = "Calibrating route... (G to start guidance)"
	}
	label := fmt.Sprintf("→ %s", m.destination.Label)
	return bannerStyle.Width(m.width).Render(text + "   " + label)
}

func (m Model) divertText() string {
	if m.prediction != nil && m.prediction.SmartDivert != "" {
		return m.prediction.SmartDivert
	}
	return defaultDivertText
}

func (m Model) renderMap(w, h int) string {
	layers := mapview.Layers{
		Destination: &m.destination.Coordinate,
		Vehicle:     m.feed.Current(),
	}
	if m.route != nil {
		layers.Route = m.route.Path
		if m.feed.Simulating() {
			layers.Traveled = m.stepIndex
		}
	}
	if m.prediction != nil {
		layers.Congestion = m.prediction.TrafficLevel
	}
	return mapview.Render(m.camera.Viewport(w, h), layers, m.theme())
}

func (m Model) renderSidebar(height int) string {
	panes := []string{m.renderDrivingPane(), m.renderConditionsPane(), m.renderRiskPane()}
	if m.showTraffic {
		panes = append(panes, m.renderTrafficPane())
	}
	return lipgloss.NewStyle().Width(sidebarWidth).MaxHeight(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, panes...),
	)
}

func pane(title string, rows ...string) string {
	content := append([]string{paneHeaderStyle.Render(title)}, rows...)
	return paneStyle.Width(sidebarWidth - 2).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-9s", label)) + " " + valueStyle.Render(value)
}

func (m Model) renderDrivingPane() string {
	speed, heading, source := "--", "--", "waiting"
	if p := m.feed.Current(); p != nil {
		if p.Speed != nil {
			speed = fmt.Sprintf("%.0f km/h", *p.Speed)
		}
		if p.Heading != nil {
			heading = fmt.Sprintf("%.0f° %c", *p.Heading, mapview.Arrow(*p.Heading))
		}
		source = p.Source.String()
	}
	if m.feed.Simulating() {
		source = "SIM ▶"
	}

	voice := "on"
	if m.announcer.Muted() {
		voice = "muted"
	}

	return pane("DRIVING",
		row("Speed", speed),
		row("Heading", heading),
		row("ETA", m.eta()),
		row("Source", source),
		row("Camera", m.camera.Mode().String()),
		row("Voice", voice),
	)
}

// eta scales the route duration by the share of the path still ahead
func (m Model) eta() string {
	if m.route == nil || m.route.Duration <= 0 {
		return "--"
	}
	remaining := 1.0
	if n := len(m.route.Path); n > 1 && m.feed.Simulating() {
		remaining = 1 - float64(m.stepIndex)/float64(n-1)
	}
	mins := int(m.route.Duration * remaining / 60)
	if mins >= 60 {
		return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
	}
	return fmt.Sprintf("%d min", mins)
}

func (m Model) renderConditionsPane() string {
	if m.predictor == nil {
		return pane("CONDITIONS", mutedStyle.Render("Predictions disabled"))
	}
	if m.weather == nil && m.prediction == nil {
		return pane("CONDITIONS", mutedStyle.Render("Waiting for data..."))
	}

	rows := []string{}
	if m.weather != nil {
		rows = append(rows, row("Weather", m.weather.Summary()))
	}
	if m.prediction != nil {
		p := m.prediction
		rows = append(rows,
			labelStyle.Render(fmt.Sprintf("%-9s", "Traffic"))+" "+trafficStyle(p.TrafficLevel).Render(p.TrafficLevel.String()),
			row("Fleet", fmt.Sprintf("%d active", p.ActiveFleetCount)),
		)
		if p.MonsoonMode {
			rows = append(rows, divertStyle.Render("MONSOON MODE"))
		}
	}
	if m.peers > 0 {
		rows = append(rows, row("Peers", fmt.Sprintf("%d nearby", m.peers)))
	}
	return pane("CONDITIONS", rows...)
}

func (m Model) renderRiskPane() string {
	clock := valueStyle.Render(m.penalty.Format())
	if m.penalty.Expired() {
		clock = sosTitleStyle.Render(m.penalty.Format())
	}
	rows := []string{
		labelStyle.Render(fmt.Sprintf("%-9s", "Free time")) + " " + clock,
		row("Accrued", fmt.Sprintf("$%.2f", m.penalty.Risk)),
	}
	if p := m.prediction; p != nil {
		rows = append(rows,
			row("Gate wait", fmt.Sprintf("%d min", p.PredictedWaitMinutes)),
			row("Demurrage", fmt.Sprintf("$%.0f", p.DemurrageRiskUSD)),
		)
	}
	return pane("RISK", rows...)
}

func (m Model) renderTrafficPane() string {
	var rows []string
	if m.flow == nil {
		rows = append(rows, mutedStyle.Render("Loading flow..."))
	} else {
		rows = append(rows,
			row("Road", m.flow.Label()),
			row("Speed", fmt.Sprintf("%.0f / %.0f km/h", m.flow.CurrentSpeed, m.flow.FreeFlowSpeed)),
		)
	}
	if m.prediction != nil {
		for _, s := range m.prediction.TrafficSegments {
			rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■ ")+s.Description)
		}
	}
	return pane("TRAFFIC", rows...)
}

func (m Model) renderDialog() string {
	var lines []string
	switch m.dialog.Step() {
	case emergency.StepConfirm:
		lines = []string{
			sosTitleStyle.Render("🚨 EMERGENCY SOS"),
			"",
			fmt.Sprintf("Send your location to %s", m.dialog.Phone()),
			"and place a call?",
			"",
			helpStyle.Render("Y/Enter: Send • Esc/N: Cancel"),
		}
	case emergency.StepSent:
		lines = []string{
			successStyle.Render("✓ SOS sent"),
			"",
			fmt.Sprintf("Calling %s...", m.dialog.Phone()),
			"",
			helpStyle.Render("Enter/Esc: Close"),
		}
	}
	return dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderFooter() string {
	traffic := ""
	if m.traffic != nil && m.traffic.Enabled() {
		traffic = " • O: Traffic"
	}
	sim := "G: Simulate"
	if m.feed.Simulating() {
		sim = "G: Stop sim"
	}
	return subtleStyle.Render(fmt.Sprintf(
		"%s • ←↑↓→/hjkl: Pan • +/-: Zoom • C: Recenter • M: Mute • T: Theme (%s)%s • E: SOS • S: Search • Q: Quit",
		sim, m.theme().Name, traffic,
	))
}
