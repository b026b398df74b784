package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/port-navigator/internal/emergency"
	"github.com/ngmaloney/port-navigator/internal/mapview"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/ngmaloney/port-navigator/internal/navigation"
	"github.com/ngmaloney/port-navigator/internal/portlookup"
	"github.com/ngmaloney/port-navigator/internal/predict"
	"github.com/ngmaloney/port-navigator/internal/routing"
	"github.com/sirupsen/logrus"
)

// divertDelay is how long congestion must persist before a detour is suggested
const divertDelay = 4 * time.Second

// startNavigation switches to the map for dest and restarts the per-trip state
func (m *Model) startNavigation(dest models.Destination) tea.Cmd {
	var cmds []tea.Cmd
	if m.feed.Simulating() {
		cmds = append(cmds, m.stopSimulation())
	}

	m.logger.WithFields(logrus.Fields{
		"destination": dest.Label,
		"lat":         dest.Lat,
		"lon":         dest.Lon,
	}).Info("Navigating")

	m.destination = dest
	m.hasDestination = true
	m.state = StateNavigate
	m.err = nil
	m.notice = ""
	m.searchInput.Blur()
	m.listFocused = false

	m.route = nil
	m.stepIndex = 0
	m.hasInstruction = false
	m.lastRouteOrigin = nil
	m.announcer.Reset()

	m.penalty.Reset()
	m.penaltyGen++
	cmds = append(cmds, penaltyTick(m.penaltyGen))

	if p := m.feed.Current(); p != nil {
		m.camera.Recenter(p.Coordinate)
		m.requestRoute(p.Coordinate)
	} else {
		m.camera.Recenter(dest.Coordinate)
	}

	if m.recents != nil {
		cmds = append(cmds, recordDestination(m.recents, dest))
	}
	return tea.Batch(cmds...)
}

// handlePosition reacts to an accepted live or fallback position
func (m *Model) handlePosition(p models.Position) tea.Cmd {
	m.camera.Follow(p.Coordinate)

	if m.hasDestination && !m.feed.Simulating() {
		m.requestRoute(p.Coordinate)
	}

	if !m.polling && m.predictor != nil {
		m.polling = true
		m.pollGen++
		return tea.Batch(m.refresh(), pollTick(m.pollGen, m.cfg.Poll.Interval))
	}
	return nil
}

// requestRoute asks the planner for a route unless the origin barely moved
// since the last request for the same destination.
func (m *Model) requestRoute(origin models.Coordinate) {
	dest := m.destination.Coordinate
	if last := m.lastRouteOrigin; last != nil && m.lastRouteDest == dest {
		moved := portlookup.HaversineKm(last.Lat, last.Lon, origin.Lat, origin.Lon) * 1000
		if moved < routeRefreshMeters {
			return
		}
	}
	o := origin
	m.lastRouteOrigin = &o
	m.lastRouteDest = dest
	m.planner.Request(origin, dest)
}

// applyRoute installs a planner result for the current destination.
// Failures keep the previous route.
func (m *Model) applyRoute(r routing.Result) {
	if !m.hasDestination || r.Destination != m.destination.Coordinate {
		m.logger.WithField("destination", r.Destination.String()).Debug("Dropping route for stale destination")
		return
	}
	if m.feed.Simulating() {
		// playback owns the route; the next live fix refetches
		m.logger.Debug("Dropping route that arrived during playback")
		m.lastRouteOrigin = nil
		return
	}
	if r.Err != nil {
		m.logger.WithError(r.Err).WithField("origin", r.Origin.String()).Warn("Route fetch failed")
		m.lastRouteOrigin = nil
		return
	}

	m.route = r.Route
	m.stepIndex = 0
	m.hasInstruction = false
}

// updateInstruction recomputes the banner maneuver from playback progress and
// hands it to the announcer. Only playback calls it.
func (m *Model) updateInstruction() {
	if m.route == nil {
		m.hasInstruction = false
		return
	}
	m.instruction, m.hasInstruction = navigation.Overlay(m.route.Steps, m.stepIndex, len(m.route.Path))
	if m.hasInstruction {
		m.announcer.Announce(m.instruction.Text)
	}
}

// toggleSimulation starts route playback, or stops it and resumes live tracking
func (m *Model) toggleSimulation() tea.Cmd {
	if m.feed.Simulating() {
		return m.stopSimulation()
	}

	if !m.route.Playable() {
		m.notice = "No route to simulate yet"
		return nil
	}
	if err := m.feed.StartSimulation(m.route.Path); err != nil {
		m.logger.WithError(err).Warn("Could not start simulation")
		m.notice = err.Error()
		return nil
	}

	m.planner.Cancel()
	m.notice = ""
	m.camera.Recenter(m.route.Path[0])
	m.stepIndex = 0
	m.updateInstruction()

	m.simGen++
	return simFrame(m.simGen)
}

func (m *Model) stopSimulation() tea.Cmd {
	if !m.feed.Simulating() {
		return nil
	}
	m.feed.StopSimulation()
	m.simGen++
	m.stepIndex = 0
	m.hasInstruction = false
	return m.resumeLive()
}

// advanceSimulation runs one playback frame and schedules the next
func (m *Model) advanceSimulation(msg simFrameMsg) tea.Cmd {
	if msg.gen != m.simGen || !m.feed.Simulating() {
		return nil
	}

	sim := m.feed.Simulator()
	p, running := m.feed.Advance(msg.time)
	m.stepIndex = sim.State().Step
	m.camera.Follow(p.Coordinate)
	m.updateInstruction()

	if running {
		return simFrame(msg.gen)
	}
	m.logger.Info("Simulation reached destination")
	m.simGen++
	return m.resumeLive()
}

// refresh polls the prediction service, reports our position and reads road flow
func (m *Model) refresh() tea.Cmd {
	p := m.feed.Current()
	if p == nil || m.predictor == nil {
		return nil
	}

	cmds := []tea.Cmd{
		pollPrediction(m.predictor, m.ports, p.Coordinate, m.weather, m.cfg.Backend.TruckDensity),
	}
	if m.truckID != "" {
		cmds = append(cmds, reportLocation(m.predictor, predict.Report{
			TruckID: m.truckID,
			Lat:     p.Lat,
			Lon:     p.Lon,
			Heading: p.HeadingOr(0),
		}))
	}
	if m.showTraffic && m.traffic != nil {
		cmds = append(cmds, fetchFlow(m.traffic, p.Coordinate))
	}
	return tea.Batch(cmds...)
}

// applyPoll keeps the last good values for whichever half failed
func (m *Model) applyPoll(msg pollResultMsg) tea.Cmd {
	if msg.weatherErr != nil {
		m.logger.WithError(msg.weatherErr).Warn("Weather fetch failed")
	} else if msg.weather != nil {
		m.weather = msg.weather
	}

	if msg.predictErr != nil {
		m.logger.WithError(msg.predictErr).Warn("Prediction fetch failed")
		return nil
	}
	if msg.prediction != nil {
		m.prediction = msg.prediction
	}
	return m.checkDivert()
}

// checkDivert arms the detour banner while congestion is high and clears it once it eases
func (m *Model) checkDivert() tea.Cmd {
	if m.prediction == nil {
		return nil
	}
	if !m.prediction.TrafficLevel.Congested() {
		m.divertGen++
		m.divertPending = false
		m.divertShown = false
		m.divertDismissed = false
		return nil
	}
	if m.divertPending || m.divertShown || m.divertDismissed {
		return nil
	}
	m.divertPending = true
	m.divertGen++
	return divertAfter(m.divertGen, divertDelay)
}

// handleNavigateKey handles keyboard input on the map screen
func (m Model) handleNavigateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dialog.IsOpen() {
		cmd := m.handleDialogKey(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit
	case "g":
		cmd := m.toggleSimulation()
		return m, cmd
	case "up", "k":
		m.camera.Pan(0, -panRows)
	case "down", "j":
		m.camera.Pan(0, panRows)
	case "left", "h":
		m.camera.Pan(-panCols, 0)
	case "right", "l":
		m.camera.Pan(panCols, 0)
	case "+", "=":
		m.camera.ZoomBy(1)
	case "-", "_":
		m.camera.ZoomBy(-1)
	case "c":
		if p := m.feed.Current(); p != nil {
			m.camera.Recenter(p.Coordinate)
		}
	case "m":
		m.announcer.SetMuted(!m.announcer.Muted())
	case "t":
		m.themeIdx = (m.themeIdx + 1) % len(mapview.Themes)
	case "o":
		cmd := m.toggleTraffic()
		return m, cmd
	case "e":
		m.dialog.Open()
	case "d":
		if m.divertShown {
			m.divertShown = false
			m.divertDismissed = true
		}
	case "s":
		cmd := m.backToSearch()
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		if m.dialog.Step() == emergency.StepConfirm {
			var pos *models.Coordinate
			if p := m.feed.Current(); p != nil {
				c := p.Coordinate
				pos = &c
			}
			m.dialog.Confirm(pos)
			return nil
		}
		m.dialog.Close()
	case "esc", "n":
		m.dialog.Close()
	}
	return nil
}

func (m *Model) toggleTraffic() tea.Cmd {
	if m.traffic == nil || !m.traffic.Enabled() {
		m.notice = "Traffic overlay needs traffic.api_key"
		return nil
	}
	m.showTraffic = !m.showTraffic
	if !m.showTraffic {
		m.flow = nil
		return nil
	}
	if p := m.feed.Current(); p != nil {
		return fetchFlow(m.traffic, p.Coordinate)
	}
	return nil
}

// handleMouse zooms on the wheel and drags the map with the left button
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.camera.ZoomBy(1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.camera.ZoomBy(-1)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging = true
		m.dragX, m.dragY = msg.X, msg.Y
		m.camera.BeginDrag()
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.camera.Pan(m.dragX-msg.X, m.dragY-msg.Y)
		m.dragX, m.dragY = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	}
}
