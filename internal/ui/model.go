package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/port-navigator/internal/config"
	"github.com/ngmaloney/port-navigator/internal/destinations"
	"github.com/ngmaloney/port-navigator/internal/emergency"
	"github.com/ngmaloney/port-navigator/internal/geocoding"
	"github.com/ngmaloney/port-navigator/internal/hud"
	"github.com/ngmaloney/port-navigator/internal/logging"
	"github.com/ngmaloney/port-navigator/internal/mapview"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/ngmaloney/port-navigator/internal/navigation"
	"github.com/ngmaloney/port-navigator/internal/position"
	"github.com/ngmaloney/port-navigator/internal/predict"
	"github.com/ngmaloney/port-navigator/internal/routing"
	"github.com/ngmaloney/port-navigator/internal/traffic"
	"github.com/sirupsen/logrus"
)

// AppState represents the current state of the application
type AppState int

const (
	StateSearch   AppState = iota // Choose a destination
	StateLoading                  // Geocoding the typed destination
	StateNavigate                 // Map, HUD and guidance
)

const (
	sidebarWidth = 36

	panCols = 4
	panRows = 2

	// routeRefreshMeters is how far the vehicle must move before the route is refetched
	routeRefreshMeters = 30.0
)

// Geocoder resolves destination text
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geocoding.Place, error)
	Geocode(ctx context.Context, query string) (*geocoding.Place, error)
}

// FlowSource supplies road flow for the traffic overlay
type FlowSource interface {
	Enabled() bool
	FlowAt(ctx context.Context, lat, lon float64) (*traffic.Flow, error)
}

// PortNamer picks the port gate the prediction is requested for
type PortNamer interface {
	PortNameFor(pos models.Coordinate) string
}

// RecentStore remembers chosen destinations
type RecentStore interface {
	Record(dest models.Destination) error
	Recent(limit int) ([]destinations.Entry, error)
}

// Services are the collaborators the model drives. Nil fields disable the
// matching feature, except Router which is required and Dispatcher which
// defaults to the desktop URL opener.
type Services struct {
	Config     *config.Config
	Logger     logrus.FieldLogger
	Predictor  predict.Client
	Geocoder   Geocoder
	Router     routing.Router
	Traffic    FlowSource
	Ports      PortNamer
	Recents    RecentStore
	Watcher    position.Watcher
	Speaker    navigation.Speaker
	Dispatcher emergency.Dispatcher
	TruckID    string

	// Destination skips the search screen when set
	Destination *models.Destination
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error
	notice string

	cfg       *config.Config
	logger    logrus.FieldLogger
	predictor predict.Client
	geocoder  Geocoder
	traffic   FlowSource
	ports     PortNamer
	recents   RecentStore
	truckID   string

	ctx    context.Context
	cancel context.CancelFunc

	// Search
	searchInput   textinput.Model
	searchQuery   string
	suggestions   list.Model
	listFocused   bool
	suggestSeq    int
	recentEntries []destinations.Entry
	spinner       spinner.Model
	pending       *models.Destination

	// Navigation
	destination    models.Destination
	hasDestination bool
	feed           *position.Feed
	planner        *routing.Planner
	route          *models.Route
	stepIndex      int
	instruction    navigation.Instruction
	hasInstruction bool
	announcer      *navigation.Announcer

	lastRouteOrigin *models.Coordinate
	lastRouteDest   models.Coordinate

	// Map
	camera   *mapview.Camera
	themeIdx int
	dragging bool
	dragX    int
	dragY    int

	// Tick chains; a message from an older generation is dropped
	simGen     int
	penaltyGen int
	pollGen    int
	divertGen  int

	penalty *hud.PenaltyClock
	polling bool

	// Conditions
	weather     *models.Weather
	prediction  *models.Prediction
	peers       int
	flow        *traffic.Flow
	showTraffic bool

	divertPending   bool
	divertShown     bool
	divertDismissed bool

	dialog *emergency.Dialog
}

// NewModel creates a new application model
func NewModel(s Services) Model {
	cfg := s.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	dispatcher := s.Dispatcher
	if dispatcher == nil {
		dispatcher = emergency.NewOpenerDispatcher()
	}

	ti := textinput.New()
	ti.Placeholder = "Enter a destination (e.g. Chennai Port, Tamil Nadu)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:       StateSearch,
		cfg:         cfg,
		logger:      logger,
		predictor:   s.Predictor,
		geocoder:    s.Geocoder,
		traffic:     s.Traffic,
		ports:       s.Ports,
		recents:     s.Recents,
		truckID:     s.TruckID,
		ctx:         ctx,
		cancel:      cancel,
		searchInput: ti,
		suggestions: newSuggestionList(),
		spinner:     sp,
		pending:     s.Destination,
		feed:        position.NewFeed(s.Watcher),
		planner:     routing.NewPlanner(s.Router, cfg.Routing.Debounce, logger),
		announcer:   navigation.NewAnnouncer(s.Speaker, logger),
		camera:      mapview.NewCamera(models.FallbackOrigin, mapview.DefaultZoom),
		penalty:     hud.NewPenaltyClock(),
		dialog:      emergency.NewDialog(cfg.Emergency.Phone, cfg.Emergency.CallDelay, dispatcher, logger),
	}
}

// Init starts location tracking and the route listener
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		waitForRoute(m.planner.Results()),
		m.startLive(),
	}
	if m.recents != nil {
		cmds = append(cmds, loadRecents(m.recents))
	}
	if m.pending != nil {
		dest := *m.pending
		cmds = append(cmds, func() tea.Msg { return destinationChosenMsg{dest: dest} })
	}
	return tea.Batch(cmds...)
}

// Close releases background work: the planner, the live watch, speech and the emergency timer
func (m Model) Close() {
	m.planner.Close()
	m.feed.Close()
	m.dialog.Shutdown()
	m.announcer.Close()
	m.cancel()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.suggestions.SetSize(listWidth(msg.Width), listHeight(msg.Height))
		return m, nil

	case locationMsg:
		if msg.sub != m.feed.Live() {
			return m, nil
		}
		var cmd tea.Cmd
		if m.feed.ApplyFix(msg.pos) {
			cmd = m.handlePosition(msg.pos)
		}
		return m, tea.Batch(cmd, waitForLocation(msg.sub))

	case locationErrMsg:
		if msg.sub != nil && msg.sub != m.feed.Live() {
			return m, nil
		}
		m.logger.WithError(msg.err).Warn("Location unavailable")
		var cmds []tea.Cmd
		if p, ok := m.feed.ApplyError(msg.err); ok {
			cmds = append(cmds, m.handlePosition(p))
		}
		if msg.sub != nil {
			cmds = append(cmds, waitForLocation(msg.sub))
		}
		return m, tea.Batch(cmds...)

	case locationClosedMsg:
		if msg.sub == m.feed.Live() {
			m.logger.Info("Location stream closed")
		}
		return m, nil

	case routeMsg:
		m.applyRoute(routing.Result(msg))
		return m, waitForRoute(m.planner.Results())

	case simFrameMsg:
		cmd := m.advanceSimulation(msg)
		return m, cmd

	case penaltyTickMsg:
		if msg.gen != m.penaltyGen {
			return m, nil
		}
		m.penalty.Tick()
		return m, penaltyTick(msg.gen)

	case pollTickMsg:
		if msg.gen != m.pollGen {
			return m, nil
		}
		return m, tea.Batch(m.refresh(), pollTick(msg.gen, m.cfg.Poll.Interval))

	case pollResultMsg:
		cmd := m.applyPoll(msg)
		return m, cmd

	case peersMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Debug("Location report failed")
			return m, nil
		}
		m.peers = msg.peers
		return m, nil

	case flowMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Debug("Traffic flow fetch failed")
			return m, nil
		}
		m.flow = msg.flow
		return m, nil

	case divertDueMsg:
		if msg.gen != m.divertGen {
			return m, nil
		}
		m.divertPending = false
		if m.prediction != nil && m.prediction.TrafficLevel.Congested() && !m.divertDismissed {
			m.divertShown = true
		}
		return m, nil

	case suggestDueMsg:
		cmd := m.querySuggestions(msg.seq)
		return m, cmd

	case suggestionsMsg:
		m.applySuggestions(msg)
		return m, nil

	case recentsMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("Loading recent destinations failed")
			return m, nil
		}
		m.recentEntries = msg.entries
		if m.state == StateSearch && m.searchInput.Value() == "" {
			m.showRecents()
		}
		return m, nil

	case geocodeMsg:
		cmd := m.applyGeocode(msg)
		return m, cmd

	case destinationChosenMsg:
		m.pending = nil
		cmd := m.startNavigation(msg.dest)
		return m, cmd

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.state == StateNavigate {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		switch m.state {
		case StateSearch:
			return m.handleSearchKey(msg)
		case StateLoading:
			if msg.Type == tea.KeyEsc {
				m.state = StateSearch
				m.searchInput.Focus()
				return m, textinput.Blink
			}
			return m, nil
		case StateNavigate:
			return m.handleNavigateKey(msg)
		}
	}

	if m.state == StateSearch {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startLive subscribes to device location. Without a watcher the failure is
// delivered as a message so the fallback origin is used.
func (m *Model) startLive() tea.Cmd {
	sub, err := m.feed.StartLive(m.ctx)
	if err != nil {
		return func() tea.Msg { return locationErrMsg{err: err} }
	}
	return waitForLocation(sub)
}

// resumeLive returns to device tracking after playback, if a watcher exists
func (m *Model) resumeLive() tea.Cmd {
	if !m.feed.HasWatcher() {
		return nil
	}
	return m.startLive()
}

func (m Model) theme() mapview.Theme {
	return mapview.Themes[m.themeIdx%len(mapview.Themes)]
}
