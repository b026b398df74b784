package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/port-navigator/internal/destinations"
	"github.com/ngmaloney/port-navigator/internal/geocoding"
	"github.com/ngmaloney/port-navigator/internal/models"
)

// Place labels keep four address parts; the input text keeps three
const (
	labelParts = 4
	inputParts = 3
)

// placeItem is a geocoding suggestion in the list
type placeItem struct {
	place geocoding.Place
}

func (i placeItem) Title() string       { return i.place.ShortName(labelParts) }
func (i placeItem) Description() string { return i.place.Coordinate().String() }
func (i placeItem) FilterValue() string { return i.place.DisplayName }

// recentItem is a previously used destination in the list
type recentItem struct {
	entry destinations.Entry
}

func (i recentItem) Title() string { return i.entry.Label }
func (i recentItem) Description() string {
	return fmt.Sprintf("Recent · %s", i.entry.LastUsed.Local().Format("Jan 2 15:04"))
}
func (i recentItem) FilterValue() string { return i.entry.Label }

func newSuggestionList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), listWidth(0), listHeight(0))
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	return l
}

func listWidth(termWidth int) int {
	if termWidth <= 0 {
		return 64
	}
	return min(termWidth-4, 80)
}

func listHeight(termHeight int) int {
	if termHeight <= 0 {
		return 12
	}
	return max(termHeight-16, 4)
}

// handleSearchKey handles keyboard input on the destination screen
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		cmd := m.submitSearch()
		return m, cmd

	case tea.KeyDown:
		if len(m.suggestions.Items()) == 0 {
			return m, nil
		}
		if m.listFocused {
			m.suggestions.CursorDown()
		} else {
			m.listFocused = true
			m.suggestions.Select(0)
		}
		return m, nil

	case tea.KeyUp:
		if !m.listFocused {
			return m, nil
		}
		if m.suggestions.Index() == 0 {
			m.listFocused = false
		} else {
			m.suggestions.CursorUp()
		}
		return m, nil

	case tea.KeyEsc:
		m.listFocused = false
		return m, nil
	}

	// Clear error when typing
	m.err = nil
	m.listFocused = false

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, cmd
	}
	suggest := m.inputChanged()
	return m, tea.Batch(cmd, suggest)
}

// inputChanged refreshes the list for the current text: recents when empty,
// nothing for very short text, otherwise a debounced suggestion query.
func (m *Model) inputChanged() tea.Cmd {
	m.suggestSeq++
	query := strings.TrimSpace(m.searchInput.Value())
	switch {
	case query == "":
		m.showRecents()
		return nil
	case len([]rune(query)) < geocoding.MinQueryLength:
		m.suggestions.SetItems(nil)
		return nil
	}
	return suggestAfter(m.suggestSeq, m.cfg.Geocoding.SuggestDebounce)
}

func (m *Model) querySuggestions(seq int) tea.Cmd {
	if seq != m.suggestSeq || m.geocoder == nil || m.state != StateSearch {
		return nil
	}
	query := strings.TrimSpace(m.searchInput.Value())
	if len([]rune(query)) < geocoding.MinQueryLength {
		return nil
	}
	return searchPlaces(m.geocoder, seq, query, m.cfg.Geocoding.SuggestLimit)
}

func (m *Model) applySuggestions(msg suggestionsMsg) {
	if msg.seq != m.suggestSeq {
		return
	}
	if msg.err != nil {
		m.logger.WithError(msg.err).Debug("Suggestion lookup failed")
		return
	}
	items := make([]list.Item, len(msg.places))
	for i, p := range msg.places {
		items[i] = placeItem{place: p}
	}
	m.suggestions.SetItems(items)
	m.listFocused = false
}

func (m *Model) showRecents() {
	items := make([]list.Item, len(m.recentEntries))
	for i, e := range m.recentEntries {
		items[i] = recentItem{entry: e}
	}
	m.suggestions.SetItems(items)
}

// submitSearch picks the focused list entry, the default destination for
// empty input, or geocodes the typed text.
func (m *Model) submitSearch() tea.Cmd {
	if m.listFocused {
		switch item := m.suggestions.SelectedItem().(type) {
		case placeItem:
			m.searchInput.SetValue(item.place.ShortName(inputParts))
			return m.startNavigation(item.place.Destination())
		case recentItem:
			m.searchInput.SetValue(item.entry.Label)
			return m.startNavigation(item.entry.Destination)
		}
	}

	query := strings.TrimSpace(m.searchInput.Value())
	if query == "" {
		return m.startNavigation(models.DefaultDestination)
	}
	if m.geocoder == nil {
		m.err = errors.New("geocoding is not available")
		return nil
	}

	m.searchQuery = query
	m.err = nil
	m.state = StateLoading
	m.suggestSeq++
	return tea.Batch(m.spinner.Tick, geocodeDestination(m.geocoder, query))
}

func (m *Model) applyGeocode(msg geocodeMsg) tea.Cmd {
	if m.state != StateLoading || msg.query != m.searchQuery {
		return nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, geocoding.ErrNotFound) {
			m.err = errors.New(geocoding.NotFoundMessage(msg.query))
		} else {
			m.logger.WithError(msg.err).WithField("query", msg.query).Warn("Geocoding failed")
			m.err = fmt.Errorf("geocoding failed: %w", msg.err)
		}
		m.state = StateSearch
		m.searchInput.Focus()
		return textinput.Blink
	}
	return m.startNavigation(msg.place.Destination())
}

// backToSearch leaves navigation and stops routing for the old destination;
// tracking and polling keep running
func (m *Model) backToSearch() tea.Cmd {
	cmd := m.stopSimulation()
	m.planner.Cancel()
	m.hasDestination = false
	m.route = nil
	m.lastRouteOrigin = nil
	m.penaltyGen++
	m.dialog.Close()

	m.state = StateSearch
	m.err = nil
	m.notice = ""
	m.listFocused = false
	m.searchInput.SetValue("")
	m.searchInput.Focus()
	m.showRecents()
	return tea.Batch(cmd, textinput.Blink)
}
