package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/port-navigator/internal/destinations"
	"github.com/ngmaloney/port-navigator/internal/geocoding"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/ngmaloney/port-navigator/internal/portlookup"
	"github.com/ngmaloney/port-navigator/internal/position"
	"github.com/ngmaloney/port-navigator/internal/predict"
	"github.com/ngmaloney/port-navigator/internal/routing"
	"github.com/ngmaloney/port-navigator/internal/traffic"
)

// Message types for async operations

// locationMsg carries a device fix from the live subscription
type locationMsg struct {
	sub *position.Subscription
	pos models.Position
}

// locationErrMsg reports a location failure; sub is nil when live tracking never started
type locationErrMsg struct {
	sub *position.Subscription
	err error
}

// locationClosedMsg is sent when a live subscription ends
type locationClosedMsg struct {
	sub *position.Subscription
}

// routeMsg is a debounced route fetch outcome
type routeMsg routing.Result

// simFrameMsg drives one simulation frame
type simFrameMsg struct {
	gen  int
	time time.Time
}

// penaltyTickMsg advances the demurrage clock
type penaltyTickMsg struct {
	gen int
}

// pollTickMsg triggers the next prediction refresh
type pollTickMsg struct {
	gen int
}

// pollResultMsg is the outcome of one weather+prediction refresh
type pollResultMsg struct {
	weather    *models.Weather
	weatherErr error
	prediction *models.Prediction
	predictErr error
}

// peersMsg is the fleet size returned by a location report
type peersMsg struct {
	peers int
	err   error
}

// flowMsg carries road flow for the traffic overlay
type flowMsg struct {
	flow *traffic.Flow
	err  error
}

// divertDueMsg fires when congestion has persisted long enough to suggest a detour
type divertDueMsg struct {
	gen int
}

// suggestDueMsg fires when typing has paused long enough to query suggestions
type suggestDueMsg struct {
	seq int
}

// suggestionsMsg carries place candidates for the query issued at seq
type suggestionsMsg struct {
	seq    int
	places []geocoding.Place
	err    error
}

// geocodeMsg is sent when resolving free text completes
type geocodeMsg struct {
	query string
	place *geocoding.Place
	err   error
}

// destinationChosenMsg starts navigation to a destination picked outside the search screen
type destinationChosenMsg struct {
	dest models.Destination
}

// recentsMsg carries saved destinations for the search screen
type recentsMsg struct {
	entries []destinations.Entry
	err     error
}

// waitForLocation waits for the next event on a live subscription
func waitForLocation(sub *position.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case p, ok := <-sub.Fixes:
			if !ok {
				return locationClosedMsg{sub: sub}
			}
			return locationMsg{sub: sub, pos: p}
		case err, ok := <-sub.Errors:
			if !ok {
				return locationClosedMsg{sub: sub}
			}
			return locationErrMsg{sub: sub, err: err}
		}
	}
}

// waitForRoute waits for the planner's next result
func waitForRoute(results <-chan routing.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return nil
		}
		return routeMsg(r)
	}
}

func simFrame(gen int) tea.Cmd {
	return tea.Tick(position.FrameInterval, func(t time.Time) tea.Msg {
		return simFrameMsg{gen: gen, time: t}
	})
}

func penaltyTick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return penaltyTickMsg{gen: gen}
	})
}

func pollTick(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func divertAfter(gen int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return divertDueMsg{gen: gen}
	})
}

func suggestAfter(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return suggestDueMsg{seq: seq}
	})
}

// pollPrediction fetches weather and then the prediction that depends on it.
// last supplies rain and visibility when the weather call fails.
func pollPrediction(client predict.Client, ports PortNamer, pos models.Coordinate, last *models.Weather, density int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		portName := portlookup.DefaultPortName
		if ports != nil {
			portName = ports.PortNameFor(pos)
		}

		var res pollResultMsg
		res.weather, res.weatherErr = client.GetWeather(ctx, pos.Lat, pos.Lon)

		w := res.weather
		if w == nil {
			w = last
		}
		req := predict.Request{PortName: portName, Lat: pos.Lat, Lon: pos.Lon, TruckDensity: density}
		if w != nil {
			req.Rain1h = w.Rain1h
			req.Visibility = w.Visibility
		}
		res.prediction, res.predictErr = client.Predict(ctx, req)
		return res
	}
}

// reportLocation posts this truck's position to the fleet tracker
func reportLocation(client predict.Client, report predict.Report) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		peers, err := client.UpdateLocation(ctx, report)
		return peersMsg{peers: peers, err: err}
	}
}

func fetchFlow(source FlowSource, pos models.Coordinate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		flow, err := source.FlowAt(ctx, pos.Lat, pos.Lon)
		return flowMsg{flow: flow, err: err}
	}
}

// searchPlaces fetches suggestions in the background
func searchPlaces(geocoder Geocoder, seq int, query string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		places, err := geocoder.Search(ctx, query, limit)
		return suggestionsMsg{seq: seq, places: places, err: err}
	}
}

// geocodeDestination performs geocoding in the background
func geocodeDestination(geocoder Geocoder, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		place, err := geocoder.Geocode(ctx, query)
		return geocodeMsg{query: query, place: place, err: err}
	}
}

func loadRecents(store RecentStore) tea.Cmd {
	return func() tea.Msg {
		entries, err := store.Recent(destinations.DefaultRecentLimit)
		return recentsMsg{entries: entries, err: err}
	}
}

// recordDestination saves dest as used and reloads the recents
func recordDestination(store RecentStore, dest models.Destination) tea.Cmd {
	return func() tea.Msg {
		if err := store.Record(dest); err != nil {
			return recentsMsg{err: err}
		}
		entries, err := store.Recent(destinations.DefaultRecentLimit)
		return recentsMsg{entries: entries, err: err}
	}
}
