package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8000/")

	if client.baseURL != "http://localhost:8000" {
		t.Errorf("baseURL = %s, want trailing slash trimmed", client.baseURL)
	}
	if client.httpClient.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s", client.httpClient.Timeout)
	}
	if !client.Enabled() {
		t.Error("client with a URL should be enabled")
	}
	if NewClient("").Enabled() {
		t.Error("client without a URL should be disabled")
	}
}

func TestHTTPClient_GetWeather(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantRain float64
		wantDesc string
	}{
		{
			name:     "monsoon",
			body:     `{"main": {"temp": 28.0}, "weather": [{"main": "Rain", "description": "monsoon showers"}], "visibility": 3000, "rain": {"1h": 15.0}}`,
			wantRain: 15,
			wantDesc: "monsoon showers",
		},
		{
			name:     "clear with empty rain object",
			body:     `{"main": {"temp": 32.0}, "weather": [{"main": "Clear", "description": "clear sky"}], "visibility": 10000, "rain": {}}`,
			wantRain: 0,
			wantDesc: "clear sky",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "GET" || r.URL.Path != "/weather" {
					t.Errorf("request = %s %s, want GET /weather", r.Method, r.URL.Path)
				}
				if r.URL.Query().Get("lat") != "9.9312" || r.URL.Query().Get("lon") != "76.2673" {
					t.Errorf("query = %s", r.URL.RawQuery)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			weather, err := client.GetWeather(context.Background(), 9.9312, 76.2673)
			if err != nil {
				t.Fatalf("GetWeather() error = %v", err)
			}
			if weather.Rain1h != tt.wantRain {
				t.Errorf("Rain1h = %v, want %v", weather.Rain1h, tt.wantRain)
			}
			if weather.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", weather.Description, tt.wantDesc)
			}
		})
	}
}

func TestHTTPClient_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/predict" {
			t.Errorf("request = %s %s, want POST /predict", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("Content-Type should be application/json")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		for _, key := range []string{"port_name", "lat", "lon", "rain_1h", "visibility", "truck_density"} {
			if _, ok := req[key]; !ok {
				t.Errorf("request missing %s", key)
			}
		}
		if req["truck_density"] != float64(DefaultTruckDensity) {
			t.Errorf("truck_density = %v, want default %d", req["truck_density"], DefaultTruckDensity)
		}
		if req["port_name"] != "Cochin Port" {
			t.Errorf("port_name = %v", req["port_name"])
		}

		w.Write([]byte(`{
			"predicted_wait_minutes": 130,
			"demurrage_risk_usd": 58.33,
			"traffic_level": "CRITICAL",
			"active_fleet_count": 12,
			"monsoon_mode": false,
			"smart_divert": "Gate B"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	p, err := client.Predict(context.Background(), Request{PortName: "Cochin Port", Lat: 9.93, Lon: 76.26, Visibility: 10000})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if p.PredictedWaitMinutes != 130 {
		t.Errorf("PredictedWaitMinutes = %d, want 130", p.PredictedWaitMinutes)
	}
	if p.TrafficLevel != models.TrafficCritical {
		t.Errorf("TrafficLevel = %v, want CRITICAL", p.TrafficLevel)
	}
	if p.SmartDivert != "Gate B" {
		t.Errorf("SmartDivert = %q, want Gate B", p.SmartDivert)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped")
	}
}

func TestHTTPClient_UpdateLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var report Report
		json.NewDecoder(r.Body).Decode(&report)
		if report.TruckID != "truck-1" {
			t.Errorf("truck_id = %q", report.TruckID)
		}
		w.Write([]byte(`{"status": "success", "active_peers": 7}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	peers, err := client.UpdateLocation(context.Background(), Report{TruckID: "truck-1", Lat: 1, Lon: 2, Heading: 90})
	if err != nil {
		t.Fatalf("UpdateLocation() error = %v", err)
	}
	if peers != 7 {
		t.Errorf("peers = %d, want 7", peers)
	}
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Model not loaded"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Predict(context.Background(), Request{PortName: "Cochin Port"})
	if err == nil {
		t.Fatal("Predict() expected error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "Model not loaded") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestHTTPClient_Disabled(t *testing.T) {
	client := NewClient("")
	if _, err := client.GetWeather(context.Background(), 0, 0); err == nil {
		t.Error("disabled client should return an error")
	}
}
