package position

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/logging"
)

func TestParseTPV(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOK      bool
		wantSpeed   bool
		wantHeading bool
	}{
		{"3D fix", `{"class":"TPV","mode":3,"lat":9.9312,"lon":76.2673,"speed":10.0,"track":45.5}`, true, true, true},
		{"2D fix without motion", `{"class":"TPV","mode":2,"lat":9.9312,"lon":76.2673}`, true, false, false},
		{"no fix", `{"class":"TPV","mode":1}`, false, false, false},
		{"sky report", `{"class":"SKY","satellites":[]}`, false, false, false},
		{"garbage", `not json`, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := parseTPV([]byte(tt.line))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if (p.Speed != nil) != tt.wantSpeed {
				t.Errorf("speed present = %v, want %v", p.Speed != nil, tt.wantSpeed)
			}
			if (p.Heading != nil) != tt.wantHeading {
				t.Errorf("heading present = %v, want %v", p.Heading != nil, tt.wantHeading)
			}
			if tt.wantSpeed && *p.Speed != 36 {
				t.Errorf("speed = %v km/h, want 36 (10 m/s)", *p.Speed)
			}
		})
	}
}

func TestGPSD_Watch(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		cmd, _ := bufio.NewReader(conn).ReadString('\n')
		if !strings.HasPrefix(cmd, "?WATCH=") {
			return
		}
		conn.Write([]byte(`{"class":"VERSION","release":"3.25"}` + "\n"))
		conn.Write([]byte(`{"class":"TPV","mode":3,"lat":9.9312,"lon":76.2673,"track":180}` + "\n"))
		conn.Write([]byte(`{"class":"TPV","mode":3,"lat":9.9400,"lon":76.2700}` + "\n"))
		// Hold the connection until the client leaves
		conn.Read(make([]byte, 1))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := NewGPSD(ln.Addr().String(), logging.Discard())
	fixes, errs := g.Watch(ctx)

	var got []float64
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case p := <-fixes:
			got = append(got, p.Lat)
		case err := <-errs:
			t.Fatalf("watch error: %v", err)
		case <-timeout:
			t.Fatal("timed out waiting for fixes")
		}
	}

	if got[0] != 9.9312 || got[1] != 9.94 {
		t.Errorf("fixes = %v, want [9.9312 9.94]", got)
	}

	cancel()
	select {
	case _, ok := <-fixes:
		if ok {
			// a buffered fix may still drain; the channel must close afterwards
			<-fixes
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fixes channel not closed after cancel")
	}
}

func TestGPSD_Watch_ConnectError(t *testing.T) {
	// Grab a free port and close it so the dial is refused
	ln, _ := net.Listen("tcp", "127.0.0.1:0")
	addr := ln.Addr().String()
	ln.Close()

	g := NewGPSD(addr, logging.Discard())
	_, errs := g.Watch(context.Background())

	select {
	case err := <-errs:
		if err == nil || !strings.Contains(err.Error(), "connecting to gpsd") {
			t.Errorf("error = %v, want connect failure", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for connect error")
	}
}
