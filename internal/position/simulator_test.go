package position

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

func testPath(n int) []models.Coordinate {
	path := make([]models.Coordinate, n)
	for i := range path {
		path[i] = models.Coordinate{Lat: 9.93 + float64(i)*0.01, Lon: 76.26 + float64(i%2)*0.01}
	}
	return path
}

func TestNewSimulator_PathTooShort(t *testing.T) {
	for _, n := range []int{0, 1} {
		if _, err := NewSimulator(testPath(n)); !errors.Is(err, ErrPathTooShort) {
			t.Errorf("NewSimulator(%d points) error = %v, want ErrPathTooShort", n, err)
		}
	}
}

func TestSimulator_TerminatesAtLastIndex(t *testing.T) {
	for _, n := range []int{2, 3, 7} {
		sim, err := NewSimulator(testPath(n))
		if err != nil {
			t.Fatalf("NewSimulator() error = %v", err)
		}

		now := time.Now()
		frames := 0
		for {
			_, running := sim.Advance(now)
			frames++

			if sim.State().Step > n-1 {
				t.Fatalf("n=%d: step %d exceeded last index %d", n, sim.State().Step, n-1)
			}
			if !running {
				break
			}
			if sim.State().Step == n-1 {
				t.Fatalf("n=%d: still running at last index", n)
			}
			if frames > 10000 {
				t.Fatalf("n=%d: simulation never terminated", n)
			}
		}

		if sim.State().Step != n-1 {
			t.Errorf("n=%d: stopped at step %d, want %d", n, sim.State().Step, n-1)
		}
		// 20 frames per segment
		if want := (n - 1) * 20; frames != want {
			t.Errorf("n=%d: frames = %d, want %d", n, frames, want)
		}

		// Further frames are inert
		p, running := sim.Advance(now)
		if running || sim.State().Step != n-1 {
			t.Errorf("n=%d: advancing after termination changed state", n)
		}
		if p.Coordinate != testPath(n)[n-1] {
			t.Errorf("n=%d: final position = %v, want last point", n, p.Coordinate)
		}
	}
}

func TestSimulator_InterpolationBounds(t *testing.T) {
	path := testPath(5)
	sim, _ := NewSimulator(path)

	for {
		p, running := sim.Advance(time.Now())
		if !running {
			break
		}

		st := sim.State()
		if st.Progress < 0 || st.Progress >= 1 {
			t.Fatalf("progress %v outside [0,1)", st.Progress)
		}

		p1, p2 := path[st.Step], path[st.Step+1]
		want := Interpolate(p1, p2, st.Progress)
		if math.Abs(p.Lat-want.Lat) > 1e-12 || math.Abs(p.Lon-want.Lon) > 1e-12 {
			t.Fatalf("position %v not on segment %d at progress %v (want %v)", p.Coordinate, st.Step, st.Progress, want)
		}

		if !between(p.Lat, p1.Lat, p2.Lat) || !between(p.Lon, p1.Lon, p2.Lon) {
			t.Fatalf("position %v outside segment bounds %v-%v", p.Coordinate, p1, p2)
		}
	}
}

func between(v, a, b float64) bool {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return v >= lo-1e-12 && v <= hi+1e-12
}

func TestSimulator_Heading(t *testing.T) {
	tests := []struct {
		name string
		to   models.Coordinate
		want float64
	}{
		{"north", models.Coordinate{Lat: 1, Lon: 0}, 0},
		{"east", models.Coordinate{Lat: 0, Lon: 1}, 90},
		{"south", models.Coordinate{Lat: -1, Lon: 0}, 180},
		{"west", models.Coordinate{Lat: 0, Lon: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := NewSimulator([]models.Coordinate{{}, tt.to})
			p, _ := sim.Advance(time.Now())
			if p.Heading == nil {
				t.Fatal("heading should be set")
			}
			if math.Abs(*p.Heading-tt.want) > 1e-9 {
				t.Errorf("heading = %v, want %v", *p.Heading, tt.want)
			}
		})
	}
}

func TestSimulator_SpeedWobble(t *testing.T) {
	sim, _ := NewSimulator(testPath(3))
	for i := 0; i < 10; i++ {
		p, _ := sim.Advance(time.UnixMilli(int64(i) * 377))
		if p.Speed == nil {
			t.Fatal("speed should be set")
		}
		if *p.Speed < cruiseSpeed-speedWobble || *p.Speed > cruiseSpeed+speedWobble {
			t.Errorf("speed %v outside %v±%v", *p.Speed, cruiseSpeed, speedWobble)
		}
	}
}

func TestSimulator_MonotonicAlongPath(t *testing.T) {
	// A straight northbound path: latitude must never decrease
	path := []models.Coordinate{{Lat: 9.93, Lon: 76.26}, {Lat: 10.5, Lon: 76.26}, {Lat: 11.2, Lon: 76.26}, {Lat: 13.0827, Lon: 76.26}}
	sim, _ := NewSimulator(path)

	prev := sim.Last().Lat
	for {
		p, running := sim.Advance(time.Now())
		if p.Lat < prev {
			t.Fatalf("latitude went backwards: %v -> %v", prev, p.Lat)
		}
		prev = p.Lat
		if !running {
			break
		}
	}
	if prev != 13.0827 {
		t.Errorf("final latitude = %v, want arrival at 13.0827", prev)
	}
}
