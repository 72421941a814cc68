package steer

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tugnav/obj"
)

func testConfig() PotentialFieldConfig {
	return PotentialFieldConfig{
		AttractionCoefficient: 500,
		AttractiveExponent:    -1,
		RepulsiveCoefficient:  60000,
		RepulsiveExponent:     -2,
		DistanceThreshold:     100,
		MaxRepulsionX:         1000,
		MaxRepulsionY:         1000,
	}
}

type fixedObstacles []obj.ObstacleSample

func (f fixedObstacles) Nearby(_ cp.Vector, maxDist float64, dst []obj.ObstacleSample) []obj.ObstacleSample {
	for _, s := range f {
		if s.Distance < maxDist {
			dst = append(dst, s)
		}
	}
	return dst
}

func TestSpeedForTurn(t *testing.T) {
	cases := []struct {
		diff float64
		want float64
	}{
		{0, 10},
		{90, 5},
		{180, 0},
		{270, 5},
	}
	for _, c := range cases {
		if got := SpeedForTurn(10, c.diff); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("SpeedForTurn(10, %v) = %v, want %v", c.diff, got, c.want)
		}
	}

	prev := SpeedForTurn(10, 0)
	for d := 10.0; d <= 180; d += 10 {
		s := SpeedForTurn(10, d)
		if s > prev {
			t.Fatalf("speed increased from %v to %v at %v°", prev, s, d)
		}
		prev = s
	}
	if SpeedForTurn(10, 179.9) > 1e-5 {
		t.Fatalf("speed near 180° should approach zero")
	}
}

func TestComputeAlignedIsFullSpeed(t *testing.T) {
	f := NewField(testConfig(), nil)
	self := AgentSample{ID: 1, Position: cp.Vector{X: 0, Y: 0}, Heading: 90, Mass: 1}

	res := f.Compute(self, 12, cp.Vector{X: 50, Y: 0}, NewSnapshot([]AgentSample{self}))
	if math.Abs(res.Heading-90) > 1e-9 {
		t.Fatalf("heading %v, want 90", res.Heading)
	}
	if res.Speed != 12 {
		t.Fatalf("speed %v, want exactly 12", res.Speed)
	}
	if math.Abs(res.Attractive.Length()-10) > 1e-9 {
		t.Fatalf("attractive magnitude %v, want 500·50^-1 = 10", res.Attractive.Length())
	}
}

func TestComputeReversingIsNearlyStopped(t *testing.T) {
	f := NewField(testConfig(), nil)
	self := AgentSample{ID: 1, Heading: 0, Mass: 1}

	res := f.Compute(self, 12, cp.Vector{X: 0, Y: -50}, nil)
	if math.Abs(res.Heading-180) > 1e-9 {
		t.Fatalf("heading %v, want 180", res.Heading)
	}
	if res.Speed > 1e-9 {
		t.Fatalf("speed %v, want ~0", res.Speed)
	}
}

func TestComputeRepulsion(t *testing.T) {
	cfg := testConfig()

	t.Run("agent_pushes_away", func(t *testing.T) {
		f := NewField(cfg, nil)
		self := AgentSample{ID: 1, Position: cp.Vector{}, Mass: 1}
		other := AgentSample{ID: 2, Position: cp.Vector{X: 10, Y: 0}, Mass: 1}
		res := f.Compute(self, 10, cp.Vector{X: 0, Y: 1000}, NewSnapshot([]AgentSample{self, other}))

		// 60000·1·10^-2 = 600 toward the other agent, subtracted.
		if math.Abs(res.Repulsive.X-600) > 1e-6 || math.Abs(res.Repulsive.Y) > 1e-6 {
			t.Fatalf("repulsive %v, want (600, 0)", res.Repulsive)
		}
		if res.Sum.X >= 0 {
			t.Fatalf("sum %v should point away from the other agent", res.Sum)
		}
		if res.Heading <= 180 {
			t.Fatalf("heading %v should veer west of north", res.Heading)
		}
	})

	t.Run("clamped_per_axis", func(t *testing.T) {
		f := NewField(cfg, fixedObstacles{{Distance: 0, Toward: cp.Vector{X: 0.6, Y: 0.8}}})
		res := f.Compute(AgentSample{ID: 1, Mass: 1}, 10, cp.Vector{X: 0, Y: 100}, nil)
		if res.Repulsive.X != cfg.MaxRepulsionX || res.Repulsive.Y != cfg.MaxRepulsionY {
			t.Fatalf("repulsive %v, want clamped to (%v, %v)", res.Repulsive, cfg.MaxRepulsionX, cfg.MaxRepulsionY)
		}
		if math.IsNaN(res.Heading) || math.IsNaN(res.Speed) {
			t.Fatalf("NaN steering at zero distance")
		}
	})

	t.Run("beyond_threshold_ignored", func(t *testing.T) {
		f := NewField(cfg, fixedObstacles{{Distance: 150, Toward: cp.Vector{X: 1}}})
		far := AgentSample{ID: 2, Position: cp.Vector{X: 200}}
		res := f.Compute(AgentSample{ID: 1, Mass: 1}, 10, cp.Vector{X: 0, Y: 100}, NewSnapshot([]AgentSample{far}))
		if res.Repulsive != (cp.Vector{}) {
			t.Fatalf("repulsive %v, want zero", res.Repulsive)
		}
	})

	t.Run("mass_scales_repulsion", func(t *testing.T) {
		f := NewField(cfg, fixedObstacles{{Distance: 20, Toward: cp.Vector{X: -1}}})
		light := f.Compute(AgentSample{ID: 1, Mass: 1}, 10, cp.Vector{Y: 100}, nil)
		heavy := f.Compute(AgentSample{ID: 1, Mass: 2}, 10, cp.Vector{Y: 100}, nil)
		if math.Abs(heavy.Repulsive.X-2*light.Repulsive.X) > 1e-6 {
			t.Fatalf("heavy %v, light %v", heavy.Repulsive, light.Repulsive)
		}
	})
}

func TestBearing(t *testing.T) {
	s := Bearing(AgentSample{Position: cp.Vector{X: 5, Y: 5}, Heading: 0}, 7, cp.Vector{X: 5, Y: -5})
	if math.Abs(s.Heading-180) > 1e-9 || s.Speed != 7 {
		t.Fatalf("bearing %+v, want heading 180 at full speed", s)
	}
}

func TestSnapshotLookup(t *testing.T) {
	snap := NewSnapshot([]AgentSample{{ID: 4, Position: cp.Vector{X: 1}}, {ID: 9}})
	if a, ok := snap.Lookup(4); !ok || a.Position.X != 1 {
		t.Fatalf("lookup 4 = %+v, %v", a, ok)
	}
	if _, ok := snap.Lookup(5); ok {
		t.Fatalf("lookup of missing id succeeded")
	}
	var nilSnap *Snapshot
	if _, ok := nilSnap.Lookup(4); ok {
		t.Fatalf("nil snapshot lookup succeeded")
	}
}

func TestValidate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := testConfig()
	bad.MaxRepulsionY = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("zero clamp accepted")
	}
}
