package obj

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestObstacleWorldOccupied(t *testing.T) {
	ow := NewObstacleWorld()
	if ow.AddCircle(10, 10, 3) != 0 {
		t.Fatalf("expected first obstacle index 0")
	}
	if ow.AddBox(30, 10, 10, 2, 90) != 1 {
		t.Fatalf("expected second obstacle index 1")
	}
	if ow.AddCircle(0, 0, 0) != -1 {
		t.Fatalf("zero radius circle should be rejected")
	}

	cases := []struct {
		name   string
		p      cp.Vector
		radius float64
		want   bool
	}{
		{"circle_center", cp.Vector{X: 10, Y: 10}, 0.5, true},
		{"circle_edge_probe", cp.Vector{X: 14, Y: 10}, 1.5, true},
		{"circle_clear", cp.Vector{X: 15, Y: 10}, 1, false},
		// Rotated 90°, the 10x2 box spans x 29..31 and y 5..15.
		{"box_rotated_inside", cp.Vector{X: 30, Y: 14}, 0.5, true},
		{"box_rotated_outside", cp.Vector{X: 33, Y: 10}, 0.5, false},
		{"far_away", cp.Vector{X: 50, Y: 50}, 2, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ow.Occupied(c.p, c.radius); got != c.want {
				t.Fatalf("Occupied(%v, %v) = %v, want %v", c.p, c.radius, got, c.want)
			}
		})
	}
}

func TestObstacleWorldNearby(t *testing.T) {
	ow := NewObstacleWorld()
	ow.AddCircle(10, 10, 2)
	ow.AddCircle(40, 40, 2)

	samples := ow.Nearby(cp.Vector{X: 10, Y: 15}, 5, nil)
	if len(samples) != 1 {
		t.Fatalf("expected 1 nearby obstacle, got %d", len(samples))
	}
	s := samples[0]
	if math.Abs(s.Distance-3) > 1e-6 {
		t.Fatalf("distance %v, want 3", s.Distance)
	}
	if math.Abs(s.Point.X-10) > 1e-6 || math.Abs(s.Point.Y-12) > 1e-6 {
		t.Fatalf("closest point %v, want (10,12)", s.Point)
	}
	if math.Abs(s.Toward.X) > 1e-6 || math.Abs(s.Toward.Y+1) > 1e-6 {
		t.Fatalf("toward %v, want (0,-1)", s.Toward)
	}

	if got := ow.Nearby(cp.Vector{X: 25, Y: 25}, 5, nil); len(got) != 0 {
		t.Fatalf("expected nothing nearby, got %v", got)
	}
}

func TestObstacleWorldNearbyFiltersByDistance(t *testing.T) {
	ow := NewObstacleWorld()
	ow.AddCircle(10, 10, 2)
	ow.AddBox(30, 10, 4, 4, 0)

	cases := []struct {
		name    string
		p       cp.Vector
		maxDist float64
		want    int
	}{
		// Bounding boxes overlap but the circle is 3.66 away.
		{"corner_outside_radius", cp.Vector{X: 14, Y: 14}, 3, 0},
		{"corner_inside_radius", cp.Vector{X: 14, Y: 14}, 4, 1},
		{"box_edge", cp.Vector{X: 30, Y: 14}, 2.5, 1},
		{"both", cp.Vector{X: 20, Y: 10}, 10, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ow.Nearby(c.p, c.maxDist, nil)
			if len(got) != c.want {
				t.Fatalf("Nearby(%v, %v) = %d samples, want %d", c.p, c.maxDist, len(got), c.want)
			}
			for _, s := range got {
				if s.Distance < 0 || s.Distance > c.maxDist {
					t.Fatalf("sample distance %v outside [0, %v]", s.Distance, c.maxDist)
				}
			}
		})
	}

	inside := ow.Nearby(cp.Vector{X: 10, Y: 10.5}, 1, nil)
	if len(inside) != 1 || inside[0].Distance != 0 {
		t.Fatalf("point inside obstacle: %+v", inside)
	}
}

func TestObstacleWorldClear(t *testing.T) {
	ow := NewObstacleWorld()
	ow.AddCircle(1, 1, 1)
	ow.Clear()
	if ow.Len() != 0 || ow.Occupied(cp.Vector{X: 1, Y: 1}, 0.5) {
		t.Fatalf("obstacles survived Clear")
	}
	ow.AddBox(5, 5, 2, 2, 0)
	if got := ow.Obstacles(); len(got) != 1 || got[0].Shape != ShapeBox {
		t.Fatalf("obstacles %v", got)
	}
}
