package pathfind

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jakecoffman/cp"
)

func mustGrid(t *testing.T, size, cellSize float64, q ObstacleQuery) *Grid {
	t.Helper()
	g, err := NewGrid(size, size, cellSize, q)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func blockedCellsQuery(cellSize float64, blocked map[GridPos]bool) ObstacleQuery {
	return ObstacleQueryFunc(func(p cp.Vector, _ float64) bool {
		return blocked[GridPos{X: int(p.X / cellSize), Y: int(p.Y / cellSize)}]
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func assertConnected(t *testing.T, g *Grid, start GridPos, cells []GridPos) {
	t.Helper()
	prev := start
	for i, c := range cells {
		dx, dy := abs(c.X-prev.X), abs(c.Y-prev.Y)
		if dx > 1 || dy > 1 || (dx == 0 && dy == 0) {
			t.Fatalf("step %d from %v to %v is not an 8-connected move", i, prev, c)
		}
		if !g.Walkable(c.X, c.Y) {
			t.Fatalf("step %d enters blocked cell %v", i, c)
		}
		prev = c
	}
}

func pathCost(start GridPos, cells []GridPos) int {
	cost := 0
	prev := start
	for _, c := range cells {
		if c.X != prev.X && c.Y != prev.Y {
			cost += StepDiagonal
		} else {
			cost += StepStraight
		}
		prev = c
	}
	return cost
}

func TestFindPathOpenGridIsOptimal(t *testing.T) {
	g := mustGrid(t, 5, 1, freeQuery())
	p := NewPlanner(g)
	ctx := context.Background()

	for sy := 0; sy < g.SizeY(); sy++ {
		for sx := 0; sx < g.SizeX(); sx++ {
			for ty := 0; ty < g.SizeY(); ty++ {
				for tx := 0; tx < g.SizeX(); tx++ {
					start, target := GridPos{sx, sy}, GridPos{tx, ty}
					res := p.SearchCells(ctx, start, target)
					if start == target {
						if len(res.Waypoints) != 0 || res.Err != nil {
							t.Fatalf("start == target %v: got %d waypoints, err %v", start, len(res.Waypoints), res.Err)
						}
						continue
					}
					dx, dy := abs(tx-sx), abs(ty-sy)
					want := 10*max(dx, dy) + 4*min(dx, dy)
					if res.Cost != want {
						t.Fatalf("%v -> %v cost %d, want %d", start, target, res.Cost, want)
					}
					if got := pathCost(start, res.Cells); got != want {
						t.Fatalf("%v -> %v walked cost %d, want %d", start, target, got, want)
					}
					if len(res.Cells) != max(dx, dy) {
						t.Fatalf("%v -> %v has %d steps, want %d", start, target, len(res.Cells), max(dx, dy))
					}
					if res.Cells[len(res.Cells)-1] != target {
						t.Fatalf("path does not end at target")
					}
					assertConnected(t, g, start, res.Cells)
				}
			}
		}
	}
}

func TestFindPathTenByTenScenario(t *testing.T) {
	g := mustGrid(t, 9, 1, freeQuery())
	if g.SizeX() != 10 || g.SizeY() != 10 {
		t.Fatalf("grid %dx%d", g.SizeX(), g.SizeY())
	}
	p := NewPlanner(g)

	res := p.Search(context.Background(), cp.Vector{X: 0, Y: 0}, cp.Vector{X: 3, Y: 4})
	if res.Cost != 52 {
		t.Fatalf("cost %d, want 52", res.Cost)
	}
	if len(res.Waypoints) != 4 {
		t.Fatalf("%d waypoints, want 4", len(res.Waypoints))
	}
	if last := res.Waypoints[3]; last != (cp.Vector{X: 3.5, Y: 4.5}) {
		t.Fatalf("last waypoint %v, want target cell center", last)
	}
	assertConnected(t, g, GridPos{0, 0}, res.Cells)
}

func TestFindPathEdgeCases(t *testing.T) {
	ring := map[GridPos]bool{}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				ring[GridPos{5 + dx, 5 + dy}] = true
			}
		}
	}
	enclosed := mustGrid(t, 10, 1, blockedCellsQuery(1, ring))
	blockedTarget := mustGrid(t, 10, 1, blockedCellsQuery(1, map[GridPos]bool{{8, 8}: true}))
	open := mustGrid(t, 9, 1, freeQuery())

	cases := []struct {
		name    string
		g       *Grid
		start   cp.Vector
		target  cp.Vector
		wantErr error
	}{
		{"enclosed_target", enclosed, cp.Vector{X: 0.5, Y: 0.5}, cp.Vector{X: 5.5, Y: 5.5}, ErrNoPath},
		{"blocked_target", blockedTarget, cp.Vector{X: 0.5, Y: 0.5}, cp.Vector{X: 8.5, Y: 8.5}, ErrNoPath},
		{"target_beyond_far_edge", open, cp.Vector{X: 0.5, Y: 0.5}, cp.Vector{X: 10.5, Y: 3}, ErrOutOfBounds},
		{"negative_target", open, cp.Vector{X: 0.5, Y: 0.5}, cp.Vector{X: -0.1, Y: 3}, ErrOutOfBounds},
		{"same_cell", open, cp.Vector{X: 2.1, Y: 2.1}, cp.Vector{X: 2.9, Y: 2.9}, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewPlanner(c.g)
			res := p.Search(context.Background(), c.start, c.target)
			if len(res.Waypoints) != 0 {
				t.Fatalf("expected empty path, got %v", res.Waypoints)
			}
			if !errors.Is(res.Err, c.wantErr) {
				t.Fatalf("err = %v, want %v", res.Err, c.wantErr)
			}
			if got := p.FindPath(c.start, c.target); len(got) != 0 {
				t.Fatalf("FindPath returned %v", got)
			}
		})
	}

	t.Run("target_on_far_edge", func(t *testing.T) {
		p := NewPlanner(open)
		if got := p.FindPath(cp.Vector{X: 0, Y: 0}, cp.Vector{X: 9, Y: 9}); len(got) != 9 {
			t.Fatalf("expected 9 waypoints to the padded edge cell, got %d", len(got))
		}
	})
}

func TestFindPathRoutesAroundCircle(t *testing.T) {
	g := mustGrid(t, 20, 1, circleQuery(cp.Vector{X: 10, Y: 10}, 3))
	p := NewPlanner(g)

	start := cp.Vector{X: 2.5, Y: 10.5}
	res := p.Search(context.Background(), start, cp.Vector{X: 18.5, Y: 10.5})
	if !res.Found() {
		t.Fatalf("expected a path around the obstacle, err %v", res.Err)
	}
	assertConnected(t, g, GridPos{2, 10}, res.Cells)

	straight := 16 * StepStraight
	if res.Cost <= straight {
		t.Fatalf("cost %d should exceed the blocked straight line %d", res.Cost, straight)
	}
	for _, w := range res.Waypoints {
		if w.Distance(cp.Vector{X: 10, Y: 10}) < 3 {
			t.Fatalf("waypoint %v lies inside the obstacle", w)
		}
	}
}

func TestFindPathDeterministicAcrossSearches(t *testing.T) {
	g := mustGrid(t, 20, 1, circleQuery(cp.Vector{X: 8, Y: 12}, 4))
	p := NewPlanner(g)
	ctx := context.Background()

	first := p.SearchCells(ctx, GridPos{1, 1}, GridPos{18, 19})
	// An unrelated search in between must not leave costs behind.
	p.SearchCells(ctx, GridPos{19, 0}, GridPos{0, 19})
	second := p.SearchCells(ctx, GridPos{1, 1}, GridPos{18, 19})
	fresh := NewPlanner(g).SearchCells(ctx, GridPos{1, 1}, GridPos{18, 19})

	if !first.Found() {
		t.Fatalf("expected a path, err %v", first.Err)
	}
	if !reflect.DeepEqual(first.Cells, second.Cells) || !reflect.DeepEqual(first.Cells, fresh.Cells) {
		t.Fatalf("paths differ:\n%v\n%v\n%v", first.Cells, second.Cells, fresh.Cells)
	}
	if first.Expanded != second.Expanded {
		t.Fatalf("expanded %d then %d", first.Expanded, second.Expanded)
	}
}

func TestScratchReset(t *testing.T) {
	g := mustGrid(t, 9, 1, freeQuery())
	p := NewPlanner(g)
	p.SearchCells(context.Background(), GridPos{0, 0}, GridPos{9, 9})

	s := p.Scratch()
	touched := 0
	for i := 0; i < s.Len(); i++ {
		if s.Parent(i) != noParent {
			touched++
		}
	}
	if touched == 0 {
		t.Fatalf("search left no parents behind")
	}

	s.Reset()
	for i := 0; i < s.Len(); i++ {
		if s.GCost(i) != costInfinity || s.HCost(i) != costInfinity || s.Parent(i) != noParent || s.FCost(i) != costInfinity {
			t.Fatalf("cell %d not reset", i)
		}
	}
}

func TestSearchHonoursCancelledContext(t *testing.T) {
	g := mustGrid(t, 9, 1, freeQuery())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewPlanner(g).SearchCells(ctx, GridPos{0, 0}, GridPos{9, 9})
	if res.Found() || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("got %d waypoints, err %v", len(res.Waypoints), res.Err)
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		ax, ay, bx, by int
		want           int
	}{
		{0, 0, 0, 0, 0},
		{0, 0, 3, 4, 52},
		{3, 4, 0, 0, 52},
		{0, 0, 5, 0, 50},
		{2, 2, 0, 0, 28},
	}
	for _, c := range cases {
		if got := Distance(c.ax, c.ay, c.bx, c.by); got != c.want {
			t.Fatalf("Distance(%d,%d,%d,%d) = %d, want %d", c.ax, c.ay, c.bx, c.by, got, c.want)
		}
	}
}
