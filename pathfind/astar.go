package pathfind

import (
	"container/heap"
	"context"
	"errors"

	"github.com/jakecoffman/cp"
)

const (
	// StepStraight and StepDiagonal are integer move costs; 14 approximates
	// 10·√2.
	StepStraight = 10
	StepDiagonal = 14

	cancelCheckInterval = 256
)

var (
	ErrOutOfBounds = errors.New("pathfind: endpoint outside grid")
	ErrNoPath      = errors.New("pathfind: no path")
	ErrSuperseded  = errors.New("pathfind: superseded by a newer request")
)

// GridPos addresses a cell by its integer coordinates.
type GridPos struct {
	X int
	Y int
}

// Result is the outcome of one search. An empty Waypoints slice always means
// "no route"; Err says why when there is a reason beyond start == target.
type Result struct {
	Waypoints []cp.Vector
	Cells     []GridPos
	Cost      int
	Expanded  int
	Err       error
}

// Found reports whether the search produced at least one waypoint.
func (r Result) Found() bool {
	return len(r.Waypoints) > 0
}

var neighborOffsets = [8]GridPos{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Distance is the octile distance between two cells in step-cost units. It
// never overestimates the true cost on an 8-connected grid and satisfies the
// triangle inequality across single steps.
func Distance(ax, ay, bx, by int) int {
	dx := ax - bx
	if dx < 0 {
		dx = -dx
	}
	dy := ay - by
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return StepDiagonal*dy + StepStraight*(dx-dy)
	}
	return StepDiagonal*dx + StepStraight*(dy-dx)
}

// Planner runs A* over a Grid. A Planner is not safe for concurrent use; use
// one Planner per goroutine (they may share the Grid).
type Planner struct {
	grid    *Grid
	scratch *Scratch
	open    openSet
	seq     uint32
}

func NewPlanner(g *Grid) *Planner {
	return &Planner{
		grid:    g,
		scratch: NewScratch(g),
		open:    make(openSet, 0, 64),
	}
}

func (p *Planner) Grid() *Grid { return p.grid }

// Scratch exposes the state left behind by the last search.
func (p *Planner) Scratch() *Scratch { return p.scratch }

// FindPath returns the waypoints (cell centers) from start to target,
// excluding the start cell and including the target cell. It returns an
// empty slice when there is no route.
func (p *Planner) FindPath(start, target cp.Vector) []cp.Vector {
	return p.Search(context.Background(), start, target).Waypoints
}

// Search maps both endpoints to cells and runs SearchCells.
func (p *Planner) Search(ctx context.Context, start, target cp.Vector) Result {
	sx, sy := p.grid.WorldToGrid(start)
	tx, ty := p.grid.WorldToGrid(target)
	return p.SearchCells(ctx, GridPos{X: sx, Y: sy}, GridPos{X: tx, Y: ty})
}

// SearchCells runs A* between two cells. ctx is polled periodically; when it
// is done the search is abandoned and the result is empty.
func (p *Planner) SearchCells(ctx context.Context, start, target GridPos) Result {
	g := p.grid
	if !g.InBounds(target.X, target.Y) || !g.InBounds(start.X, start.Y) {
		return Result{Err: ErrOutOfBounds}
	}
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	if start == target {
		return Result{}
	}
	if !g.Walkable(target.X, target.Y) {
		return Result{Err: ErrNoPath}
	}

	s := p.scratch
	s.Reset()
	p.open = p.open[:0]
	p.seq = 0

	startIdx := g.index(start.X, start.Y)
	targetIdx := g.index(target.X, target.Y)

	s.g[startIdx] = 0
	s.h[startIdx] = int32(Distance(start.X, start.Y, target.X, target.Y))
	s.state[startIdx] = stateOpen
	p.push(startIdx)

	expanded := 0
	for p.open.Len() > 0 {
		item := heap.Pop(&p.open).(openItem)
		cur := int(item.idx)
		// A cell can sit in the heap more than once after its cost improved;
		// only the cheapest entry is expanded.
		if s.state[cur] == stateClosed {
			continue
		}
		s.state[cur] = stateClosed
		expanded++

		if cur == targetIdx {
			return p.result(startIdx, targetIdx, expanded)
		}

		if expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Expanded: expanded, Err: err}
			}
		}

		cx, cy := g.coords(cur)
		for _, d := range neighborOffsets {
			nx, ny := cx+d.X, cy+d.Y
			if !g.InBounds(nx, ny) {
				continue
			}
			n := g.index(nx, ny)
			if !g.walkable[n] || s.state[n] == stateClosed {
				continue
			}

			step := int32(StepStraight)
			if d.X != 0 && d.Y != 0 {
				step = StepDiagonal
			}
			newG := s.g[cur] + step
			if newG < s.g[n] || s.state[n] == stateUnopened {
				s.g[n] = newG
				s.h[n] = int32(Distance(nx, ny, target.X, target.Y))
				s.parent[n] = int32(cur)
				s.state[n] = stateOpen
				p.push(n)
			}
		}
	}

	return Result{Expanded: expanded, Err: ErrNoPath}
}

func (p *Planner) push(idx int) {
	s := p.scratch
	p.seq++
	heap.Push(&p.open, openItem{
		idx: int32(idx),
		f:   s.g[idx] + s.h[idx],
		h:   s.h[idx],
		seq: p.seq,
	})
}

func (p *Planner) result(startIdx, targetIdx, expanded int) Result {
	g := p.grid
	s := p.scratch

	cells := make([]GridPos, 0, 32)
	for cur := targetIdx; cur != startIdx; cur = int(s.parent[cur]) {
		if cur == noParent {
			return Result{Expanded: expanded, Err: ErrNoPath}
		}
		x, y := g.coords(cur)
		cells = append(cells, GridPos{X: x, Y: y})
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	waypoints := make([]cp.Vector, len(cells))
	for i, c := range cells {
		waypoints[i] = g.GridToWorld(c.X, c.Y)
	}
	return Result{
		Waypoints: waypoints,
		Cells:     cells,
		Cost:      int(s.g[targetIdx]),
		Expanded:  expanded,
	}
}

type openItem struct {
	idx int32
	f   int32
	h   int32
	seq uint32
}

// openSet orders by f, then h (goal-biased), then insertion order.
type openSet []openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any) {
	*o = append(*o, x.(openItem))
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	*o = old[:n-1]
	return item
}
