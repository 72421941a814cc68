package pathfind

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

var ErrInvalidGrid = errors.New("pathfind: invalid grid")

// ObstacleQuery reports whether any static obstacle overlaps the circle at
// center with the given radius.
type ObstacleQuery interface {
	Occupied(center cp.Vector, radius float64) bool
}

// ObstacleQueryFunc adapts a plain function to ObstacleQuery.
type ObstacleQueryFunc func(center cp.Vector, radius float64) bool

func (f ObstacleQueryFunc) Occupied(center cp.Vector, radius float64) bool {
	return f(center, radius)
}

// Cell is a read-only view of one grid cell.
type Cell struct {
	X        int
	Y        int
	Walkable bool
}

// Grid discretizes the world into square cells. Walkability is sampled once
// at construction and never changes afterwards, so a Grid can be shared by
// any number of concurrent searches as long as each owns its own Scratch.
type Grid struct {
	sizeX    int
	sizeY    int
	cellSize float64
	walkable []bool
}

// maxGridCells keeps cell ids and path costs inside the int32 scratch arrays.
const maxGridCells = 1 << 24

// NewGrid samples q once per cell center with a probe radius of half a cell.
// The extra row and column pad the far edge so a point exactly on the world
// boundary still maps to a cell.
func NewGrid(worldWidth, worldLength, cellSize float64, q ObstacleQuery) (g *Grid, err error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil obstacle query", ErrInvalidGrid)
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidGrid, cellSize)
	}
	if !(worldWidth >= 0) || !(worldLength >= 0) || math.IsInf(worldWidth, 0) || math.IsInf(worldLength, 0) {
		return nil, fmt.Errorf("%w: world %vx%v", ErrInvalidGrid, worldWidth, worldLength)
	}

	fx := math.Floor(worldWidth/cellSize) + 1
	fy := math.Floor(worldLength/cellSize) + 1
	if fx*fy > maxGridCells {
		return nil, fmt.Errorf("%w: %.0fx%.0f cells exceeds %d", ErrInvalidGrid, fx, fy, maxGridCells)
	}
	sizeX, sizeY := int(fx), int(fy)

	g = &Grid{
		sizeX:    sizeX,
		sizeY:    sizeY,
		cellSize: cellSize,
		walkable: make([]bool, sizeX*sizeY),
	}

	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("%w: obstacle query: %v", ErrInvalidGrid, r)
		}
	}()

	radius := cellSize / 2
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			g.walkable[y*sizeX+x] = !q.Occupied(g.GridToWorld(x, y), radius)
		}
	}
	return g, nil
}

func (g *Grid) SizeX() int { return g.sizeX }

func (g *Grid) SizeY() int { return g.sizeY }

func (g *Grid) CellSize() float64 { return g.cellSize }

// Len is the total number of cells.
func (g *Grid) Len() int { return len(g.walkable) }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.sizeX && y < g.sizeY
}

// Node returns the cell at (x, y), or false when it lies outside the grid.
func (g *Grid) Node(x, y int) (Cell, bool) {
	if !g.InBounds(x, y) {
		return Cell{}, false
	}
	return Cell{X: x, Y: y, Walkable: g.walkable[y*g.sizeX+x]}, true
}

// Walkable is false for blocked and out-of-bounds cells.
func (g *Grid) Walkable(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.walkable[y*g.sizeX+x]
}

func (g *Grid) index(x, y int) int {
	return y*g.sizeX + x
}

func (g *Grid) coords(idx int) (int, int) {
	return idx % g.sizeX, idx / g.sizeX
}

// WorldToGrid maps a world position to the cell containing it. The result
// may be out of bounds.
func (g *Grid) WorldToGrid(p cp.Vector) (int, int) {
	return int(math.Floor(p.X / g.cellSize)), int(math.Floor(p.Y / g.cellSize))
}

// GridToWorld returns the world-space center of cell (x, y).
func (g *Grid) GridToWorld(x, y int) cp.Vector {
	half := g.cellSize / 2
	return cp.Vector{
		X: float64(x)*g.cellSize + half,
		Y: float64(y)*g.cellSize + half,
	}
}

// WalkableCount is mostly useful for diagnostics.
func (g *Grid) WalkableCount() int {
	n := 0
	for _, w := range g.walkable {
		if w {
			n++
		}
	}
	return n
}
