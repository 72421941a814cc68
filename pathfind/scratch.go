package pathfind

import "math"

const (
	costInfinity = math.MaxInt32
	noParent     = -1
)

type cellState uint8

const (
	stateUnopened cellState = iota
	stateOpen
	stateClosed
)

// Scratch holds the per-search bookkeeping for every cell of one grid,
// indexed by cell id. It is owned by exactly one search at a time.
type Scratch struct {
	g      []int32
	h      []int32
	parent []int32
	state  []cellState
}

// NewScratch allocates search state sized for g.
func NewScratch(g *Grid) *Scratch {
	n := g.Len()
	s := &Scratch{
		g:      make([]int32, n),
		h:      make([]int32, n),
		parent: make([]int32, n),
		state:  make([]cellState, n),
	}
	s.Reset()
	return s
}

// Reset puts every cell back to (∞, ∞, no parent, unopened). It must run
// before each search so costs from a previous search never leak.
func (s *Scratch) Reset() {
	for i := range s.g {
		s.g[i] = costInfinity
		s.h[i] = costInfinity
		s.parent[i] = noParent
		s.state[i] = stateUnopened
	}
}

func (s *Scratch) Len() int { return len(s.g) }

// GCost returns the best known cost from the start to cell idx.
func (s *Scratch) GCost(idx int) int { return int(s.g[idx]) }

// HCost returns the heuristic estimate recorded for cell idx.
func (s *Scratch) HCost(idx int) int { return int(s.h[idx]) }

// FCost is GCost + HCost, saturating at infinity.
func (s *Scratch) FCost(idx int) int {
	if s.g[idx] == costInfinity || s.h[idx] == costInfinity {
		return costInfinity
	}
	return int(s.g[idx]) + int(s.h[idx])
}

// Parent returns the predecessor cell id, or -1.
func (s *Scratch) Parent(idx int) int { return int(s.parent[idx]) }

func (s *Scratch) closed(idx int) bool { return s.state[idx] == stateClosed }
