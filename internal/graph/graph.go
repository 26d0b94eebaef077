package graph

import (
	"errors"
	"fmt"
	"math"
)

// Weight is a non-negative arc cost in seconds.
type Weight uint32

// Unreachable is the sentinel distance for vertices no path reaches.
// It is never a legal arc weight.
const Unreachable Weight = math.MaxUint32

var (
	ErrValidation  = errors.New("graph validation failed")
	ErrArcNotFound = errors.New("arc not found")
	ErrCycle       = errors.New("graph contains a cycle")
)

// Arc is an outgoing edge stored in its source vertex's adjacency list.
type Arc struct {
	To     int
	Weight Weight
}

// Graph is a weighted directed graph over vertices 0..n-1 stored as
// adjacency lists. Parallel arcs are allowed.
type Graph struct {
	adjacency [][]Arc
	arcs      int
}

// New creates a graph with n vertices and no arcs.
func New(n int) *Graph {
	if n < 0 {
		n = 0
	}
	return &Graph{adjacency: make([][]Arc, n)}
}

// NumVertices returns the current vertex count.
func (g *Graph) NumVertices() int {
	return len(g.adjacency)
}

// NumArcs returns the current arc count.
func (g *Graph) NumArcs() int {
	return g.arcs
}

// Arcs returns the outgoing arcs of u. The slice must not be modified.
func (g *Graph) Arcs(u int) []Arc {
	if !g.valid(u) {
		return nil
	}
	return g.adjacency[u]
}

// Resize grows the graph with empty adjacency lists or drops trailing
// vertices. Arcs owned by dropped vertices are removed from the arc count.
// Callers must ensure no surviving vertex points at a dropped vertex.
func (g *Graph) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(g.adjacency) {
		for _, list := range g.adjacency[n:] {
			g.arcs -= len(list)
		}
		clear(g.adjacency[n:])
		g.adjacency = g.adjacency[:n]
		return
	}
	for len(g.adjacency) < n {
		g.adjacency = append(g.adjacency, nil)
	}
}

// AddArc appends the arc u -> v with weight w.
func (g *Graph) AddArc(u, v int, w Weight) error {
	if !g.valid(u) || !g.valid(v) {
		return fmt.Errorf("%w: arc %d -> %d outside [0, %d)", ErrValidation, u, v, len(g.adjacency))
	}
	if w == Unreachable {
		return fmt.Errorf("%w: arc %d -> %d uses the unreachable sentinel as weight", ErrValidation, u, v)
	}
	g.adjacency[u] = append(g.adjacency[u], Arc{To: v, Weight: w})
	g.arcs++
	return nil
}

// RemoveArc removes one arc u -> v. The list is searched from the back so
// the most recently added parallel arc goes first.
func (g *Graph) RemoveArc(u, v int) error {
	if !g.valid(u) || !g.valid(v) {
		return fmt.Errorf("%w: arc %d -> %d outside [0, %d)", ErrValidation, u, v, len(g.adjacency))
	}
	list := g.adjacency[u]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].To == v {
			g.adjacency[u] = append(list[:i], list[i+1:]...)
			g.arcs--
			return nil
		}
	}
	return fmt.Errorf("%w: %d -> %d", ErrArcNotFound, u, v)
}

// Weight returns the weight of the first arc u -> v.
func (g *Graph) Weight(u, v int) (Weight, error) {
	if !g.valid(u) || !g.valid(v) {
		return 0, fmt.Errorf("%w: arc %d -> %d outside [0, %d)", ErrValidation, u, v, len(g.adjacency))
	}
	for _, arc := range g.adjacency[u] {
		if arc.To == v {
			return arc.Weight, nil
		}
	}
	return 0, fmt.Errorf("%w: %d -> %d", ErrArcNotFound, u, v)
}

func (g *Graph) valid(v int) bool {
	return v >= 0 && v < len(g.adjacency)
}

// relax returns d + w, or Unreachable when the sum would not fit.
func relax(d, w Weight) Weight {
	sum := uint64(d) + uint64(w)
	if sum >= uint64(Unreachable) {
		return Unreachable
	}
	return Weight(sum)
}

// buildPath walks the predecessor chain back from destination.
func buildPath(predecessor []int, origin, destination int) []int {
	var reversed []int
	for v := destination; v != origin; v = predecessor[v] {
		reversed = append(reversed, v)
	}
	reversed = append(reversed, origin)

	path := make([]int, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path
}
