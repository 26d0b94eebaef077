package graph

import "fmt"

// ShortestPathAcyclic has the same contract as ShortestPath but relaxes
// arcs once in topological order. It only applies to acyclic graphs, such
// as a time-expanded network where every arc goes forward in time, and
// returns ErrCycle otherwise.
func (g *Graph) ShortestPathAcyclic(origin, destination int) (Weight, []int, error) {
	if !g.valid(origin) || !g.valid(destination) {
		return Unreachable, nil, fmt.Errorf("%w: endpoints %d, %d outside [0, %d)", ErrValidation, origin, destination, len(g.adjacency))
	}
	if origin == destination {
		return 0, []int{origin}, nil
	}

	distance, predecessor, err := g.relaxTopological(origin)
	if err != nil {
		return Unreachable, nil, err
	}
	if distance[destination] == Unreachable {
		return Unreachable, []int{destination}, nil
	}
	return distance[destination], buildPath(predecessor, origin, destination), nil
}

// DistancesAcyclic is the topological counterpart of Distances.
func (g *Graph) DistancesAcyclic(origin int) ([]Weight, error) {
	if !g.valid(origin) {
		return nil, fmt.Errorf("%w: vertex %d outside [0, %d)", ErrValidation, origin, len(g.adjacency))
	}
	distance, _, err := g.relaxTopological(origin)
	return distance, err
}

func (g *Graph) relaxTopological(origin int) ([]Weight, []int, error) {
	order, err := g.topologicalOrder(origin)
	if err != nil {
		return nil, nil, err
	}

	n := len(g.adjacency)
	distance := make([]Weight, n)
	predecessor := make([]int, n)
	for i := range distance {
		distance[i] = Unreachable
		predecessor[i] = -1
	}
	distance[origin] = 0

	for _, u := range order {
		if distance[u] == Unreachable {
			continue
		}
		for _, arc := range g.adjacency[u] {
			candidate := relax(distance[u], arc.Weight)
			if candidate < distance[arc.To] {
				distance[arc.To] = candidate
				predecessor[arc.To] = u
			}
		}
	}
	return distance, predecessor, nil
}

const (
	unvisited = iota
	onStack
	done
)

type frame struct {
	vertex int
	next   int
}

// topologicalOrder returns the vertices reachable from origin in
// topological order. The depth-first search uses an explicit stack so
// long chains cannot overflow the goroutine stack.
func (g *Graph) topologicalOrder(origin int) ([]int, error) {
	state := make([]uint8, len(g.adjacency))
	var postorder []int

	stack := []frame{{vertex: origin}}
	state[origin] = onStack
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		arcs := g.adjacency[top.vertex]
		if top.next < len(arcs) {
			v := arcs[top.next].To
			top.next++
			switch state[v] {
			case unvisited:
				state[v] = onStack
				stack = append(stack, frame{vertex: v})
			case onStack:
				return nil, fmt.Errorf("%w: back arc %d -> %d", ErrCycle, top.vertex, v)
			}
			continue
		}
		state[top.vertex] = done
		postorder = append(postorder, top.vertex)
		stack = stack[:len(stack)-1]
	}

	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder, nil
}
