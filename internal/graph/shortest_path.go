package graph

import (
	"container/heap"
	"fmt"
)

type queueItem struct {
	vertex   int
	distance Weight
}

// priorityQueue is a min-heap ordered by distance, ties broken by vertex id.
type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].vertex < pq[j].vertex
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) { *pq = append(*pq, x.(queueItem)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath returns the minimum distance from origin to destination and
// the vertex sequence realising it. When destination cannot be reached the
// distance is Unreachable and the path is [destination].
func (g *Graph) ShortestPath(origin, destination int) (Weight, []int, error) {
	if !g.valid(origin) || !g.valid(destination) {
		return Unreachable, nil, fmt.Errorf("%w: endpoints %d, %d outside [0, %d)", ErrValidation, origin, destination, len(g.adjacency))
	}
	if origin == destination {
		return 0, []int{origin}, nil
	}

	distance, predecessor := g.dijkstra(origin, destination)
	if distance[destination] == Unreachable {
		return Unreachable, []int{destination}, nil
	}
	return distance[destination], buildPath(predecessor, origin, destination), nil
}

// Distances returns the distance from origin to every vertex.
func (g *Graph) Distances(origin int) ([]Weight, error) {
	if !g.valid(origin) {
		return nil, fmt.Errorf("%w: vertex %d outside [0, %d)", ErrValidation, origin, len(g.adjacency))
	}
	distance, _ := g.dijkstra(origin, -1)
	return distance, nil
}

// dijkstra settles vertices in increasing distance order and stops early
// once target is settled. Stale queue entries are skipped on pop.
func (g *Graph) dijkstra(origin, target int) ([]Weight, []int) {
	n := len(g.adjacency)
	distance := make([]Weight, n)
	predecessor := make([]int, n)
	settled := make([]bool, n)
	for i := range distance {
		distance[i] = Unreachable
		predecessor[i] = -1
	}
	distance[origin] = 0

	pq := &priorityQueue{{vertex: origin, distance: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		u := item.vertex
		if settled[u] || item.distance != distance[u] {
			continue
		}
		settled[u] = true
		if u == target {
			break
		}

		for _, arc := range g.adjacency[u] {
			if settled[arc.To] {
				continue
			}
			candidate := relax(distance[u], arc.Weight)
			if candidate < distance[arc.To] {
				distance[arc.To] = candidate
				predecessor[arc.To] = u
				heap.Push(pq, queueItem{vertex: arc.To, distance: candidate})
			}
		}
	}
	return distance, predecessor
}
