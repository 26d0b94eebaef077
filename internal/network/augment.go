package network

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/opentransit/planner/internal/graph"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/schedule"
)

// Augment adds the query's origin and destination vertices. The origin
// gets an arc to the first reachable event of every station within
// walking distance, weighted by the time from the window start to that
// event's arrival. That weight is the walk plus the wait at the station,
// so every distance from the origin is elapsed time since the window
// start. Every event of a station within walking distance of
// the destination gets an arc weighted by the walk.
func (n *Network) Augment(origin, destination schedule.Coordinates) error {
	if n.augmented {
		return fmt.Errorf("%w: network is already augmented", ErrUsage)
	}
	if err := origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	base := n.graph.NumVertices()
	n.graph.Resize(base + 2)
	n.origin = base
	n.destination = base + 1
	n.stats.OriginArcs = 0
	n.stats.DestinationArcs = 0
	n.destinationArcs = n.destinationArcs[:0]

	if err := n.addOriginArcs(origin); err != nil {
		n.discardAugmentation(base)
		return err
	}
	if err := n.addDestinationArcs(destination); err != nil {
		n.discardAugmentation(base)
		return err
	}
	n.augmented = true

	logging.LogOperation(n.logger, "network_augmented",
		slog.Int("origin_arcs", n.stats.OriginArcs),
		slog.Int("destination_arcs", n.stats.DestinationArcs))
	return nil
}

func (n *Network) addOriginArcs(origin schedule.Coordinates) error {
	windowStart := n.snapshot.WindowStart()
	for _, station := range n.snapshot.Stations() {
		distance := origin.DistanceKM(station.Coordinates)
		if distance > n.config.MaxWalkDistanceKM {
			continue
		}
		walk := int(math.Round(distance / n.config.WalkSpeedKMH * 3600))
		id, ok := station.EventAtOrAfter(windowStart.Add(walk))
		if !ok {
			continue
		}
		event, err := n.event(id)
		if err != nil {
			return err
		}
		if err := n.graph.AddArc(n.origin, n.vertexOfEvent[id], graph.Weight(event.Arrival.Sub(windowStart))); err != nil {
			return err
		}
		n.stats.OriginArcs++
	}
	return nil
}

func (n *Network) addDestinationArcs(destination schedule.Coordinates) error {
	for _, station := range n.snapshot.Stations() {
		distance := destination.DistanceKM(station.Coordinates)
		if distance > n.config.MaxWalkDistanceKM {
			continue
		}
		walk := graph.Weight(distance / n.config.WalkSpeedKMH * 3600)
		for _, id := range station.Events() {
			v := n.vertexOfEvent[id]
			if err := n.graph.AddArc(v, n.destination, walk); err != nil {
				return err
			}
			n.destinationArcs = append(n.destinationArcs, v)
			n.stats.DestinationArcs++
		}
	}
	return nil
}

// discardAugmentation undoes a partially applied Augment.
func (n *Network) discardAugmentation(base int) {
	for i := len(n.destinationArcs) - 1; i >= 0; i-- {
		_ = n.graph.RemoveArc(n.destinationArcs[i], n.destination)
	}
	n.graph.Resize(base)
	n.destinationArcs = n.destinationArcs[:0]
	n.origin = -1
	n.destination = -1
	n.stats.OriginArcs = 0
	n.stats.DestinationArcs = 0
}

// Unaugment removes the vertices and arcs added by Augment, restoring the
// exact vertex and arc counts of the built network.
func (n *Network) Unaugment() error {
	if !n.augmented {
		return fmt.Errorf("%w: network is not augmented", ErrUsage)
	}

	count := n.graph.NumVertices()
	if count != n.baseVertices+2 || n.origin != count-2 || n.destination != count-1 {
		return fmt.Errorf("%w: last vertices are not the query origin and destination", ErrConsistency)
	}

	for i := len(n.destinationArcs) - 1; i >= 0; i-- {
		if err := n.graph.RemoveArc(n.destinationArcs[i], n.destination); err != nil {
			return fmt.Errorf("%w: removing destination arc: %w", ErrConsistency, err)
		}
	}
	n.graph.Resize(count - 2)

	if n.graph.NumArcs() != n.baseArcs {
		return fmt.Errorf("%w: %d arcs left after unaugment, want %d", ErrConsistency, n.graph.NumArcs(), n.baseArcs)
	}

	n.destinationArcs = n.destinationArcs[:0]
	n.origin = -1
	n.destination = -1
	n.stats.OriginArcs = 0
	n.stats.DestinationArcs = 0
	n.augmented = false
	return nil
}
