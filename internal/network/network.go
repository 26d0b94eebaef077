package network

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opentransit/planner/internal/graph"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/schedule"
)

var (
	// ErrConsistency reports schedule data or bookkeeping that contradicts
	// the time-expanded model.
	ErrConsistency = errors.New("network consistency violated")
	// ErrUsage reports calls made in the wrong augmentation state.
	ErrUsage = errors.New("network misused")
)

// VertexKind tells what a vertex of the network stands for.
type VertexKind int

const (
	VertexEvent VertexKind = iota
	VertexOrigin
	VertexDestination
)

// VertexRef resolves a vertex index. Event is only meaningful for
// VertexEvent.
type VertexRef struct {
	Kind  VertexKind
	Event schedule.StopEventID
}

// Stats counts the arcs created in each build phase and by the current
// query augmentation.
type Stats struct {
	Vertices        int `json:"vertices"`
	Arcs            int `json:"arcs"`
	RideArcs        int `json:"rideArcs"`
	DwellArcs       int `json:"dwellArcs"`
	TransferArcs    int `json:"transferArcs"`
	OriginArcs      int `json:"originArcs"`
	DestinationArcs int `json:"destinationArcs"`
}

// Network is the time-expanded graph of a schedule snapshot. Each stop
// event is one vertex. A query temporarily adds an origin and a
// destination vertex with Augment and must remove them with Unaugment.
type Network struct {
	graph    *graph.Graph
	snapshot *schedule.Snapshot
	config   Config
	logger   *slog.Logger

	eventOfVertex []schedule.StopEventID
	vertexOfEvent []int

	stats        Stats
	baseVertices int
	baseArcs     int

	augmented       bool
	origin          int
	destination     int
	destinationArcs []int
}

// Build creates the network for a finalized snapshot in three phases:
// ride arcs along trips, dwell arcs between consecutive events of a
// station, transfer arcs between linked stations.
func Build(snap *schedule.Snapshot, cfg Config, logger *slog.Logger) (*Network, error) {
	if snap == nil || !snap.Finalized() {
		return nil, fmt.Errorf("%w: %w", ErrUsage, schedule.ErrNotFinalized)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	events := snap.NumStopEvents()
	n := &Network{
		graph:         graph.New(events),
		snapshot:      snap,
		config:        cfg,
		logger:        logger,
		eventOfVertex: make([]schedule.StopEventID, events),
		vertexOfEvent: make([]int, events),
		origin:        -1,
		destination:   -1,
	}
	for i := range n.vertexOfEvent {
		n.vertexOfEvent[i] = -1
	}

	if err := n.addRideArcs(); err != nil {
		return nil, err
	}
	if err := n.addDwellArcs(); err != nil {
		return nil, err
	}
	if err := n.addTransferArcs(); err != nil {
		return nil, err
	}

	n.baseVertices = n.graph.NumVertices()
	n.baseArcs = n.graph.NumArcs()
	n.stats.Vertices = n.baseVertices
	n.stats.Arcs = n.baseArcs

	logging.LogOperation(logger, "network_built",
		slog.Int("vertices", n.stats.Vertices),
		slog.Int("arcs", n.stats.Arcs),
		slog.Int("ride_arcs", n.stats.RideArcs),
		slog.Int("dwell_arcs", n.stats.DwellArcs),
		slog.Int("transfer_arcs", n.stats.TransferArcs),
		slog.Duration("duration", time.Since(started)))

	return n, nil
}

// addRideArcs numbers vertices trip by trip and links each event to the
// next event of the same trip.
func (n *Network) addRideArcs() error {
	next := 0
	for _, trip := range n.snapshot.Trips() {
		var prev schedule.StopEvent
		for i, id := range trip.Events {
			event, err := n.event(id)
			if err != nil {
				return err
			}
			v := next
			next++
			n.eventOfVertex[v] = id
			n.vertexOfEvent[id] = v

			if i > 0 {
				if event.Arrival < prev.Departure {
					return fmt.Errorf("%w: trip %s arrives at %s (%s) before leaving %s (%s)",
						ErrConsistency, trip.ID, event.StationID, event.Arrival, prev.StationID, prev.Departure)
				}
				if err := n.graph.AddArc(v-1, v, graph.Weight(event.Arrival.Sub(prev.Departure))); err != nil {
					return err
				}
				n.stats.RideArcs++
			}
			prev = event
		}
	}

	if next != len(n.eventOfVertex) {
		return fmt.Errorf("%w: %d stop events are not attached to any trip", ErrConsistency, len(n.eventOfVertex)-next)
	}
	return nil
}

// addDwellArcs lets a traveller wait at a station for the next event of a
// different trip. Events are scanned backwards so each one knows the
// nearest later event that is not on its own trip.
func (n *Network) addDwellArcs() error {
	for _, station := range n.snapshot.Stations() {
		ids := station.Events()
		next := -1
		for i := len(ids) - 2; i >= 0; i-- {
			cur, err := n.event(ids[i])
			if err != nil {
				return err
			}
			after, err := n.event(ids[i+1])
			if err != nil {
				return err
			}
			if cur.TripID != after.TripID {
				next = i + 1
			}
			if next < 0 {
				continue
			}

			target, err := n.event(ids[next])
			if err != nil {
				return err
			}
			if target.Arrival < cur.Arrival {
				return fmt.Errorf("%w: station %s events out of arrival order", ErrConsistency, station.ID)
			}
			if err := n.graph.AddArc(n.vertexOfEvent[cur.ID], n.vertexOfEvent[target.ID], graph.Weight(target.Arrival.Sub(cur.Arrival))); err != nil {
				return err
			}
			n.stats.DwellArcs++
		}
	}
	return nil
}

// addTransferArcs links every event at a transfer's source station to the
// earliest event at the target station reachable on foot.
func (n *Network) addTransferArcs() error {
	for _, transfer := range n.snapshot.Transfers() {
		from, ok := n.snapshot.Station(transfer.From)
		if !ok {
			return fmt.Errorf("%w: transfer from unknown station %s", ErrConsistency, transfer.From)
		}
		to, ok := n.snapshot.Station(transfer.To)
		if !ok {
			return fmt.Errorf("%w: transfer to unknown station %s", ErrConsistency, transfer.To)
		}

		for _, id := range from.Events() {
			event, err := n.event(id)
			if err != nil {
				return err
			}
			target, found := to.EventAtOrAfter(event.Arrival.Add(transfer.WalkSeconds))
			if !found {
				// Later events at the source arrive later still.
				break
			}
			targetEvent, err := n.event(target)
			if err != nil {
				return err
			}
			if err := n.graph.AddArc(n.vertexOfEvent[id], n.vertexOfEvent[target], graph.Weight(targetEvent.Arrival.Sub(event.Arrival))); err != nil {
				return err
			}
			n.stats.TransferArcs++
		}
	}
	return nil
}

func (n *Network) event(id schedule.StopEventID) (schedule.StopEvent, error) {
	event, ok := n.snapshot.Event(id)
	if !ok {
		return schedule.StopEvent{}, fmt.Errorf("%w: unknown stop event %d", ErrConsistency, id)
	}
	return event, nil
}

// Graph exposes the underlying graph for searching.
func (n *Network) Graph() *graph.Graph { return n.graph }

func (n *Network) Snapshot() *schedule.Snapshot { return n.snapshot }

// MaxWalkDistance is the largest walk to or from a station, in kilometres.
func (n *Network) MaxWalkDistance() float64 { return n.config.MaxWalkDistanceKM }

// WalkSpeed is the walking speed in km/h.
func (n *Network) WalkSpeed() float64 { return n.config.WalkSpeedKMH }

func (n *Network) Augmented() bool { return n.augmented }

// OriginVertex is the synthetic origin, or -1 when not augmented.
func (n *Network) OriginVertex() int { return n.origin }

// DestinationVertex is the synthetic destination, or -1 when not augmented.
func (n *Network) DestinationVertex() int { return n.destination }

// VertexOf returns the vertex of a stop event.
func (n *Network) VertexOf(id schedule.StopEventID) (int, bool) {
	if id < 0 || int(id) >= len(n.vertexOfEvent) || n.vertexOfEvent[id] < 0 {
		return -1, false
	}
	return n.vertexOfEvent[id], true
}

// Resolve tells what a vertex stands for.
func (n *Network) Resolve(v int) (VertexRef, error) {
	switch {
	case v >= 0 && v < len(n.eventOfVertex):
		return VertexRef{Kind: VertexEvent, Event: n.eventOfVertex[v]}, nil
	case n.augmented && v == n.origin:
		return VertexRef{Kind: VertexOrigin}, nil
	case n.augmented && v == n.destination:
		return VertexRef{Kind: VertexDestination}, nil
	}
	return VertexRef{}, fmt.Errorf("%w: vertex %d", graph.ErrValidation, v)
}

func (n *Network) Stats() Stats {
	stats := n.stats
	stats.Vertices = n.graph.NumVertices()
	stats.Arcs = n.graph.NumArcs()
	return stats
}
