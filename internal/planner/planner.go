package planner

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opentransit/planner/internal/graph"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/network"
	"github.com/opentransit/planner/internal/schedule"
)

type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeUnreachable
	OutcomeAlreadyAtDestination
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeAlreadyAtDestination:
		return "already_at_destination"
	default:
		return "found"
	}
}

// Result is the answer to one query. Itinerary is only set for
// OutcomeFound. SearchTime is diagnostic.
type Result struct {
	QueryID         string
	Outcome         Outcome
	Distance        graph.Weight
	Itinerary       *Itinerary
	SearchTime      time.Duration
	OriginArcs      int
	DestinationArcs int
}

// Planner answers itinerary queries against one network, one query at a
// time.
type Planner struct {
	network *network.Network
	logger  *slog.Logger
	acyclic bool
}

type Option func(*Planner)

// WithAcyclicSearch relaxes arcs in topological order instead of running
// Dijkstra. The time-expanded network has no cycles when every trip moves
// forward in time.
func WithAcyclicSearch() Option {
	return func(p *Planner) {
		p.acyclic = true
	}
}

func New(n *network.Network, logger *slog.Logger, opts ...Option) *Planner {
	p := &Planner{
		network: n,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan finds the fastest itinerary between two points for the network's
// time window. The network is always restored to its built state before
// Plan returns.
func (p *Planner) Plan(origin, destination schedule.Coordinates) (result *Result, err error) {
	queryID := uuid.NewString()

	if err := p.network.Augment(origin, destination); err != nil {
		logging.LogError(p.logger, "failed to augment network", err, slog.String("query_id", queryID))
		return nil, err
	}
	defer logging.HandleDeferredError(&err, p.network.Unaugment, p.logger, "unaugment network")

	stats := p.network.Stats()
	result = &Result{
		QueryID:         queryID,
		OriginArcs:      stats.OriginArcs,
		DestinationArcs: stats.DestinationArcs,
	}

	started := time.Now()
	distance, path, err := p.search(p.network.OriginVertex(), p.network.DestinationVertex())
	result.SearchTime = time.Since(started)
	if err != nil {
		logging.LogError(p.logger, "shortest path search failed", err, slog.String("query_id", queryID))
		return nil, err
	}
	result.Distance = distance

	switch distance {
	case graph.Unreachable:
		result.Outcome = OutcomeUnreachable
	case 0:
		result.Outcome = OutcomeAlreadyAtDestination
	default:
		itinerary, err := Decode(p.network, path, distance)
		if err != nil {
			logging.LogError(p.logger, "failed to decode itinerary", err, slog.String("query_id", queryID))
			return nil, err
		}
		result.Outcome = OutcomeFound
		result.Itinerary = itinerary
	}

	logging.LogOperation(p.logger, "itinerary_planned",
		slog.String("query_id", queryID),
		slog.String("outcome", result.Outcome.String()),
		slog.Int("origin_arcs", result.OriginArcs),
		slog.Int("destination_arcs", result.DestinationArcs),
		slog.Int64("distance", int64(distance)),
		slog.Duration("duration", result.SearchTime))

	return result, nil
}

func (p *Planner) search(origin, destination int) (graph.Weight, []int, error) {
	if p.acyclic {
		return p.network.Graph().ShortestPathAcyclic(origin, destination)
	}
	return p.network.Graph().ShortestPath(origin, destination)
}
