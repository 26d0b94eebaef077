package planner

import (
	"errors"
	"fmt"

	"github.com/opentransit/planner/internal/graph"
	"github.com/opentransit/planner/internal/network"
	"github.com/opentransit/planner/internal/schedule"
)

// ErrItineraryDecode reports a shortest path that does not describe a
// walk and ride sequence from the query origin to its destination.
var ErrItineraryDecode = errors.New("itinerary decode failed")

type StepKind int

const (
	StepWalk StepKind = iota
	StepRide
)

func (k StepKind) String() string {
	if k == StepRide {
		return "ride"
	}
	return "walk"
}

// Step is one leg of an itinerary. A nil From is the query origin and a
// nil To is the query destination. Trip fields are only set on rides.
type Step struct {
	Kind      StepKind
	From      *schedule.Station
	To        *schedule.Station
	Departure schedule.Time
	Arrival   schedule.Time
	TripID    string
	Headsign  string
	Line      *schedule.Line
}

// Duration is a travel time split into hours, minutes and seconds.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func NewDuration(totalSeconds int) Duration {
	return Duration{
		Hours:   totalSeconds / 3600,
		Minutes: (totalSeconds % 3600) / 60,
		Seconds: totalSeconds % 60,
	}
}

func (d Duration) TotalSeconds() int {
	return d.Hours*3600 + d.Minutes*60 + d.Seconds
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh %02dm %02ds", d.Hours, d.Minutes, d.Seconds)
}

// Itinerary is a decoded shortest path. Arrival is the window start plus
// the path distance.
type Itinerary struct {
	Steps     []Step
	Departure schedule.Time
	Arrival   schedule.Time
	Duration  Duration
}

// Decode turns a shortest path of an augmented network into steps. The
// path must start at the origin vertex, end at the destination vertex and
// visit only stop events in between. Consecutive events at one station
// collapse into a wait, events of one trip into a ride, and a change of
// station between different trips into a walk.
func Decode(n *network.Network, path []int, distance graph.Weight) (*Itinerary, error) {
	if len(path) < 3 {
		return nil, fmt.Errorf("%w: path of %d vertices cannot hold a trip", ErrItineraryDecode, len(path))
	}
	last := len(path) - 1
	if ref, err := n.Resolve(path[0]); err != nil || ref.Kind != network.VertexOrigin {
		return nil, fmt.Errorf("%w: path does not start at the query origin", ErrItineraryDecode)
	}
	if ref, err := n.Resolve(path[last]); err != nil || ref.Kind != network.VertexDestination {
		return nil, fmt.Errorf("%w: path ends before reaching the destination", ErrItineraryDecode)
	}

	snap := n.Snapshot()
	events := make([]schedule.StopEvent, len(path))
	for i := 1; i < last; i++ {
		ref, err := n.Resolve(path[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrItineraryDecode, err)
		}
		if ref.Kind != network.VertexEvent {
			return nil, fmt.Errorf("%w: query endpoint at position %d of %d", ErrItineraryDecode, i, len(path))
		}
		event, ok := snap.Event(ref.Event)
		if !ok {
			return nil, fmt.Errorf("%w: unknown stop event %d", ErrItineraryDecode, ref.Event)
		}
		events[i] = event
	}

	d := &decoder{snapshot: snap}
	windowStart := snap.WindowStart()
	itinerary := &Itinerary{
		Departure: windowStart,
		Arrival:   windowStart.Add(int(distance)),
		Duration:  NewDuration(int(distance)),
	}

	itinerary.Steps = append(itinerary.Steps, Step{
		Kind:      StepWalk,
		To:        d.station(events[1].StationID),
		Departure: windowStart,
		Arrival:   events[1].Arrival,
	})

	i := 1
	for i < last {
		for i+1 < last && events[i+1].StationID == events[i].StationID {
			i++
		}
		if i+1 == last {
			break
		}

		cur, next := events[i], events[i+1]
		if cur.TripID != next.TripID {
			itinerary.Steps = append(itinerary.Steps, Step{
				Kind:      StepWalk,
				From:      d.station(cur.StationID),
				To:        d.station(next.StationID),
				Departure: cur.Arrival,
				Arrival:   next.Arrival,
			})
			i++
			continue
		}

		board := cur
		for i+1 < last && events[i+1].TripID == board.TripID {
			i++
		}
		alight := events[i]
		step := Step{
			Kind:      StepRide,
			From:      d.station(board.StationID),
			To:        d.station(alight.StationID),
			Departure: board.Departure,
			Arrival:   alight.Arrival,
			TripID:    board.TripID,
		}
		if trip, ok := snap.Trip(board.TripID); ok {
			step.Headsign = trip.Headsign
			if line, ok := snap.Line(trip.LineID); ok {
				step.Line = line
			}
		}
		itinerary.Steps = append(itinerary.Steps, step)
	}

	itinerary.Steps = append(itinerary.Steps, Step{
		Kind:      StepWalk,
		From:      d.station(events[last-1].StationID),
		Departure: events[last-1].Arrival,
		Arrival:   itinerary.Arrival,
	})

	if d.err != nil {
		return nil, d.err
	}
	return itinerary, nil
}

// decoder keeps the first station lookup failure so the walk above stays
// linear.
type decoder struct {
	snapshot *schedule.Snapshot
	err      error
}

func (d *decoder) station(id string) *schedule.Station {
	station, ok := d.snapshot.Station(id)
	if !ok && d.err == nil {
		d.err = fmt.Errorf("%w: unknown station %q", ErrItineraryDecode, id)
	}
	return station
}
