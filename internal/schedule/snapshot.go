package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrInvalid      = errors.New("invalid schedule data")
	ErrSealed       = errors.New("snapshot is finalized")
	ErrNotFinalized = errors.New("snapshot is not finalized")
)

// Snapshot is the filtered schedule for one service date and time window.
// It is filled through the Add methods and becomes read-only once
// Finalize succeeds.
type Snapshot struct {
	date        time.Time
	windowStart Time
	windowEnd   Time

	events    []StopEvent
	lines     map[string]*Line
	stations  map[string]*Station
	trips     map[string]*Trip
	transfers []Transfer

	sortedStations []*Station
	sortedTrips    []*Trip
	sortedLines    []*Line
	sealed         bool
}

// Stats summarises the size of a snapshot.
type Stats struct {
	Lines      int `json:"lines"`
	Stations   int `json:"stations"`
	Trips      int `json:"trips"`
	StopEvents int `json:"stopEvents"`
	Transfers  int `json:"transfers"`
}

// NewSnapshot starts an empty snapshot for the window [start, end) of date.
func NewSnapshot(date time.Time, start, end Time) (*Snapshot, error) {
	if end <= start {
		return nil, fmt.Errorf("%w: window end %s is not after start %s", ErrInvalid, end, start)
	}
	return &Snapshot{
		date:        date,
		windowStart: start,
		windowEnd:   end,
		lines:       make(map[string]*Line),
		stations:    make(map[string]*Station),
		trips:       make(map[string]*Trip),
	}, nil
}

func (s *Snapshot) Date() time.Time   { return s.date }
func (s *Snapshot) WindowStart() Time { return s.windowStart }
func (s *Snapshot) WindowEnd() Time   { return s.windowEnd }
func (s *Snapshot) Finalized() bool   { return s.sealed }

// AddLine registers a line. Re-adding an id replaces it.
func (s *Snapshot) AddLine(line Line) error {
	if s.sealed {
		return ErrSealed
	}
	if line.ID == "" {
		return fmt.Errorf("%w: line without id", ErrInvalid)
	}
	s.lines[line.ID] = &line
	return nil
}

// AddStation registers a station. Re-adding an id replaces its metadata
// and keeps the events already attached.
func (s *Snapshot) AddStation(station Station) error {
	if s.sealed {
		return ErrSealed
	}
	if station.ID == "" {
		return fmt.Errorf("%w: station without id", ErrInvalid)
	}
	if err := station.Coordinates.Validate(); err != nil {
		return fmt.Errorf("station %s: %w", station.ID, err)
	}
	if existing, ok := s.stations[station.ID]; ok {
		station.events = existing.events
	} else {
		station.events = nil
	}
	station.arrivals = nil
	s.stations[station.ID] = &station
	return nil
}

// AddTrip registers a trip of a known line. Events are attached with
// AddStopEvent.
func (s *Snapshot) AddTrip(trip Trip) error {
	if s.sealed {
		return ErrSealed
	}
	if trip.ID == "" {
		return fmt.Errorf("%w: trip without id", ErrInvalid)
	}
	if _, ok := s.lines[trip.LineID]; !ok {
		return fmt.Errorf("%w: trip %s references unknown line %q", ErrInvalid, trip.ID, trip.LineID)
	}
	if _, ok := s.trips[trip.ID]; ok {
		return fmt.Errorf("%w: duplicate trip %s", ErrInvalid, trip.ID)
	}
	trip.Events = nil
	s.trips[trip.ID] = &trip
	return nil
}

// AddStopEvent appends an event to the central store and links it to its
// trip and station.
func (s *Snapshot) AddStopEvent(tripID, stationID string, arrival, departure Time, sequence int) (StopEventID, error) {
	if s.sealed {
		return 0, ErrSealed
	}
	trip, ok := s.trips[tripID]
	if !ok {
		return 0, fmt.Errorf("%w: stop event for unknown trip %q", ErrInvalid, tripID)
	}
	station, ok := s.stations[stationID]
	if !ok {
		return 0, fmt.Errorf("%w: stop event for unknown station %q", ErrInvalid, stationID)
	}
	if departure < arrival {
		return 0, fmt.Errorf("%w: trip %s departs %s before arriving %s at %s", ErrInvalid, tripID, departure, arrival, stationID)
	}

	id := StopEventID(len(s.events))
	s.events = append(s.events, StopEvent{
		ID:        id,
		TripID:    tripID,
		StationID: stationID,
		Arrival:   arrival,
		Departure: departure,
		Sequence:  sequence,
	})
	trip.Events = append(trip.Events, id)
	station.events = append(station.events, id)
	return id, nil
}

// AddTransfer records a walking link. Transfers touching stations that are
// absent after Finalize are discarded.
func (s *Snapshot) AddTransfer(transfer Transfer) error {
	if s.sealed {
		return ErrSealed
	}
	if transfer.From == transfer.To {
		return fmt.Errorf("%w: transfer from %s to itself", ErrInvalid, transfer.From)
	}
	if transfer.WalkSeconds < 1 {
		return fmt.Errorf("%w: transfer %s -> %s walks %ds", ErrInvalid, transfer.From, transfer.To, transfer.WalkSeconds)
	}
	s.transfers = append(s.transfers, transfer)
	return nil
}

// Finalize orders trip and station events, drops trips and stations left
// without events and transfers touching dropped stations, then seals the
// snapshot. Repeated transfers between the same pair of stations collapse
// into one carrying the shortest walk.
func (s *Snapshot) Finalize() error {
	if s.sealed {
		return ErrSealed
	}

	for id, trip := range s.trips {
		if len(trip.Events) == 0 {
			delete(s.trips, id)
			continue
		}
		sort.SliceStable(trip.Events, func(i, j int) bool {
			return s.events[trip.Events[i]].Sequence < s.events[trip.Events[j]].Sequence
		})
	}

	for id, station := range s.stations {
		if len(station.events) == 0 {
			delete(s.stations, id)
			continue
		}
		sort.SliceStable(station.events, func(i, j int) bool {
			a, b := s.events[station.events[i]], s.events[station.events[j]]
			if a.Arrival != b.Arrival {
				return a.Arrival < b.Arrival
			}
			return a.ID < b.ID
		})
		station.arrivals = make([]Time, len(station.events))
		for i, e := range station.events {
			station.arrivals[i] = s.events[e].Arrival
		}
	}

	kept := s.transfers[:0]
	seen := make(map[[2]string]int, len(s.transfers))
	for _, t := range s.transfers {
		_, fromOK := s.stations[t.From]
		_, toOK := s.stations[t.To]
		if !fromOK || !toOK {
			continue
		}
		pair := [2]string{t.From, t.To}
		if i, ok := seen[pair]; ok {
			if t.WalkSeconds < kept[i].WalkSeconds {
				kept[i].WalkSeconds = t.WalkSeconds
			}
			continue
		}
		seen[pair] = len(kept)
		kept = append(kept, t)
	}
	s.transfers = kept

	s.sortedStations = sortedValues(s.stations, func(st *Station) string { return st.ID })
	s.sortedTrips = sortedValues(s.trips, func(t *Trip) string { return t.ID })
	s.sortedLines = sortedValues(s.lines, func(l *Line) string { return l.ID })
	s.sealed = true
	return nil
}

func sortedValues[T any](m map[string]*T, key func(*T) string) []*T {
	values := make([]*T, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return key(values[i]) < key(values[j]) })
	return values
}

// Event returns the stop event with the given handle.
func (s *Snapshot) Event(id StopEventID) (StopEvent, bool) {
	if id < 0 || int(id) >= len(s.events) {
		return StopEvent{}, false
	}
	return s.events[id], true
}

// NumStopEvents is the size of the event store.
func (s *Snapshot) NumStopEvents() int {
	return len(s.events)
}

func (s *Snapshot) Trip(id string) (*Trip, bool) {
	t, ok := s.trips[id]
	return t, ok
}

func (s *Snapshot) Station(id string) (*Station, bool) {
	st, ok := s.stations[id]
	return st, ok
}

func (s *Snapshot) Line(id string) (*Line, bool) {
	l, ok := s.lines[id]
	return l, ok
}

// Stations returns the stations sorted by id. Only valid after Finalize.
func (s *Snapshot) Stations() []*Station { return s.sortedStations }

// Trips returns the trips sorted by id. Only valid after Finalize.
func (s *Snapshot) Trips() []*Trip { return s.sortedTrips }

// Lines returns the lines sorted by id. Only valid after Finalize.
func (s *Snapshot) Lines() []*Line { return s.sortedLines }

func (s *Snapshot) Transfers() []Transfer { return s.transfers }

func (s *Snapshot) Stats() Stats {
	return Stats{
		Lines:      len(s.lines),
		Stations:   len(s.stations),
		Trips:      len(s.trips),
		StopEvents: len(s.events),
		Transfers:  len(s.transfers),
	}
}

// Restrict returns a finalized copy of s limited to the window [start,
// end), which must lie within the window of s. Events are kept under the
// same rule as feed import: departure >= start and arrival < end.
func (s *Snapshot) Restrict(start, end Time) (*Snapshot, error) {
	if !s.sealed {
		return nil, ErrNotFinalized
	}
	if start < s.windowStart || end > s.windowEnd {
		return nil, fmt.Errorf("%w: window %s-%s is not within %s-%s",
			ErrInvalid, start, end, s.windowStart, s.windowEnd)
	}
	out, err := NewSnapshot(s.date, start, end)
	if err != nil {
		return nil, err
	}

	for _, line := range s.sortedLines {
		if err := out.AddLine(*line); err != nil {
			return nil, err
		}
	}
	for _, st := range s.sortedStations {
		if err := out.AddStation(Station{
			ID:          st.ID,
			Name:        st.Name,
			Description: st.Description,
			Coordinates: st.Coordinates,
		}); err != nil {
			return nil, err
		}
	}
	for _, trip := range s.sortedTrips {
		if err := out.AddTrip(Trip{
			ID:        trip.ID,
			LineID:    trip.LineID,
			ServiceID: trip.ServiceID,
			Headsign:  trip.Headsign,
		}); err != nil {
			return nil, err
		}
		for _, id := range trip.Events {
			e := s.events[id]
			if e.Departure < start || e.Arrival >= end {
				continue
			}
			if _, err := out.AddStopEvent(e.TripID, e.StationID, e.Arrival, e.Departure, e.Sequence); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range s.transfers {
		if err := out.AddTransfer(t); err != nil {
			return nil, err
		}
	}

	if err := out.Finalize(); err != nil {
		return nil, err
	}
	return out, nil
}
