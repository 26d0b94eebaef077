package schedule

import "sort"

// StopEventID is a stable handle into a snapshot's event store.
type StopEventID int

// StopEvent is one scheduled call of a trip at a station.
type StopEvent struct {
	ID        StopEventID `json:"id"`
	TripID    string      `json:"tripId"`
	StationID string      `json:"stationId"`
	Arrival   Time        `json:"arrival"`
	Departure Time        `json:"departure"`
	Sequence  int         `json:"sequence"`
}

// Trip is one scheduled vehicle run. Events are ordered by sequence once
// the snapshot is finalized.
type Trip struct {
	ID        string        `json:"id"`
	LineID    string        `json:"lineId"`
	ServiceID string        `json:"serviceId"`
	Headsign  string        `json:"headsign"`
	Events    []StopEventID `json:"events"`
}

// Station is a boarding location. Its events are kept sorted by arrival so
// the first event at or after a given time can be found by binary search.
type Station struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Coordinates Coordinates `json:"coordinates"`

	events   []StopEventID
	arrivals []Time
}

// Events returns the station's events in arrival order. The slice must not
// be modified.
func (s *Station) Events() []StopEventID {
	return s.events
}

// EventAtOrAfter returns the earliest event whose arrival is >= t.
func (s *Station) EventAtOrAfter(t Time) (StopEventID, bool) {
	i := sort.Search(len(s.arrivals), func(i int) bool { return s.arrivals[i] >= t })
	if i == len(s.arrivals) {
		return 0, false
	}
	return s.events[i], true
}

// Category is the transport mode of a line.
type Category int

const (
	CategoryOther Category = iota
	CategoryBus
	CategoryTram
	CategorySubway
	CategoryRail
	CategoryFerry
	CategoryCable
)

var categoryNames = map[Category]string{
	CategoryOther:  "other",
	CategoryBus:    "bus",
	CategoryTram:   "tram",
	CategorySubway: "subway",
	CategoryRail:   "rail",
	CategoryFerry:  "ferry",
	CategoryCable:  "cable",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "other"
}

// CategoryFromRouteType maps a GTFS route_type, basic or extended, to a
// Category.
func CategoryFromRouteType(routeType int) Category {
	switch {
	case routeType == 0:
		return CategoryTram
	case routeType == 1:
		return CategorySubway
	case routeType == 2:
		return CategoryRail
	case routeType == 3 || routeType == 11:
		return CategoryBus
	case routeType == 4:
		return CategoryFerry
	case routeType == 5 || routeType == 6 || routeType == 7:
		return CategoryCable
	case routeType == 12:
		return CategoryRail
	case routeType >= 100 && routeType < 200:
		return CategoryRail
	case routeType >= 200 && routeType < 300:
		return CategoryBus
	case routeType >= 400 && routeType < 500:
		return CategorySubway
	case routeType >= 700 && routeType < 900:
		return CategoryBus
	case routeType >= 900 && routeType < 1000:
		return CategoryTram
	case routeType >= 1000 && routeType < 1300:
		return CategoryFerry
	case routeType >= 1300 && routeType < 1500:
		return CategoryCable
	}
	return CategoryOther
}

// Line is a named public transport line (a GTFS route).
type Line struct {
	ID          string   `json:"id"`
	Number      string   `json:"number"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// Transfer is a walkable link between two distinct stations.
type Transfer struct {
	From        string `json:"from"`
	To          string `json:"to"`
	WalkSeconds int    `json:"walkSeconds"`
}
