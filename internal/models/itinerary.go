package models

import (
	"github.com/twpayne/go-polyline"

	"github.com/opentransit/planner/internal/planner"
	"github.com/opentransit/planner/internal/schedule"
)

// Place is either a station or one of the query points. Query points have
// no station id.
type Place struct {
	StationID string  `json:"stationId,omitempty"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

func NewStationPlace(station *schedule.Station) Place {
	return Place{
		StationID: station.ID,
		Name:      station.Name,
		Lat:       station.Coordinates.Latitude,
		Lon:       station.Coordinates.Longitude,
	}
}

func NewQueryPlace(name string, c schedule.Coordinates) Place {
	return Place{
		Name: name,
		Lat:  c.Latitude,
		Lon:  c.Longitude,
	}
}

type LineModel struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type StepModel struct {
	Kind      string     `json:"kind"`
	From      Place      `json:"from"`
	To        Place      `json:"to"`
	Departure string     `json:"departure"`
	Arrival   string     `json:"arrival"`
	TripID    string     `json:"tripId,omitempty"`
	Headsign  string     `json:"headsign,omitempty"`
	Line      *LineModel `json:"line,omitempty"`
}

// ItineraryEntry is the JSON view of one planning result. Steps and
// Polyline are empty unless an itinerary was found.
type ItineraryEntry struct {
	QueryID         string           `json:"queryId"`
	Outcome         string           `json:"outcome"`
	ServiceDate     string           `json:"serviceDate"`
	Origin          Place            `json:"origin"`
	Destination     Place            `json:"destination"`
	Departure       string           `json:"departure,omitempty"`
	Arrival         string           `json:"arrival,omitempty"`
	Duration        planner.Duration `json:"duration"`
	DurationSeconds int              `json:"durationSeconds"`
	Steps           []StepModel      `json:"steps"`
	Polyline        string           `json:"polyline,omitempty"`
	SearchTimeMs    float64          `json:"searchTimeMs"`
}

// NewItineraryEntry builds the JSON view of result. The polyline runs
// through the origin, every step end and the destination.
func NewItineraryEntry(result *planner.Result, serviceDate string, origin, destination schedule.Coordinates) ItineraryEntry {
	entry := ItineraryEntry{
		QueryID:      result.QueryID,
		Outcome:      result.Outcome.String(),
		ServiceDate:  serviceDate,
		Origin:       NewQueryPlace("Origin", origin),
		Destination:  NewQueryPlace("Destination", destination),
		Steps:        []StepModel{},
		SearchTimeMs: float64(result.SearchTime.Microseconds()) / 1000,
	}

	it := result.Itinerary
	if it == nil {
		return entry
	}

	entry.Departure = it.Departure.String()
	entry.Arrival = it.Arrival.String()
	entry.Duration = it.Duration
	entry.DurationSeconds = it.Duration.TotalSeconds()

	coords := [][]float64{{origin.Latitude, origin.Longitude}}
	for _, step := range it.Steps {
		model := NewStepModel(step, entry.Origin, entry.Destination)
		entry.Steps = append(entry.Steps, model)
		coords = append(coords, []float64{model.To.Lat, model.To.Lon})
	}
	entry.Polyline = string(polyline.EncodeCoords(coords))

	return entry
}

// NewStepModel converts a step, substituting the query points for the nil
// endpoints of the first and last walks.
func NewStepModel(step planner.Step, origin, destination Place) StepModel {
	model := StepModel{
		Kind:      step.Kind.String(),
		From:      origin,
		To:        destination,
		Departure: step.Departure.String(),
		Arrival:   step.Arrival.String(),
		TripID:    step.TripID,
		Headsign:  step.Headsign,
	}
	if step.From != nil {
		model.From = NewStationPlace(step.From)
	}
	if step.To != nil {
		model.To = NewStationPlace(step.To)
	}
	if step.Line != nil {
		model.Line = &LineModel{
			ID:          step.Line.ID,
			Number:      step.Line.Number,
			Description: step.Line.Description,
			Category:    step.Line.Category.String(),
		}
	}
	return model
}
