package models

import (
	"github.com/gocarina/gocsv"
)

// StepRow is one itinerary step as a CSV record.
type StepRow struct {
	QueryID   string  `csv:"query_id"`
	Index     int     `csv:"step"`
	Kind      string  `csv:"kind"`
	From      string  `csv:"from"`
	FromLat   float64 `csv:"from_lat"`
	FromLon   float64 `csv:"from_lon"`
	To        string  `csv:"to"`
	ToLat     float64 `csv:"to_lat"`
	ToLon     float64 `csv:"to_lon"`
	Departure string  `csv:"departure"`
	Arrival   string  `csv:"arrival"`
	Line      string  `csv:"line"`
	TripID    string  `csv:"trip_id"`
	Headsign  string  `csv:"headsign"`
}

func NewStepRows(entry ItineraryEntry) []*StepRow {
	rows := make([]*StepRow, 0, len(entry.Steps))
	for i, step := range entry.Steps {
		row := &StepRow{
			QueryID:   entry.QueryID,
			Index:     i + 1,
			Kind:      step.Kind,
			From:      step.From.Name,
			FromLat:   step.From.Lat,
			FromLon:   step.From.Lon,
			To:        step.To.Name,
			ToLat:     step.To.Lat,
			ToLon:     step.To.Lon,
			Departure: step.Departure,
			Arrival:   step.Arrival,
			TripID:    step.TripID,
			Headsign:  step.Headsign,
		}
		if step.Line != nil {
			row.Line = step.Line.Number
		}
		rows = append(rows, row)
	}
	return rows
}

// MarshalStepsCSV renders the steps of entry with a header line. An entry
// without steps yields only the header.
func MarshalStepsCSV(entry ItineraryEntry) (string, error) {
	return gocsv.MarshalString(NewStepRows(entry))
}
