package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/opentransit/planner/internal/models"
	"github.com/opentransit/planner/internal/planner"
	"github.com/opentransit/planner/internal/utils"
)

// Render writes result to w in the configured output format.
func (app *Application) Render(w io.Writer, result *planner.Result) error {
	entry := models.NewItineraryEntry(result, app.Config.Date, app.Config.Origin, app.Config.Destination)

	switch app.Config.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.NewOKResponse(entry))
	case "csv":
		out, err := models.MarshalStepsCSV(entry)
		if err != nil {
			return fmt.Errorf("error encoding csv: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		_, err := io.WriteString(w, Narrate(entry))
		return err
	}
}

// Narrate describes an itinerary in plain sentences, one step per line.
func Narrate(entry models.ItineraryEntry) string {
	var b strings.Builder

	switch entry.Outcome {
	case planner.OutcomeUnreachable.String():
		b.WriteString("No itinerary reaches the destination within the time window.\n")
		return b.String()
	case planner.OutcomeAlreadyAtDestination.String():
		b.WriteString("You are already at your destination.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Itinerary for %s, leaving at %s and arriving at %s (%s).\n",
		entry.ServiceDate, entry.Departure, entry.Arrival, formatDuration(entry.DurationSeconds))

	for i, step := range entry.Steps {
		fmt.Fprintf(&b, "%2d. ", i+1)
		if step.Kind == planner.StepRide.String() {
			b.WriteString(describeRide(step))
		} else {
			b.WriteString(describeWalk(step))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeWalk(step models.StepModel) string {
	direction := utils.CompassDirection(step.From.Lat, step.From.Lon, step.To.Lat, step.To.Lon)
	meters := utils.Haversine(step.From.Lat, step.From.Lon, step.To.Lat, step.To.Lon)
	return fmt.Sprintf("%s  Walk %s about %.0f m from %s to %s, arriving at %s.",
		step.Departure, direction, meters, step.From.Name, step.To.Name, step.Arrival)
}

func describeRide(step models.StepModel) string {
	line := "trip " + step.TripID
	if step.Line != nil {
		line = fmt.Sprintf("%s %s", step.Line.Category, step.Line.Number)
	}
	towards := ""
	if step.Headsign != "" {
		towards = " towards " + step.Headsign
	}
	return fmt.Sprintf("%s  Take %s%s from %s to %s, arriving at %s.",
		step.Departure, line, towards, step.From.Name, step.To.Name, step.Arrival)
}

func formatDuration(seconds int) string {
	return planner.NewDuration(seconds).String()
}
