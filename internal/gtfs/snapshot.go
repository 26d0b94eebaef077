package gtfs

import (
	"fmt"
	"time"

	"github.com/jamespfennell/gtfs"

	"github.com/opentransit/planner/internal/schedule"
)

// SnapshotOptions selects the service date and the [WindowStart,
// WindowEnd) time window kept from a feed.
type SnapshotOptions struct {
	Date        time.Time
	WindowStart schedule.Time
	WindowEnd   schedule.Time
}

// minTransferSeconds is the walk assigned to transfers without a positive
// min_transfer_time.
const minTransferSeconds = 1

// BuildSnapshot keeps the trips whose service runs on the date and, for
// each, the stop times departing at or after the window start and
// arriving before the window end.
func BuildSnapshot(static *gtfs.Static, opts SnapshotOptions) (*schedule.Snapshot, error) {
	snap, err := schedule.NewSnapshot(opts.Date, opts.WindowStart, opts.WindowEnd)
	if err != nil {
		return nil, err
	}

	for _, route := range static.Routes {
		if err := snap.AddLine(lineFromRoute(route)); err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Id, err)
		}
	}

	for _, stop := range static.Stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		station := schedule.Station{
			ID:          stop.Id,
			Name:        stop.Name,
			Description: stop.Description,
			Coordinates: schedule.Coordinates{Latitude: *stop.Latitude, Longitude: *stop.Longitude},
		}
		if err := snap.AddStation(station); err != nil {
			return nil, fmt.Errorf("stop %s: %w", stop.Id, err)
		}
	}

	active := make(map[string]bool, len(static.Services))
	for _, service := range static.Services {
		active[service.Id] = serviceRunsOn(service, opts.Date)
	}

	for _, trip := range static.Trips {
		if trip.Service == nil || trip.Route == nil || !active[trip.Service.Id] {
			continue
		}
		if err := snap.AddTrip(schedule.Trip{
			ID:        trip.ID,
			LineID:    trip.Route.Id,
			ServiceID: trip.Service.Id,
			Headsign:  trip.Headsign,
		}); err != nil {
			return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
		}

		for _, stopTime := range trip.StopTimes {
			if stopTime.Stop == nil {
				continue
			}
			if _, ok := snap.Station(stopTime.Stop.Id); !ok {
				continue
			}
			arrival := schedule.FromDuration(stopTime.ArrivalTime)
			departure := schedule.FromDuration(stopTime.DepartureTime)
			if departure < opts.WindowStart || arrival >= opts.WindowEnd {
				continue
			}
			if _, err := snap.AddStopEvent(trip.ID, stopTime.Stop.Id, arrival, departure, stopTime.StopSequence); err != nil {
				return nil, err
			}
		}
	}

	for _, transfer := range static.Transfers {
		if transfer.From == nil || transfer.To == nil || transfer.From.Id == transfer.To.Id {
			continue
		}
		walk := minTransferSeconds
		if transfer.MinTransferTime != nil && *transfer.MinTransferTime > 0 {
			walk = int(*transfer.MinTransferTime)
		}
		if err := snap.AddTransfer(schedule.Transfer{
			From:        transfer.From.Id,
			To:          transfer.To.Id,
			WalkSeconds: walk,
		}); err != nil {
			return nil, err
		}
	}

	if err := snap.Finalize(); err != nil {
		return nil, err
	}
	return snap, nil
}

func lineFromRoute(route gtfs.Route) schedule.Line {
	number := route.ShortName
	if number == "" {
		number = route.Id
	}
	description := route.LongName
	if description == "" {
		description = route.Description
	}
	return schedule.Line{
		ID:          route.Id,
		Number:      number,
		Description: description,
		Category:    schedule.CategoryFromRouteType(int(route.Type)),
	}
}

// serviceRunsOn applies calendar_dates exceptions first, then the weekly
// calendar within its date range.
func serviceRunsOn(service gtfs.Service, date time.Time) bool {
	day := dayKey(date)
	for _, removed := range service.RemovedDates {
		if dayKey(removed) == day {
			return false
		}
	}
	for _, added := range service.AddedDates {
		if dayKey(added) == day {
			return true
		}
	}
	if service.StartDate.IsZero() || day < dayKey(service.StartDate) || day > dayKey(service.EndDate) {
		return false
	}

	switch date.Weekday() {
	case time.Monday:
		return service.Monday
	case time.Tuesday:
		return service.Tuesday
	case time.Wednesday:
		return service.Wednesday
	case time.Thursday:
		return service.Thursday
	case time.Friday:
		return service.Friday
	case time.Saturday:
		return service.Saturday
	default:
		return service.Sunday
	}
}

// dayKey compares calendar dates regardless of the location they were
// parsed in.
func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
