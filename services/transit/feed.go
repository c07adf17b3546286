package transit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"go.uber.org/zap"
)

var (
	// ErrNoStops is returned if no stop ids were requested and the feed has no type mappings to fall back on.
	ErrNoStops = errors.New("no stop ids provided and type mappings not found (or empty)")
	// ErrNotEnoughStops is returned if fewer than two distinct stop ids are requested.
	ErrNotEnoughStops = errors.New("need at least 2 stop ids")
	// ErrUnknownStops is returned if a requested stop id is not present in stops.txt.
	ErrUnknownStops = errors.New("unknown stop ids")
)

// UnknownStopsError lists the requested stop ids that are not present in stops.txt.
type UnknownStopsError struct {
	StopIDs []string
}

func (e *UnknownStopsError) Error() string {
	return fmt.Sprintf("%s not found in stops.txt: %s", ErrUnknownStops, strings.Join(e.StopIDs, ", "))
}

// Is allows errors.Is(err, ErrUnknownStops).
func (e *UnknownStopsError) Is(target error) bool {
	return target == ErrUnknownStops
}

// Feed is a static GTFS dataset indexed for extracting direct connections.
type Feed struct {
	logger *zap.Logger

	dataset *gtfs.Dataset

	agencies  map[string]*gtfs.Agency
	stops     map[string]*gtfs.Stop
	routes    map[string]*gtfs.Route
	trips     map[string]*gtfs.Trip
	stopTypes map[string]int
	typedIDs  []string

	services *ServiceDates
}

// NewFeed creates a new feed from the supplied dataset.
func NewFeed(logger *zap.Logger, dataset *gtfs.Dataset) *Feed {
	f := &Feed{
		logger:  logger,
		dataset: dataset,

		agencies:  map[string]*gtfs.Agency{},
		stops:     map[string]*gtfs.Stop{},
		routes:    map[string]*gtfs.Route{},
		trips:     map[string]*gtfs.Trip{},
		stopTypes: map[string]int{},
	}

	f.setup()
	return f
}

// setup populates the internal data structures used to support queries against this feed.
func (f *Feed) setup() {
	for _, a := range f.dataset.Agencies {
		f.agencies[strings.TrimSpace(a.ID)] = a
	}
	for _, s := range f.dataset.Stops {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			continue
		}
		f.stops[id] = s
	}
	for _, r := range f.dataset.Routes {
		f.routes[strings.TrimSpace(r.ID)] = r
	}

	for _, t := range f.dataset.Trips {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			continue
		}
		if _, ok := f.routes[strings.TrimSpace(t.RouteID)]; !ok {
			f.logger.Info("trip specified missing route ID",
				zap.String("trip_id", t.ID),
				zap.String("route_id", t.RouteID),
			)
		}
		f.trips[id] = t
	}

	for _, tm := range f.dataset.TypeMappings {
		id := strings.TrimSpace(tm.StopID)
		if id == "" || !tm.Type.Valid {
			continue
		}
		if _, seen := f.stopTypes[id]; !seen {
			f.typedIDs = append(f.typedIDs, id)
		}
		f.stopTypes[id] = tm.Type.Value
	}

	f.services = NewServiceDates(buildServiceCalendars(f.dataset.Calendar, f.dataset.CalendarDate))
}

// StopName returns the station name of the stop, or false if the stop is unknown.
func (f *Feed) StopName(stopID string) (string, bool) {
	s, ok := f.stops[stopID]
	if !ok {
		return "", false
	}
	return s.Name, true
}

// StopType returns the mapped type of the stop, or nil if the stop has no type mapping.
func (f *Feed) StopType(stopID string) *int {
	t, ok := f.stopTypes[stopID]
	if !ok {
		return nil
	}
	return &t
}

// TypedStopIDs returns the stop ids present in the type mappings, in file order.
func (f *Feed) TypedStopIDs() []string {
	return f.typedIDs
}

// ServiceDates returns the resolver for service active dates.
func (f *Feed) ServiceDates() *ServiceDates {
	return f.services
}

// DistinctStopIDs trims the ids and drops blanks and repeats, keeping the first occurrence order.
func DistinctStopIDs(requested []string) []string {
	var ids []string
	seen := map[string]bool{}
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// CheckStopCount rejects an explicit request naming fewer than two distinct stops.
// An empty request is accepted since the type mapped stops are used instead.
func CheckStopCount(requested []string) error {
	if n := len(DistinctStopIDs(requested)); n > 0 && n < 2 {
		return ErrNotEnoughStops
	}
	return nil
}

// StopsOfInterest decides which stops to index.
// The requested ids are used if any are supplied, otherwise every stop with a type mapping.
// The result holds at least two distinct ids, all present in stops.txt.
func (f *Feed) StopsOfInterest(requested []string) ([]string, error) {
	ids := DistinctStopIDs(requested)
	if len(ids) < 1 {
		if len(f.typedIDs) < 1 {
			return nil, ErrNoStops
		}
		ids = f.typedIDs
	}
	if len(ids) < 2 {
		return nil, ErrNotEnoughStops
	}

	var missing []string
	for _, id := range ids {
		if _, ok := f.stops[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &UnknownStopsError{StopIDs: missing}
	}
	return ids, nil
}

// Segments extracts every direct segment between the supplied stops.
// Trips are processed in trip id order so repeated runs give identical output.
func (f *Feed) Segments(stopIDs []string) []*Segment {
	allowed := map[string]bool{}
	for _, id := range stopIDs {
		allowed[id] = true
	}

	visits := map[string][]*Occurrence{}
	for _, st := range f.dataset.StopTimes {
		stopID := strings.TrimSpace(st.StopID)
		if !allowed[stopID] {
			continue
		}

		tripID := strings.TrimSpace(st.TripID)
		if tripID == "" || !st.Sequence.Valid {
			continue
		}

		station, ok := f.StopName(stopID)
		if !ok {
			continue
		}

		visits[tripID] = append(visits[tripID], &Occurrence{
			StopID:    stopID,
			Station:   station,
			StopType:  f.StopType(stopID),
			Sequence:  st.Sequence.Value,
			Arrival:   strings.TrimSpace(st.ArrivalTime),
			Departure: strings.TrimSpace(st.DepartureTime),
		})
	}

	tripIDs := make([]string, 0, len(visits))
	for tripID := range visits {
		tripIDs = append(tripIDs, tripID)
	}
	sort.Strings(tripIDs)

	var segments []*Segment
	for _, tripID := range tripIDs {
		segments = append(segments, f.tripSegments(tripID, visits[tripID])...)
	}

	f.logger.Debug("extracted segments",
		zap.Int("stops", len(stopIDs)),
		zap.Int("trips", len(tripIDs)),
		zap.Int("segments", len(segments)),
	)
	return segments
}

// Connections builds the connection index between the supplied stops.
func (f *Feed) Connections(stopIDs []string) ConnectionIndex {
	return NewConnectionIndex(f.Segments(stopIDs))
}
