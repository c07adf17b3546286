package transit

import (
	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

// Segment is a direct ride between two consecutive indexed stations of a single trip.
type Segment struct {
	FromStopID    string         `json:"from_stop_id"`
	ToStopID      string         `json:"to_stop_id"`
	FromStopType  *int           `json:"from_stop_type"`
	ToStopType    *int           `json:"to_stop_type"`
	DepartureTime string         `json:"departure_time"`
	ArrivalTime   string         `json:"arrival_time"`
	TripID        string         `json:"trip_id"`
	ServiceID     string         `json:"service_id"`
	TripHeadsign  string         `json:"trip_headsign"`
	RouteID       string         `json:"route_id"`
	RouteType     gtfs.RouteType `json:"route_type"`
	AgencyName    string         `json:"agency_name"`
	RouteShort    string         `json:"route_short_name"`
	RouteLong     string         `json:"route_long_name"`
	Dates         []string       `json:"dates"`

	// Station names the segment is indexed under.
	FromStation string `json:"-"`
	ToStation   string `json:"-"`
}

func (s *Segment) departureSeconds() int {
	return TimeToSeconds(s.DepartureTime)
}

func (s *Segment) arrivalSeconds() int {
	return TimeToSeconds(s.ArrivalTime)
}

// less orders segments by departure, then arrival, then trip id.
func (s *Segment) less(o *Segment) bool {
	if sd, od := s.departureSeconds(), o.departureSeconds(); sd != od {
		return sd < od
	}
	if sa, oa := s.arrivalSeconds(), o.arrivalSeconds(); sa != oa {
		return sa < oa
	}
	return s.TripID < o.TripID
}
