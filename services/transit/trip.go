package transit

import (
	"strings"

	"go.uber.org/zap"
)

// tripSegments turns the indexed stop visits of one trip into segments between consecutive stations.
// A trip yields nothing if it is unknown, visits fewer than two distinct stations or never runs.
func (f *Feed) tripSegments(tripID string, occs []*Occurrence) []*Segment {
	trip, ok := f.trips[tripID]
	if !ok {
		f.logger.Debug("stop times reference missing trip ID",
			zap.String("trip_id", tripID),
		)
		return nil
	}

	stations := collapseStations(occs)
	if len(stations) < 2 {
		return nil
	}

	serviceID := strings.TrimSpace(trip.ServiceID)
	dates := f.services.Dates(serviceID)
	if len(dates) < 1 {
		return nil
	}

	routeID := strings.TrimSpace(trip.RouteID)
	rd := f.routeDetails(routeID)

	var segments []*Segment
	for i := 0; i < len(stations)-1; i++ {
		from, to := stations[i], stations[i+1]

		// Bus stops only connect to bus stops, and only on bus routes; likewise for rail.
		if from.StopType != nil && to.StopType != nil {
			if *from.StopType != *to.StopType {
				continue
			}
			if rd.routeType != "" && rd.routeType != expectedRouteType(*from.StopType) {
				continue
			}
		}

		segments = append(segments, &Segment{
			FromStopID:    from.StopID,
			ToStopID:      to.StopID,
			FromStopType:  from.StopType,
			ToStopType:    to.StopType,
			DepartureTime: from.departureTime(),
			ArrivalTime:   to.arrivalTime(),
			TripID:        tripID,
			ServiceID:     serviceID,
			TripHeadsign:  trip.Headsign,
			RouteID:       routeID,
			RouteType:     rd.routeType,
			AgencyName:    rd.agencyName,
			RouteShort:    rd.shortName,
			RouteLong:     rd.longName,
			Dates:         dates,
			FromStation:   from.Station,
			ToStation:     to.Station,
		})
	}
	return segments
}
