package transit

import (
	"strings"

	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

const (
	// StopTypeBus is the type_mappings.txt code of a bus stop. Every other code is a rail stop.
	StopTypeBus = 0
)

// expectedRouteType is the route type a trip must have to connect two stops of stopType.
func expectedRouteType(stopType int) gtfs.RouteType {
	if stopType == StopTypeBus {
		return gtfs.RouteTypeBus
	}
	return gtfs.RouteTypeRail
}

// routeDetails is the metadata copied onto every segment of a trip.
type routeDetails struct {
	routeType  gtfs.RouteType
	agencyName string
	shortName  string
	longName   string
}

func (f *Feed) routeDetails(routeID string) routeDetails {
	r, ok := f.routes[routeID]
	if !ok {
		return routeDetails{}
	}

	rd := routeDetails{
		routeType: r.Type,
		shortName: r.ShortName,
		longName:  r.LongName,
	}
	if a, ok := f.agencies[strings.TrimSpace(r.AgencyID)]; ok {
		rd.agencyName = a.Name
	} else if r.AgencyID == "" && len(f.agencies) == 1 {
		// agency_id may be omitted when the feed has a single agency.
		for _, a := range f.agencies {
			rd.agencyName = a.Name
		}
	}
	return rd
}
