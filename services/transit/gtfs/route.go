package gtfs

import (
	"strings"
)

// RouteType is the route_type code of a route, kept as the text found in the feed.
// Feeds occasionally carry blank or extended codes, which are passed through untouched.
type RouteType string

const (
	// RouteTypeLRT is a route served by an LRT or streetcar
	RouteTypeLRT RouteType = "0"
	// RouteTypeSubway is a route served by a subway
	RouteTypeSubway RouteType = "1"
	// RouteTypeRail is a route served by a heavy rail system
	RouteTypeRail RouteType = "2"
	// RouteTypeBus is a route served by a bus
	RouteTypeBus RouteType = "3"
	// RouteTypeFerry is a route served by a ferry
	RouteTypeFerry RouteType = "4"
	// RouteTypeCableTram is a route served by a cable-driven tram system
	RouteTypeCableTram RouteType = "5"
	// RouteTypeAerialLift is a route served by an aerial lift system
	RouteTypeAerialLift RouteType = "6"
	// RouteTypeFunicular is a route served by a funicular system
	RouteTypeFunicular RouteType = "7"
)

// String presents the caller with a human readable version of this enum.
func (rt RouteType) String() string {
	switch rt {
	case RouteTypeLRT:
		return "LRT/Streetcar"
	case RouteTypeSubway:
		return "Subway"
	case RouteTypeRail:
		return "Rail"
	case RouteTypeBus:
		return "Bus"
	case RouteTypeFerry:
		return "Ferry"
	case RouteTypeCableTram:
		return "Tram"
	case RouteTypeAerialLift:
		return "Aerial Lift"
	case RouteTypeFunicular:
		return "Funicular"
	default:
		return "Unknown"
	}
}

// MarshalCSV converts this enum into a string for CSV writing.
func (rt *RouteType) MarshalCSV() (string, error) {
	return string(*rt), nil
}

// UnmarshalCSV stores the trimmed code.
func (rt *RouteType) UnmarshalCSV(csv string) error {
	*rt = RouteType(strings.TrimSpace(csv))
	return nil
}

// Route represents a logical run of a vehicle.
type Route struct {
	ID          string    `csv:"route_id"`
	AgencyID    string    `csv:"agency_id"`
	ShortName   string    `csv:"route_short_name"`
	LongName    string    `csv:"route_long_name"`
	Description string    `csv:"route_desc"`
	Type        RouteType `csv:"route_type"`
	URL         string    `csv:"route_url"`
	Color       string    `csv:"route_color"`
	TextColor   string    `csv:"route_text_color"`
}
