package gtfs

// Trip is a single run of a route on the days given by its service.
type Trip struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	ShortName   string `csv:"trip_short_name"`
	DirectionID string `csv:"direction_id"`
	BlockID     string `csv:"block_id"`
	ShapeID     string `csv:"shape_id"`
}
