package gtfs

// Stop is a location where vehicles pick up or drop off riders.
// Only the identifier and name are used when building timetables; stations are keyed by name.
type Stop struct {
	ID            string `csv:"stop_id"`
	Code          string `csv:"stop_code"`
	Name          string `csv:"stop_name"`
	Description   string `csv:"stop_desc"`
	Latitude      string `csv:"stop_lat"`
	Longitude     string `csv:"stop_lon"`
	ZoneID        string `csv:"zone_id"`
	URL           string `csv:"stop_url"`
	LocationType  string `csv:"location_type"`
	ParentStation string `csv:"parent_station"`
}
