package gtfs

// Agency represents the transit agency supplying service.
// Timetables show the agency name as the carrier of each connection.
type Agency struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	TZ       string `csv:"agency_timezone"`
	Language string `csv:"agency_lang"`
	Phone    string `csv:"agency_phone"`
}
