package gtfs

import (
	"time"
)

// Calendar is a set of days that the specified service is available.
type Calendar struct {
	ServiceID string  `csv:"service_id"`
	Monday    CSVBool `csv:"monday"`
	Tuesday   CSVBool `csv:"tuesday"`
	Wednesday CSVBool `csv:"wednesday"`
	Thursday  CSVBool `csv:"thursday"`
	Friday    CSVBool `csv:"friday"`
	Saturday  CSVBool `csv:"saturday"`
	Sunday    CSVBool `csv:"sunday"`
	StartDate CSVDate `csv:"start_date"`
	EndDate   CSVDate `csv:"end_date"`
}

// Weekdays returns the weekly pattern indexed by time.Weekday.
func (c *Calendar) Weekdays() [7]bool {
	return [7]bool{
		time.Sunday:    bool(c.Sunday),
		time.Monday:    bool(c.Monday),
		time.Tuesday:   bool(c.Tuesday),
		time.Wednesday: bool(c.Wednesday),
		time.Thursday:  bool(c.Thursday),
		time.Friday:    bool(c.Friday),
		time.Saturday:  bool(c.Saturday),
	}
}
