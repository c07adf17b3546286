package gtfs

const (
	// ExceptionAdded marks a date on which service is added.
	ExceptionAdded = "1"
	// ExceptionRemoved marks a date on which service is removed.
	ExceptionRemoved = "2"
)

// CalendarDate represents a service override on the specified date.
type CalendarDate struct {
	ServiceID     string  `csv:"service_id"`
	Date          CSVDate `csv:"date"`
	ExceptionType string  `csv:"exception_type"`
}
