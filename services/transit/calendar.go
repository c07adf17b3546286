package transit

import (
	"sort"
	"strings"
	"time"

	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

// ServiceCalendar is the set of days a service operates on.
// The weekly pattern is optional; a service may be defined purely by calendar_dates exceptions.
type ServiceCalendar struct {
	HasPattern bool
	Start      time.Time
	End        time.Time
	Weekdays   [7]bool

	// Exception dates in YYYYMMDD form.
	Added   map[string]struct{}
	Removed map[string]struct{}
}

func newServiceCalendar() *ServiceCalendar {
	return &ServiceCalendar{
		Added:   map[string]struct{}{},
		Removed: map[string]struct{}{},
	}
}

// Dates resolves the calendar into the sorted list of active dates in YYYYMMDD form.
// With a weekly pattern every matching day in [Start, End] is active, plus added dates, minus removed dates.
// Without one only the added dates that are not also removed are active.
func (sc *ServiceCalendar) Dates() []string {
	active := map[string]struct{}{}

	if sc.HasPattern {
		for d := sc.Start; !d.After(sc.End); d = d.AddDate(0, 0, 1) {
			if sc.Weekdays[d.Weekday()] {
				active[d.Format(gtfs.DateFormat)] = struct{}{}
			}
		}
	}
	for date := range sc.Added {
		active[date] = struct{}{}
	}
	for date := range sc.Removed {
		delete(active, date)
	}

	dates := make([]string, 0, len(active))
	for date := range active {
		dates = append(dates, date)
	}
	// YYYYMMDD sorts chronologically as text.
	sort.Strings(dates)
	return dates
}

// buildServiceCalendars merges calendar.txt and calendar_dates.txt into one calendar per service id.
// Rows with unparseable dates are skipped.
func buildServiceCalendars(calendars []*gtfs.Calendar, calendarDates []*gtfs.CalendarDate) map[string]*ServiceCalendar {
	services := map[string]*ServiceCalendar{}
	get := func(id string) *ServiceCalendar {
		id = strings.TrimSpace(id)
		sc, ok := services[id]
		if !ok {
			sc = newServiceCalendar()
			services[id] = sc
		}
		return sc
	}

	for _, c := range calendars {
		if !c.StartDate.Valid || !c.EndDate.Valid {
			continue
		}

		sc := get(c.ServiceID)
		sc.HasPattern = true
		sc.Start = c.StartDate.Time
		sc.End = c.EndDate.Time
		sc.Weekdays = c.Weekdays()
	}

	for _, cd := range calendarDates {
		if !cd.Date.Valid {
			continue
		}

		sc := get(cd.ServiceID)
		date := cd.Date.Format(gtfs.DateFormat)
		switch strings.TrimSpace(cd.ExceptionType) {
		case gtfs.ExceptionAdded:
			sc.Added[date] = struct{}{}
		case gtfs.ExceptionRemoved:
			sc.Removed[date] = struct{}{}
		}
	}

	return services
}
