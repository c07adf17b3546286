package timetable

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

// blank is shown in place of a missing time or carrier.
const blank = "—"

var dayNames = [7]string{
	time.Sunday:    "ned",
	time.Monday:    "pon",
	time.Tuesday:   "tor",
	time.Wednesday: "sre",
	time.Thursday:  "čet",
	time.Friday:    "pet",
	time.Saturday:  "sob",
}

// Day is one calendar day of the published window.
type Day struct {
	Date time.Time
	// Key is the date in the YYYYMMDD form used by the connection index.
	Key string
}

// Label is the short Slovenian day name and date, e.g. "pon 06. 01.".
func (d Day) Label() string {
	return fmt.Sprintf("%s %02d. %02d.", dayNames[d.Date.Weekday()], d.Date.Day(), int(d.Date.Month()))
}

// Window returns n consecutive days starting with the calendar date of now in loc.
func Window(now time.Time, loc *time.Location, n int) []Day {
	local := now.In(loc)
	// Noon UTC keeps day arithmetic clear of DST transitions.
	base := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.UTC)

	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		d := base.AddDate(0, 0, i)
		days = append(days, Day{Date: d, Key: d.Format(gtfs.DateFormat)})
	}
	return days
}

// Row is a single line of a timetable.
type Row struct {
	Departure string
	Arrival   string
	Agency    string
}

func orBlank(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return blank
	}
	return s
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if as, bs := transit.TimeToSeconds(a.Departure), transit.TimeToSeconds(b.Departure); as != bs {
			return as < bs
		}
		if as, bs := transit.TimeToSeconds(a.Arrival), transit.TimeToSeconds(b.Arrival); as != bs {
			return as < bs
		}
		return a.Agency < b.Agency
	})
}

// DayRows returns the distinct departure, arrival and carrier combinations running on each of the days.
// Rows are keyed by Day.Key and ordered by departure, arrival and carrier.
func DayRows(segments []*transit.Segment, days []Day) map[string][]Row {
	seen := map[string]map[Row]bool{}
	for _, d := range days {
		seen[d.Key] = map[Row]bool{}
	}

	ret := map[string][]Row{}
	for _, s := range segments {
		row := Row{
			Departure: orBlank(s.DepartureTime),
			Arrival:   orBlank(s.ArrivalTime),
			Agency:    orBlank(s.AgencyName),
		}
		for _, date := range s.Dates {
			rows, inWindow := seen[date]
			if !inWindow || rows[row] {
				continue
			}
			rows[row] = true
			ret[date] = append(ret[date], row)
		}
	}

	for _, rows := range ret {
		sortRows(rows)
	}
	return ret
}
