package transit

import (
	"sort"
	"strings"
	"time"

	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

// CompactRow is a distinct departure, arrival and carrier, together with every date it runs on.
type CompactRow struct {
	Departure  string
	Arrival    string
	AgencyName string
	Dates      []string
}

// DateRanges returns the dates of the row collapsed by CompressDates.
func (r *CompactRow) DateRanges() string {
	return CompressDates(r.Dates)
}

type compactKey struct {
	departure string
	arrival   string
	agency    string
}

// CompactRows merges segments sharing departure, arrival and agency into one row holding the union of their dates.
// Rows are ordered by departure, arrival and agency.
func CompactRows(segments []*Segment) []*CompactRow {
	rows := map[compactKey]*CompactRow{}
	dates := map[compactKey]map[string]struct{}{}

	for _, s := range segments {
		key := compactKey{s.DepartureTime, s.ArrivalTime, s.AgencyName}
		if _, ok := rows[key]; !ok {
			rows[key] = &CompactRow{
				Departure:  s.DepartureTime,
				Arrival:    s.ArrivalTime,
				AgencyName: s.AgencyName,
			}
			dates[key] = map[string]struct{}{}
		}
		for _, d := range s.Dates {
			dates[key][d] = struct{}{}
		}
	}

	ret := make([]*CompactRow, 0, len(rows))
	for key, row := range rows {
		for d := range dates[key] {
			row.Dates = append(row.Dates, d)
		}
		sort.Strings(row.Dates)
		ret = append(ret, row)
	}

	sort.Slice(ret, func(i, j int) bool {
		a, b := ret[i], ret[j]
		if as, bs := TimeToSeconds(a.Departure), TimeToSeconds(b.Departure); as != bs {
			return as < bs
		}
		if as, bs := TimeToSeconds(a.Arrival), TimeToSeconds(b.Arrival); as != bs {
			return as < bs
		}
		if a.AgencyName != b.AgencyName {
			return a.AgencyName < b.AgencyName
		}
		// Same times written differently, e.g. 7:00 and 07:00:00.
		if a.Departure != b.Departure {
			return a.Departure < b.Departure
		}
		return a.Arrival < b.Arrival
	})
	return ret
}

// CompressDates renders sorted YYYYMMDD dates as a comma separated list,
// writing each run of consecutive days as "first..last".
func CompressDates(dates []string) string {
	var parts []string
	var runStart, runEnd string
	var last time.Time

	flush := func() {
		if runStart == "" {
			return
		}
		if runStart == runEnd {
			parts = append(parts, runStart)
		} else {
			parts = append(parts, runStart+".."+runEnd)
		}
	}

	for _, d := range dates {
		t, err := time.Parse(gtfs.DateFormat, d)
		if err != nil {
			flush()
			parts = append(parts, d)
			runStart, runEnd = "", ""
			continue
		}

		if runStart != "" && t.Equal(last.AddDate(0, 0, 1)) {
			runEnd = d
		} else if runStart == "" || !t.Equal(last) {
			flush()
			runStart, runEnd = d, d
		}
		last = t
	}
	flush()

	return strings.Join(parts, ",")
}
