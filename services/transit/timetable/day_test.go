package timetable

import (
	"testing"
	"time"

	"github.com/rmrobinson/timetables/services/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Ljubljana")
	require.NoError(t, err)

	// 23:30 UTC on 31 Dec is already 1 Jan in Ljubljana.
	now := time.Date(2024, time.December, 31, 23, 30, 0, 0, time.UTC)
	days := Window(now, loc, 3)
	require.Len(t, days, 3)
	assert.Equal(t, "20250101", days[0].Key)
	assert.Equal(t, "20250102", days[1].Key)
	assert.Equal(t, "20250103", days[2].Key)
	assert.Equal(t, "sre 01. 01.", days[0].Label())
	assert.Equal(t, "čet 02. 01.", days[1].Label())
}

func TestWindowAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Ljubljana")
	require.NoError(t, err)

	now := time.Date(2025, time.March, 29, 10, 0, 0, 0, loc)
	var keys []string
	for _, d := range Window(now, loc, 3) {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"20250329", "20250330", "20250331"}, keys)
}

func TestDayRows(t *testing.T) {
	days := []Day{{Key: "20250106"}, {Key: "20250107"}}
	segments := []*transit.Segment{
		{DepartureTime: "09:00:00", ArrivalTime: "10:00:00", AgencyName: "Nomago", Dates: []string{"20250106", "20250107"}},
		{DepartureTime: "09:00:00", ArrivalTime: "10:00:00", AgencyName: "Nomago", Dates: []string{"20250106"}},
		{DepartureTime: "07:00:00", ArrivalTime: "", AgencyName: "", Dates: []string{"20250106", "20250301"}},
		{DepartureTime: "09:00:00", ArrivalTime: "10:00:00", AgencyName: "Arriva", Dates: []string{"20250106"}},
		{DepartureTime: "23:00:00", ArrivalTime: "24:10:00", AgencyName: "Arriva", Dates: []string{"20250301"}},
	}

	rows := DayRows(segments, days)
	assert.Equal(t, []Row{
		{Departure: "07:00:00", Arrival: blank, Agency: blank},
		{Departure: "09:00:00", Arrival: "10:00:00", Agency: "Arriva"},
		{Departure: "09:00:00", Arrival: "10:00:00", Agency: "Nomago"},
	}, rows["20250106"])
	assert.Equal(t, []Row{
		{Departure: "09:00:00", Arrival: "10:00:00", Agency: "Nomago"},
	}, rows["20250107"])
	_, ok := rows["20250301"]
	assert.False(t, ok)
}
