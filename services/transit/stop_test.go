package transit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func occ(stopID, station string, sequence int) *Occurrence {
	return &Occurrence{StopID: stopID, Station: station, Sequence: sequence}
}

func stopIDs(occs []*Occurrence) []string {
	var ret []string
	for _, o := range occs {
		ret = append(ret, o.StopID)
	}
	return ret
}

type collapseStationsTest struct {
	name   string
	occs   []*Occurrence
	result []string
}

var collapseStationsTests = []collapseStationsTest{
	{
		"sorted by sequence",
		[]*Occurrence{occ("c", "C", 3), occ("a", "A", 1), occ("b", "B", 2)},
		[]string{"a", "b", "c"},
	},
	{
		"consecutive platforms collapse",
		[]*Occurrence{occ("a", "A", 1), occ("b1", "B", 2), occ("b2", "B", 3), occ("c", "C", 4)},
		[]string{"a", "b1", "c"},
	},
	{
		"revisits are kept",
		[]*Occurrence{occ("a", "A", 1), occ("b", "B", 2), occ("a2", "A", 3)},
		[]string{"a", "b", "a2"},
	},
	{
		"equal sequence keeps input order",
		[]*Occurrence{occ("x", "X", 5), occ("y", "Y", 5)},
		[]string{"x", "y"},
	},
	{
		"single station",
		[]*Occurrence{occ("a", "A", 1), occ("a2", "A", 2)},
		[]string{"a"},
	},
}

func TestCollapseStations(t *testing.T) {
	for _, tt := range collapseStationsTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.result, stopIDs(collapseStations(tt.occs)))
		})
	}
}

func TestExpectedRouteType(t *testing.T) {
	assert.Equal(t, "3", string(expectedRouteType(0)))
	assert.Equal(t, "2", string(expectedRouteType(1)))
	assert.Equal(t, "2", string(expectedRouteType(7)))
}
