package transit

import (
	"strconv"
	"strings"
)

// MissingTime is the sort key given to a blank or unparseable time; it orders after any real time.
const MissingTime = 1000000000

// TimeToSeconds converts a GTFS time of the form H[:M[:S]] into seconds past midnight.
// Hours may exceed 23 for trips running past midnight.
func TimeToSeconds(t string) int {
	t = strings.TrimSpace(t)
	if t == "" {
		return MissingTime
	}

	var total int
	multipliers := []int{3600, 60, 1}
	for i, part := range strings.Split(t, ":") {
		if i >= len(multipliers) {
			break
		}
		val, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return MissingTime
		}
		total += val * multipliers[i]
	}
	return total
}
