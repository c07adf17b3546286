package transit

import (
	"sort"
)

// Occurrence is a visit of a trip to one of the stops being indexed.
type Occurrence struct {
	StopID  string
	Station string
	// StopType is nil if the stop has no type mapping.
	StopType  *int
	Sequence  int
	Arrival   string
	Departure string
}

// departureTime falls back to the arrival time if no departure is scheduled.
func (o *Occurrence) departureTime() string {
	if o.Departure != "" {
		return o.Departure
	}
	return o.Arrival
}

// arrivalTime falls back to the departure time if no arrival is scheduled.
func (o *Occurrence) arrivalTime() string {
	if o.Arrival != "" {
		return o.Arrival
	}
	return o.Departure
}

// collapseStations orders the occurrences of a trip by stop sequence and keeps only the first of
// any consecutive visits to the same station name.
func collapseStations(occs []*Occurrence) []*Occurrence {
	sorted := make([]*Occurrence, len(occs))
	copy(sorted, occs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	var reduced []*Occurrence
	for _, o := range sorted {
		if len(reduced) > 0 && reduced[len(reduced)-1].Station == o.Station {
			continue
		}
		reduced = append(reduced, o)
	}
	return reduced
}
