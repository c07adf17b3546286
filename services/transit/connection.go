package transit

import (
	"encoding/json"
	"io"
	"sort"
)

// ConnectionIndex groups segments by origin station, then destination station.
// Each list is ordered by departure time, arrival time and trip id.
type ConnectionIndex map[string]map[string][]*Segment

// Pair is an origin and destination station with at least one direct connection.
type Pair struct {
	From string
	To   string
}

// NewConnectionIndex groups and orders the supplied segments.
func NewConnectionIndex(segments []*Segment) ConnectionIndex {
	ci := ConnectionIndex{}
	for _, s := range segments {
		ci.add(s)
	}
	ci.sort()
	return ci
}

func (ci ConnectionIndex) add(s *Segment) {
	dests, ok := ci[s.FromStation]
	if !ok {
		dests = map[string][]*Segment{}
		ci[s.FromStation] = dests
	}
	dests[s.ToStation] = append(dests[s.ToStation], s)
}

func (ci ConnectionIndex) sort() {
	for _, dests := range ci {
		for _, segments := range dests {
			sortSegments(segments)
		}
	}
}

func sortSegments(segments []*Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].less(segments[j])
	})
}

// Connections returns the ordered segments from one station to another.
func (ci ConnectionIndex) Connections(from, to string) []*Segment {
	return ci[from][to]
}

// Pairs lists every station pair in the index, ordered by origin then destination.
func (ci ConnectionIndex) Pairs() []Pair {
	var pairs []Pair
	for from, dests := range ci {
		for to := range dests {
			pairs = append(pairs, Pair{From: from, To: to})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	return pairs
}

// Len returns the number of segments in the index.
func (ci ConnectionIndex) Len() int {
	var n int
	for _, dests := range ci {
		for _, segments := range dests {
			n += len(segments)
		}
	}
	return n
}

// WriteJSON writes the index as indented JSON, keeping non-ASCII text unescaped.
func (ci ConnectionIndex) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(ci)
}

// ReadConnectionIndex decodes an index written by WriteJSON.
// Segment station names are restored from the map keys and every list is re-sorted.
func ReadConnectionIndex(r io.Reader) (ConnectionIndex, error) {
	ci := ConnectionIndex{}
	if err := json.NewDecoder(r).Decode(&ci); err != nil {
		return nil, err
	}
	if ci == nil {
		ci = ConnectionIndex{}
	}

	for from, dests := range ci {
		for to, segments := range dests {
			kept := segments[:0]
			for _, s := range segments {
				if s == nil {
					continue
				}
				s.FromStation = from
				s.ToStation = to
				kept = append(kept, s)
			}
			dests[to] = kept
		}
	}
	ci.sort()
	return ci, nil
}
