package gtfs

// TypeMapping assigns a stop type to a stop.
// It is read from the non-standard type_mappings.txt table; type 0 marks bus stops and any other type rail stops.
type TypeMapping struct {
	StopID string `csv:"stop_id"`
	Type   CSVInt `csv:"type"`
}
