package gtfs

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DateFormat is the layout of every date field in a GTFS feed.
	DateFormat = "20060102"
)

// CSVBool is a CSV marshalable boolean value.
// Only the literal "1" is true; anything else, including malformed values, is false.
type CSVBool bool

// MarshalCSV marshals the value into a string format
func (b *CSVBool) MarshalCSV() (string, error) {
	if *b {
		return "1", nil
	}
	return "0", nil
}

// UnmarshalCSV takes the string representation from a CSV file and converts it to a bool.
func (b *CSVBool) UnmarshalCSV(csv string) error {
	*b = strings.TrimSpace(csv) == "1"
	return nil
}

// CSVDate is a GTFS date parsed from CSV.
// Valid is false if the field was empty or could not be parsed; the row is kept so the caller can decide.
type CSVDate struct {
	time.Time
	Valid bool
}

// MarshalCSV marshals the value into a string format
func (d *CSVDate) MarshalCSV() (string, error) {
	if !d.Valid {
		return "", nil
	}
	return d.Format(DateFormat), nil
}

// UnmarshalCSV takes the string representation from a CSV file and attempts to convert it to a date.
func (d *CSVDate) UnmarshalCSV(csv string) error {
	t, err := time.Parse(DateFormat, strings.TrimSpace(csv))
	if err != nil {
		*d = CSVDate{}
		return nil
	}

	*d = CSVDate{Time: t, Valid: true}
	return nil
}

// CSVInt is a CSV marshalable int value.
// Valid is false if the field was empty or not an integer.
type CSVInt struct {
	Value int
	Valid bool
}

// MarshalCSV marshals the value into a string format
func (i *CSVInt) MarshalCSV() (string, error) {
	if !i.Valid {
		return "", nil
	}
	return strconv.Itoa(i.Value), nil
}

// UnmarshalCSV takes the string representation from a CSV file and attempts to convert it to an int.
func (i *CSVInt) UnmarshalCSV(csv string) error {
	val, err := strconv.Atoi(strings.TrimSpace(csv))
	if err != nil {
		*i = CSVInt{}
		return nil
	}

	*i = CSVInt{Value: val, Valid: true}
	return nil
}
