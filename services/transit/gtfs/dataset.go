package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

const (
	// TypeMappingsFileName is the optional, non-standard table assigning stop types.
	TypeMappingsFileName = "type_mappings.txt"
)

var (
	// ErrUnknownFileName is returned if an unknown file is encountered during parsing.
	ErrUnknownFileName = errors.New("unknown file name encountered")
	// ErrMissingTable is returned if a required table is not present in the feed.
	ErrMissingTable = errors.New("required table missing")
	// ErrUnexpectedStatus is returned if a remote feed could not be downloaded.
	ErrUnexpectedStatus = errors.New("unexpected http status")

	requiredFileNames = []string{
		"agency.txt",
		"routes.txt",
		"trips.txt",
		"stops.txt",
		"stop_times.txt",
		"calendar.txt",
		"calendar_dates.txt",
	}
)

// Dataset represents all the data available in a GTFS-exposed dataset.
type Dataset struct {
	Agencies     []*Agency
	Stops        []*Stop
	Routes       []*Route
	Trips        []*Trip
	StopTimes    []*StopTime
	Calendar     []*Calendar
	CalendarDate []*CalendarDate
	TypeMappings []*TypeMapping

	// HasTypeMappings is set if type_mappings.txt was present, even if it held no rows.
	HasTypeMappings bool
	// Encodings records the encoding detected for each table that was read.
	Encodings map[string]string

	logger *zap.Logger
}

// NewDataset creates a new dataset structure.
func NewDataset(logger *zap.Logger) *Dataset {
	gocsv.SetCSVReader(gtfsCSVReader)
	return &Dataset{
		Encodings: map[string]string{},
		logger:    logger,
	}
}

// Load reads the feed from source, which may be a directory, a zip archive or an http(s) URL of a zip archive.
func (ds *Dataset) Load(ctx context.Context, source string) error {
	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return ds.LoadFromURL(ctx, source)
	case strings.EqualFold(filepath.Ext(source), ".zip"):
		return ds.LoadFromZipPath(ctx, source)
	default:
		return ds.LoadFromFSPath(ctx, source)
	}
}

// LoadFromFSPath loads the contents of the specified directory into this dataset.
func (ds *Dataset) LoadFromFSPath(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}

	return ds.loadTables(ctx, func(name string) (io.ReadCloser, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return nil, nil
		}
		return f, err
	})
}

// LoadFromZipPath loads the contents of the zip archive at the specified path into this dataset.
func (ds *Dataset) LoadFromZipPath(ctx context.Context, zipPath string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	return ds.loadZip(ctx, &zr.Reader)
}

// LoadFromURL loads the contents of the zip archive at the specified URL into this dataset.
func (ds *Dataset) LoadFromURL(ctx context.Context, url string) error {
	body, err := getPath(ctx, url)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}

	return ds.loadZip(ctx, zr)
}

func (ds *Dataset) loadZip(ctx context.Context, zr *zip.Reader) error {
	// Some publishers nest the tables in a folder inside the archive.
	files := map[string]*zip.File{}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		files[path.Base(zf.Name)] = zf
	}

	return ds.loadTables(ctx, func(name string) (io.ReadCloser, error) {
		zf, ok := files[name]
		if !ok {
			return nil, nil
		}
		return zf.Open()
	})
}

// loadTables reads every known table through open.
// open returns a nil reader if the table does not exist.
func (ds *Dataset) loadTables(ctx context.Context, open func(name string) (io.ReadCloser, error)) error {
	for _, name := range append(requiredFileNames, TypeMappingsFileName) {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := open(name)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		} else if f == nil {
			if name == TypeMappingsFileName {
				ds.logger.Debug("optional table not present",
					zap.String("file_name", name),
				)
				continue
			}
			return fmt.Errorf("%w: %s", ErrMissingTable, name)
		}

		start := time.Now()
		err = ds.parseFile(name, f)
		f.Close()
		if err != nil {
			ds.logger.Debug("error parsing csv file",
				zap.String("file_name", name),
				zap.Error(err),
			)
			return fmt.Errorf("parsing %s: %w", name, err)
		}

		ds.logger.Debug("parsed csv file",
			zap.String("file_name", name),
			zap.String("encoding", ds.Encodings[name]),
			zap.Duration("duration", time.Since(start)),
		)
	}

	ds.logger.Info("loaded dataset",
		zap.Int("agencies", len(ds.Agencies)),
		zap.Int("stops", len(ds.Stops)),
		zap.Int("routes", len(ds.Routes)),
		zap.Int("trips", len(ds.Trips)),
		zap.Int("stop_times", len(ds.StopTimes)),
		zap.Int("calendars", len(ds.Calendar)),
		zap.Int("calendar_dates", len(ds.CalendarDate)),
		zap.Int("type_mappings", len(ds.TypeMappings)),
	)
	return nil
}

func getPath(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return ioutil.ReadAll(resp.Body)
}

func (ds *Dataset) parseFile(name string, contents io.Reader) error {
	in, enc, empty, err := newDecodingReader(contents)
	if err != nil {
		return err
	}
	ds.Encodings[name] = enc.Name

	if name == TypeMappingsFileName {
		ds.HasTypeMappings = true
	}
	if empty {
		return nil
	}

	switch name {
	case "agency.txt":
		return gocsv.Unmarshal(in, &ds.Agencies)
	case "routes.txt":
		return gocsv.Unmarshal(in, &ds.Routes)
	case "trips.txt":
		return gocsv.Unmarshal(in, &ds.Trips)
	case "stops.txt":
		return gocsv.Unmarshal(in, &ds.Stops)
	case "stop_times.txt":
		return gocsv.Unmarshal(in, &ds.StopTimes)
	case "calendar.txt":
		return gocsv.Unmarshal(in, &ds.Calendar)
	case "calendar_dates.txt":
		return gocsv.Unmarshal(in, &ds.CalendarDate)
	case TypeMappingsFileName:
		return gocsv.Unmarshal(in, &ds.TypeMappings)
	default:
		return ErrUnknownFileName
	}
}

// This allows us to handle the fact that GTFS supports optional fields
// We do not error if the CSV row has fewer columns than the header row, for better or worse.
func gtfsCSVReader(in io.Reader) gocsv.CSVReader {
	csvReader := csv.NewReader(in)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	return csvReader
}
