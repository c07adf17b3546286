package timetable

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmrobinson/timetables/services/transit"
	"go.uber.org/zap"
)

const (
	// IndexFileName is the landing page of the site.
	IndexFileName = "index.html"
	// RoutesFileName lists every route page.
	RoutesFileName = "routes.html"
	// IndexJSONFileName is the copy of the connection index published with the pages.
	IndexJSONFileName = "out.json"

	// DefaultWindowDays is the number of days shown on each route page.
	DefaultWindowDays = 10
	// DefaultTimezone decides which calendar date is today.
	DefaultTimezone = "Europe/Ljubljana"
)

// Mode selects how a route page lays out its connections.
type Mode string

const (
	// ModeDaily shows one table per day of the window.
	ModeDaily Mode = "daily"
	// ModeCompact shows a single table of every distinct connection with the dates it runs on.
	ModeCompact Mode = "compact"
)

var (
	// ErrInvalidMode is returned if the render mode is not recognized.
	ErrInvalidMode = errors.New("invalid render mode")

	//go:embed templates/*.html
	templateFS embed.FS

	pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))
)

// RenderConfig controls where and how pages are written.
type RenderConfig struct {
	OutDir     string
	WindowDays int
	Location   *time.Location
	Mode       Mode

	// Now returns the current time; time.Now is used if nil.
	Now func() time.Time
}

// Renderer writes the static timetable site for a connection index.
type Renderer struct {
	logger *zap.Logger
	cfg    RenderConfig
}

// NewRenderer creates a renderer, filling in defaults for unset configuration.
func NewRenderer(logger *zap.Logger, cfg RenderConfig) (*Renderer, error) {
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.WindowDays < 1 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			logger.Warn("unable to load default timezone, using local time",
				zap.String("timezone", DefaultTimezone),
				zap.Error(err),
			)
			loc = time.Local
		}
		cfg.Location = loc
	}
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeDaily
	case ModeDaily, ModeCompact:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Renderer{
		logger: logger,
		cfg:    cfg,
	}, nil
}

type routeLink struct {
	From string
	To   string
	File string
}

type listPage struct {
	Routes []routeLink
}

type dayBlock struct {
	Key   string
	Label string
	Rows  []Row
}

type compactRow struct {
	Departure string
	Arrival   string
	Agency    string
	Dates     string
}

type routePage struct {
	From        string
	To          string
	Days        []dayBlock
	CompactMode bool
	CompactRows []compactRow
}

// Render replaces the site in the output directory with pages for ci and returns the route page names written.
// Route pages from earlier runs are removed first; index.html and routes.html are rewritten.
func (r *Renderer) Render(ci transit.ConnectionIndex) ([]string, error) {
	if err := os.MkdirAll(r.cfg.OutDir, 0755); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ci.WriteJSON(&buf); err != nil {
		return nil, err
	}
	if err := r.writeFile(IndexJSONFileName, buf.Bytes()); err != nil {
		return nil, err
	}

	if err := r.deleteRoutePages(); err != nil {
		return nil, err
	}

	days := Window(r.cfg.Now(), r.cfg.Location, r.cfg.WindowDays)

	var links []routeLink
	var pages []string
	written := map[string]transit.Pair{}
	for _, pair := range ci.Pairs() {
		fileName := RouteFileName(pair.From, pair.To)
		if prev, ok := written[fileName]; ok {
			r.logger.Warn("route page name collision, overwriting",
				zap.String("file_name", fileName),
				zap.String("previous_from", prev.From),
				zap.String("previous_to", prev.To),
				zap.String("from", pair.From),
				zap.String("to", pair.To),
			)
		} else {
			pages = append(pages, fileName)
		}
		written[fileName] = pair

		page := r.routePage(pair, ci.Connections(pair.From, pair.To), days)
		if err := r.renderFile(fileName, "route.html", page); err != nil {
			return nil, err
		}
		links = append(links, routeLink{From: pair.From, To: pair.To, File: fileName})
	}

	list := &listPage{Routes: links}
	if err := r.renderFile(RoutesFileName, "routes.html", list); err != nil {
		return nil, err
	}
	if err := r.renderFile(IndexFileName, "index.html", list); err != nil {
		return nil, err
	}

	r.logger.Info("rendered timetable pages",
		zap.String("out_dir", r.cfg.OutDir),
		zap.String("mode", string(r.cfg.Mode)),
		zap.Int("routes", len(pages)),
	)
	return pages, nil
}

func (r *Renderer) routePage(pair transit.Pair, segments []*transit.Segment, days []Day) *routePage {
	page := &routePage{
		From: pair.From,
		To:   pair.To,
	}

	if r.cfg.Mode == ModeCompact {
		page.CompactMode = true
		for _, row := range transit.CompactRows(segments) {
			page.CompactRows = append(page.CompactRows, compactRow{
				Departure: orBlank(row.Departure),
				Arrival:   orBlank(row.Arrival),
				Agency:    orBlank(row.AgencyName),
				Dates:     orBlank(row.DateRanges()),
			})
		}
		return page
	}

	rows := DayRows(segments, days)
	for _, d := range days {
		page.Days = append(page.Days, dayBlock{
			Key:   d.Key,
			Label: d.Label(),
			Rows:  rows[d.Key],
		})
	}
	return page
}

func (r *Renderer) renderFile(fileName, templateName string, data interface{}) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return fmt.Errorf("rendering %s: %w", fileName, err)
	}
	return r.writeFile(fileName, buf.Bytes())
}

func (r *Renderer) writeFile(fileName string, contents []byte) error {
	return writeAtomic(filepath.Join(r.cfg.OutDir, fileName), func(w io.Writer) error {
		_, err := w.Write(contents)
		return err
	})
}

// deleteRoutePages removes every html file in the output directory except the index and route list.
func (r *Renderer) deleteRoutePages() error {
	entries, err := ioutil.ReadDir(r.cfg.OutDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if !e.Mode().IsRegular() || !strings.HasSuffix(name, ".html") {
			continue
		}
		if name == IndexFileName || name == RoutesFileName {
			continue
		}
		if err := os.Remove(filepath.Join(r.cfg.OutDir, name)); err != nil {
			return err
		}
		r.logger.Debug("removed stale route page",
			zap.String("file_name", name),
		)
	}
	return nil
}
