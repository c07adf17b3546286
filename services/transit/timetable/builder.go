package timetable

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/db"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"go.uber.org/zap"
)

var (
	// ErrBuildInProgress is returned by TryBuild if another build is still running.
	ErrBuildInProgress = errors.New("build already in progress")
)

// BuildConfig describes one end to end build of the site.
type BuildConfig struct {
	// FeedSource is a GTFS directory, zip file or zip URL.
	FeedSource string
	// StopIDs restricts the index to these stops; the type mapped stops are used if empty.
	StopIDs []string
	// OutJSON is an extra path the connection index is written to, besides the site copy.
	OutJSON string
	// SQLitePath enables the sqlite export if set.
	SQLitePath string

	Render RenderConfig
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Pairs    int
	Segments int
	Pages    int
}

// BuildObserver is notified after every build attempt.
type BuildObserver interface {
	ObserveBuild(res *BuildResult, err error)
}

// Observers fans a build outcome out to several observers.
type Observers []BuildObserver

// ObserveBuild notifies every observer in order.
func (o Observers) ObserveBuild(res *BuildResult, err error) {
	for _, observer := range o {
		observer.ObserveBuild(res, err)
	}
}

// Builder loads a feed, indexes the connections and publishes the site.
type Builder struct {
	logger   *zap.Logger
	cfg      BuildConfig
	observer BuildObserver

	renderer *Renderer
	mu       sync.Mutex
}

// NewBuilder creates a builder. observer may be nil.
func NewBuilder(logger *zap.Logger, cfg BuildConfig, observer BuildObserver) (*Builder, error) {
	renderer, err := NewRenderer(logger, cfg.Render)
	if err != nil {
		return nil, err
	}

	return &Builder{
		logger:   logger,
		cfg:      cfg,
		observer: observer,
		renderer: renderer,
	}, nil
}

// TryBuild runs a build unless one is already running, in which case ErrBuildInProgress is returned.
func (b *Builder) TryBuild(ctx context.Context) (*BuildResult, error) {
	if !b.mu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer b.mu.Unlock()

	return b.build(ctx)
}

// Build runs a build, waiting for any running build to finish first.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.build(ctx)
}

func (b *Builder) build(ctx context.Context) (*BuildResult, error) {
	res := &BuildResult{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}
	logger := b.logger.With(zap.String("run_id", res.RunID))

	err := b.run(ctx, logger, res)
	res.Duration = time.Since(res.Started)

	if b.observer != nil {
		b.observer.ObserveBuild(res, err)
	}
	if err != nil {
		logger.Warn("build failed",
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Info("build complete",
		zap.Duration("duration", res.Duration),
		zap.Int("pairs", res.Pairs),
		zap.Int("segments", res.Segments),
		zap.Int("pages", res.Pages),
	)
	return res, nil
}

func (b *Builder) run(ctx context.Context, logger *zap.Logger, res *BuildResult) error {
	dataset := gtfs.NewDataset(logger)
	if err := dataset.Load(ctx, b.cfg.FeedSource); err != nil {
		return err
	}

	feed := transit.NewFeed(logger, dataset)
	stopIDs, err := feed.StopsOfInterest(b.cfg.StopIDs)
	if err != nil {
		return err
	}

	ci := feed.Connections(stopIDs)
	res.Pairs = len(ci.Pairs())
	res.Segments = ci.Len()

	if b.cfg.OutJSON != "" {
		if err := WriteIndexFile(b.cfg.OutJSON, ci); err != nil {
			return err
		}
	}

	if b.cfg.SQLitePath != "" {
		if err := exportSQLite(ctx, b.cfg.SQLitePath, res, ci); err != nil {
			return err
		}
	}

	pages, err := b.renderer.Render(ci)
	if err != nil {
		return err
	}
	res.Pages = len(pages)
	return nil
}

// WriteIndexFile writes the connection index JSON to path, creating parent directories as needed.
func WriteIndexFile(path string, ci transit.ConnectionIndex) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error {
		return ci.WriteJSON(w)
	})
}

func exportSQLite(ctx context.Context, path string, res *BuildResult, ci transit.ConnectionIndex) error {
	store := &db.DB{}
	if err := store.Open(path); err != nil {
		return err
	}
	defer store.Close()

	return store.WriteIndex(ctx, res.RunID, res.Started, ci)
}
