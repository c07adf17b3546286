package timetable

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/db"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testFeedPath = "../gtfs/testdata/feed"

type recordingObserver struct {
	results []*BuildResult
	errs    []error
}

func (o *recordingObserver) ObserveBuild(res *BuildResult, err error) {
	o.results = append(o.results, res)
	o.errs = append(o.errs, err)
}

func testBuildConfig(t *testing.T, dir string) BuildConfig {
	loc, err := time.LoadLocation("Europe/Ljubljana")
	require.NoError(t, err)

	return BuildConfig{
		FeedSource: testFeedPath,
		OutJSON:    filepath.Join(dir, "data", "connections.json"),
		SQLitePath: filepath.Join(dir, "index.db"),
		Render: RenderConfig{
			OutDir:     filepath.Join(dir, "site"),
			WindowDays: 7,
			Location:   loc,
			Now: func() time.Time {
				return time.Date(2025, time.January, 6, 8, 0, 0, 0, loc)
			},
		},
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	cfg := testBuildConfig(t, dir)
	observer := &recordingObserver{}

	b, err := NewBuilder(zaptest.NewLogger(t), cfg, observer)
	require.NoError(t, err)

	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Pairs)
	assert.Equal(t, 2, res.Segments)
	assert.Equal(t, 2, res.Pages)

	require.Len(t, observer.results, 1)
	assert.Equal(t, res, observer.results[0])
	assert.NoError(t, observer.errs[0])

	for _, name := range []string{IndexFileName, RoutesFileName, IndexJSONFileName, "celje-ap-velenje-ap.html", "celje-zidani-most.html"} {
		_, err := os.Stat(filepath.Join(cfg.Render.OutDir, name))
		assert.NoError(t, err, name)
	}

	ci, err := LoadIndex(cfg.OutJSON)
	require.NoError(t, err)
	segments := ci.Connections("Celje", "Zidani Most")
	require.Len(t, segments, 1)
	assert.Equal(t, "T2", segments[0].TripID)
	assert.Equal(t, "Slovenske železnice", segments[0].AgencyName)
	assert.Equal(t, []string{"20250106", "20250107", "20250109", "20250110", "20250111"}, segments[0].Dates)

	store := &db.DB{}
	require.NoError(t, store.Open(cfg.SQLitePath))
	defer store.Close()

	run, err := store.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.ID)
	assert.Equal(t, 2, run.Pairs)

	stored, err := store.Connections(context.Background(), "Celje AP", "Velenje AP")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "T1", stored[0].TripID)
	assert.Equal(t, "06:05:00", stored[0].DepartureTime)
	assert.Equal(t, "06:50:00", stored[0].ArrivalTime)
}

type buildErrorTest struct {
	name     string
	source   string
	stopIDs  []string
	expected error
}

var buildErrorTests = []buildErrorTest{
	{
		"missing feed directory",
		"does-not-exist",
		nil,
		nil,
	},
	{
		"single stop",
		testFeedPath,
		[]string{"S1", "S1"},
		transit.ErrNotEnoughStops,
	},
	{
		"unknown stop",
		testFeedPath,
		[]string{"S1", "X9"},
		transit.ErrUnknownStops,
	},
}

func TestBuildErrors(t *testing.T) {
	for _, tt := range buildErrorTests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testBuildConfig(t, dir)
			cfg.FeedSource = tt.source
			cfg.StopIDs = tt.stopIDs
			observer := &recordingObserver{}

			b, err := NewBuilder(zaptest.NewLogger(t), cfg, observer)
			require.NoError(t, err)

			res, err := b.Build(context.Background())
			assert.Error(t, err)
			assert.Nil(t, res)
			if tt.expected != nil {
				assert.True(t, errors.Is(err, tt.expected), err.Error())
			}

			require.Len(t, observer.errs, 1)
			assert.Equal(t, err, observer.errs[0])

			// Nothing is published by a failed build.
			_, err = os.Stat(filepath.Join(cfg.Render.OutDir, IndexFileName))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestBuildRestrictedStops(t *testing.T) {
	dir := t.TempDir()
	cfg := testBuildConfig(t, dir)
	cfg.StopIDs = []string{"S2", "S1"}
	cfg.SQLitePath = ""

	b, err := NewBuilder(zaptest.NewLogger(t), cfg, nil)
	require.NoError(t, err)

	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pairs)

	_, err = os.Stat(filepath.Join(dir, "index.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestTryBuildInProgress(t *testing.T) {
	cfg := testBuildConfig(t, t.TempDir())
	b, err := NewBuilder(zaptest.NewLogger(t), cfg, nil)
	require.NoError(t, err)

	b.mu.Lock()
	_, err = b.TryBuild(context.Background())
	b.mu.Unlock()
	assert.Equal(t, ErrBuildInProgress, err)

	_, err = b.TryBuild(context.Background())
	assert.NoError(t, err)
}

func TestBuildCancelled(t *testing.T) {
	cfg := testBuildConfig(t, t.TempDir())
	b, err := NewBuilder(zaptest.NewLogger(t), cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Build(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWriteIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	ci := transit.NewConnectionIndex([]*transit.Segment{
		{FromStation: "A", ToStation: "B", TripID: "T1", RouteType: gtfs.RouteTypeBus, Dates: []string{"20250106"}},
	})
	require.NoError(t, WriteIndexFile(path, ci))

	loaded, err := LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, ci, loaded)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*tmp*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestObserversFanOut(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	res := &BuildResult{RunID: "run-1"}

	Observers{first, second}.ObserveBuild(res, nil)

	require.Len(t, first.results, 1)
	require.Len(t, second.results, 1)
	assert.Equal(t, res, first.results[0])
	assert.Equal(t, res, second.results[0])
}
