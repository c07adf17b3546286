package metrics

import (
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	c := NewCollector(10)
	started := time.Date(2025, time.January, 6, 0, 5, 0, 0, time.UTC)

	c.ObserveBuild(&timetable.BuildResult{
		RunID:    "run-1",
		Started:  started,
		Duration: 2 * time.Second,
		Pairs:    4,
		Segments: 12,
		Pages:    4,
	}, nil)
	c.ObserveBuild(&timetable.BuildResult{Duration: time.Second}, errors.New("feed unavailable"))
	c.ObserveBuild(nil, errors.New("feed unavailable"))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.Builds.WithLabelValues(resultSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Builds.WithLabelValues(resultFailure)))
	assert.Equal(t, float64(4), testutil.ToFloat64(c.Pairs))
	assert.Equal(t, float64(12), testutil.ToFloat64(c.Segments))
	assert.Equal(t, float64(4), testutil.ToFloat64(c.Pages))
	assert.Equal(t, float64(started.Unix()), testutil.ToFloat64(c.LastSuccess))
	assert.Equal(t, float64(10), testutil.ToFloat64(c.WindowDays))
	assert.Equal(t, 1, testutil.CollectAndCount(c.BuildDuration))
}

func TestObserveSkipped(t *testing.T) {
	c := NewCollector(10)

	c.ObserveSkipped(timetable.ErrBuildInProgress)
	c.ObserveSkipped(errors.New("other"))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.Builds.WithLabelValues(resultSkipped)))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.Builds.WithLabelValues(resultFailure)))
}

func TestHandler(t *testing.T) {
	c := NewCollector(7)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := ioutil.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `timetables_builds_total{result="skipped"} 0`)
	assert.Contains(t, string(body), "timetables_window_days 7")
	assert.NotContains(t, string(body), "go_goroutines")
}
