package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedPath = "../../gtfs/testdata/feed"

type exitStatusTest struct {
	name   string
	err    error
	status int
}

var exitStatusTests = []exitStatusTest{
	{"success", nil, exitOK},
	{"help", pflag.ErrHelp, exitOK},
	{"bad flag", fmt.Errorf("%w: unknown flag", errUsage), exitUsage},
	{"no stops", transit.ErrNoStops, exitUsage},
	{"not enough stops", transit.ErrNotEnoughStops, exitUsage},
	{"unknown stops", &transit.UnknownStopsError{StopIDs: []string{"X9"}}, exitError},
	{"missing table", fmt.Errorf("loading feed: %w", fmt.Errorf("%w: trips.txt", gtfs.ErrMissingTable)), exitError},
	{"write failure", errors.New("disk full"), exitError},
}

func TestExitStatus(t *testing.T) {
	for _, tt := range exitStatusTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, exitStatus(tt.err))
		})
	}
}

type runTest struct {
	name string
	// feed is the feed directory; empty selects a directory with no tables.
	feed   string
	args   []string
	status int
	err    error
}

var runTests = []runTest{
	{"single stop", testFeedPath, []string{"S1"}, exitUsage, transit.ErrNotEnoughStops},
	{"repeated stop", testFeedPath, []string{"S1", "S1"}, exitUsage, transit.ErrNotEnoughStops},
	{"single stop with missing table", "", []string{"S1"}, exitUsage, transit.ErrNotEnoughStops},
	{"missing table", "", []string{"S1", "S2"}, exitError, gtfs.ErrMissingTable},
	{"unknown stop", testFeedPath, []string{"S1", "X9"}, exitError, transit.ErrUnknownStops},
	{"unknown flag", testFeedPath, []string{"--bogus"}, exitUsage, errUsage},
	{"invalid config", testFeedPath, []string{"--days", "0"}, exitUsage, errUsage},
	{"help", testFeedPath, []string{"--help"}, exitOK, pflag.ErrHelp},
	{"explicit stops", testFeedPath, []string{"S1", "S2"}, exitOK, nil},
	{"type mapped stops", testFeedPath, nil, exitOK, nil},
}

func TestRun(t *testing.T) {
	for _, tt := range runTests {
		t.Run(tt.name, func(t *testing.T) {
			feed := tt.feed
			if feed == "" {
				feed = t.TempDir()
			}

			var stdout bytes.Buffer
			err := run("directtimetables", append([]string{"--feed", feed}, tt.args...), &stdout)
			assert.Equal(t, tt.status, exitStatus(err))
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)

			ci, err := transit.ReadConnectionIndex(&stdout)
			require.NoError(t, err)
			assert.Len(t, ci.Connections("Celje", "Zidani Most"), 1)
		})
	}
}

func TestRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")

	var stdout bytes.Buffer
	err := run("directtimetables", []string{"--feed", testFeedPath, "--out", out, "--sqlite", filepath.Join(dir, "index.db")}, &stdout)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	ci, err := timetable.LoadIndex(out)
	require.NoError(t, err)
	assert.Equal(t, []transit.Pair{
		{From: "Celje", To: "Zidani Most"},
		{From: "Celje AP", To: "Velenje AP"},
	}, ci.Pairs())
}
