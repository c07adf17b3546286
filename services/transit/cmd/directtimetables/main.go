package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/config"
	"github.com/rmrobinson/timetables/services/transit/db"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks errors in how the command was invoked.
var errUsage = errors.New("usage error")

// exitStatus maps the outcome of run to the process exit status.
func exitStatus(err error) int {
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, transit.ErrNoStops), errors.Is(err, transit.ErrNotEnoughStops):
		return exitUsage
	default:
		return exitError
	}
}

func usage(fs *pflag.FlagSet, name string) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [stop_id ...]\n\n", name)
	fmt.Fprintln(os.Stderr, "Writes the direct connections between the stops as JSON.")
	fmt.Fprintln(os.Stderr, "Every stop in type_mappings.txt is used if no stop ids are given.")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}

func main() {
	err := run(os.Args[0], os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitStatus(err))
}

func run(name string, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	out := fs.StringP("out", "o", "", "file the JSON is written to instead of stdout")
	fs.Usage = func() { usage(fs, name) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s", errUsage, err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("%w: %s", errUsage, err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("%w: %s", errUsage, err)
	}
	defer logger.Sync()

	stopIDs := cfg.Stops
	if fs.NArg() > 0 {
		stopIDs = fs.Args()
	}
	// The count of explicit ids is checked before the feed is read.
	if err := transit.CheckStopCount(stopIDs); err != nil {
		usage(fs, name)
		return err
	}

	ctx := context.Background()
	dataset := gtfs.NewDataset(logger)
	if err := dataset.Load(ctx, cfg.Feed); err != nil {
		return fmt.Errorf("loading %s: %w", cfg.Feed, err)
	}

	feed := transit.NewFeed(logger, dataset)
	ids, err := feed.StopsOfInterest(stopIDs)
	if errors.Is(err, transit.ErrNoStops) || errors.Is(err, transit.ErrNotEnoughStops) {
		usage(fs, name)
		return err
	} else if err != nil {
		return err
	}

	started := time.Now()
	ci := feed.Connections(ids)

	if *out != "" {
		err = timetable.WriteIndexFile(*out, ci)
	} else {
		err = ci.WriteJSON(stdout)
	}
	if err != nil {
		return fmt.Errorf("writing connection index: %w", err)
	}

	if cfg.SQLitePath != "" {
		if err := exportSQLite(ctx, cfg.SQLitePath, started, ci); err != nil {
			return fmt.Errorf("exporting to %s: %w", cfg.SQLitePath, err)
		}
	}

	logger.Info("wrote connection index",
		zap.Int("stops", len(ids)),
		zap.Int("pairs", len(ci.Pairs())),
		zap.Int("segments", ci.Len()),
	)
	return nil
}

func exportSQLite(ctx context.Context, path string, started time.Time, ci transit.ConnectionIndex) error {
	store := &db.DB{}
	if err := store.Open(path); err != nil {
		return err
	}
	defer store.Close()

	return store.WriteIndex(ctx, uuid.New().String(), started, ci)
}
