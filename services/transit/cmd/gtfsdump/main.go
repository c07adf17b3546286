package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/config"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func getFeed(logger *zap.Logger, source string) (*gtfs.Dataset, *transit.Feed, error) {
	dataset := gtfs.NewDataset(logger)
	err := dataset.Load(context.Background(), source)
	if err != nil {
		logger.Warn("error loading dataset",
			zap.Error(err),
		)
		return nil, nil, err
	}

	return dataset, transit.NewFeed(logger, dataset), nil
}

func printDataset(ds *gtfs.Dataset) {
	fmt.Printf("Agencies:       %d\n", len(ds.Agencies))
	fmt.Printf("Stops:          %d\n", len(ds.Stops))
	fmt.Printf("Routes:         %d\n", len(ds.Routes))
	fmt.Printf("Trips:          %d\n", len(ds.Trips))
	fmt.Printf("Stop times:     %d\n", len(ds.StopTimes))
	fmt.Printf("Calendar:       %d\n", len(ds.Calendar))
	fmt.Printf("Calendar dates: %d\n", len(ds.CalendarDate))
	if ds.HasTypeMappings {
		fmt.Printf("Type mappings:  %d\n", len(ds.TypeMappings))
	} else {
		fmt.Println("Type mappings:  none")
	}

	var names []string
	for name := range ds.Encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf(" %s decoded as %s\n", name, ds.Encodings[name])
	}
}

func printRoutes(ds *gtfs.Dataset) {
	for _, r := range ds.Routes {
		fmt.Printf("Route %s (%s %s) type %s [%s]\n", r.ID, r.ShortName, r.LongName, string(r.Type), r.Type.String())
	}
}

func printTypedStops(f *transit.Feed) {
	for _, stopID := range f.TypedStopIDs() {
		name, ok := f.StopName(stopID)
		if !ok {
			name = "(not in stops.txt)"
		}
		fmt.Printf("Stop %s (%s) type %d\n", stopID, name, *f.StopType(stopID))
	}
}

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.RegisterFlags(fs)
	from := fs.String("from", "", "origin station name whose connections are dumped")
	to := fs.String("to", "", "destination station name whose connections are dumped")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}

	dataset, feed, err := getFeed(logger, cfg.Feed)
	if err != nil {
		logger.Fatal("cannot run without feed",
			zap.Error(err),
		)
	}

	printDataset(dataset)
	printRoutes(dataset)
	printTypedStops(feed)

	if *from == "" || *to == "" {
		return
	}

	stopIDs, err := feed.StopsOfInterest(append(fs.Args(), cfg.Stops...))
	if err != nil {
		logger.Fatal("unable to pick stops",
			zap.Error(err),
		)
	}

	segments := feed.Connections(stopIDs).Connections(*from, *to)
	fmt.Printf("%d connections from %s to %s\n", len(segments), *from, *to)
	spew.Dump(segments)
}
