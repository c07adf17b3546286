package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rmrobinson/timetables/services/transit/api"
	"github.com/rmrobinson/timetables/services/transit/config"
	"github.com/rmrobinson/timetables/services/transit/db"
	"github.com/rmrobinson/timetables/services/transit/metrics"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.String("schedule", "", "cron schedule of the rebuilds, in the configured timezone")
	fs.String("http-addr", "", "address the site is served on")
	dumpConfig := fs.Bool("dump-config", false, "print the effective configuration and exit")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *dumpConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("unable to load timezone",
			zap.String("timezone", cfg.Timezone),
			zap.Error(err),
		)
	}

	collector := metrics.NewCollector(cfg.WindowDays)
	events := api.NewEvents(logger)
	builder, err := timetable.NewBuilder(logger, timetable.BuildConfig{
		FeedSource: cfg.Feed,
		StopIDs:    cfg.Stops,
		OutJSON:    cfg.OutJSON,
		SQLitePath: cfg.SQLitePath,
		Render: timetable.RenderConfig{
			OutDir:     cfg.OutDir,
			WindowDays: cfg.WindowDays,
			Location:   loc,
			Mode:       timetable.Mode(cfg.Mode),
		},
	}, timetable.Observers{collector, events})
	if err != nil {
		logger.Fatal("unable to create builder",
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := cron.New(cron.WithLocation(loc))
	_, err = sched.AddFunc(cfg.Schedule, func() {
		if _, err := builder.TryBuild(ctx); errors.Is(err, timetable.ErrBuildInProgress) {
			logger.Info("skipping scheduled build, previous build still running")
			collector.ObserveSkipped(err)
		}
	})
	if err != nil {
		logger.Fatal("invalid schedule",
			zap.String("schedule", cfg.Schedule),
			zap.Error(err),
		)
	}
	sched.Start()

	// A failed first build is retried on schedule; the previous site, if any, keeps being served.
	go builder.Build(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", collector.Handler())
	r.Get("/api/events", events.ServeHTTP)

	if cfg.SQLitePath != "" {
		store := &db.DB{}
		if err := store.Open(cfg.SQLitePath); err != nil {
			logger.Fatal("unable to open sqlite export",
				zap.String("sqlite", cfg.SQLitePath),
				zap.Error(err),
			)
		}
		defer store.Close()
		api.NewHandler(logger, store).Routes(r)
	}

	r.Handle("/*", http.FileServer(http.Dir(cfg.OutDir)))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to serve",
				zap.Error(err),
			)
		}
	}()

	logger.Info("serving timetables",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("out_dir", cfg.OutDir),
		zap.String("schedule", cfg.Schedule),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down http server",
			zap.Error(err),
		)
	}
}
