package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rmrobinson/timetables/services/transit/config"
	"github.com/rmrobinson/timetables/services/transit/timetable"
	"github.com/spf13/pflag"
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
	case errors.Is(err, errUsage), errors.Is(err, timetable.ErrMissingInput), errors.Is(err, timetable.ErrInvalidMode):
		return exitUsage
	default:
		return exitError
	}
}

func usage(fs *pflag.FlagSet, name string) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [path-to-out.json]\n\n", name)
	fmt.Fprintln(os.Stderr, "Renders the timetable pages for a connection index.")
	fmt.Fprintf(os.Stderr, "The index is read from the argument, $%s, or the first of %v that exists.\n\n",
		config.OutJSONEnvVar, timetable.DefaultInputPaths)
	fs.PrintDefaults()
}

func main() {
	err := run(os.Args[0], os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, pflag.ErrHelp) && !errors.Is(err, timetable.ErrMissingInput) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitStatus(err))
}

func run(name string, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
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

	input := timetable.ResolveInputPath(fs.Arg(0), cfg.OutJSON)
	ci, err := timetable.LoadIndex(input)
	if errors.Is(err, timetable.ErrMissingInput) {
		fmt.Fprintf(os.Stderr, "Missing out.json: %s\n", input)
		usage(fs, name)
		return err
	} else if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("%w: %s", errUsage, err)
	}

	r, err := timetable.NewRenderer(logger, timetable.RenderConfig{
		OutDir:     cfg.OutDir,
		WindowDays: cfg.WindowDays,
		Location:   loc,
		Mode:       timetable.Mode(cfg.Mode),
	})
	if err != nil {
		return err
	}

	pages, err := r.Render(ci)
	if err != nil {
		return fmt.Errorf("rendering to %s: %w", cfg.OutDir, err)
	}

	fmt.Fprintf(stdout, "Wrote %d route pages to %s\n", len(pages), cfg.OutDir)
	return nil
}
