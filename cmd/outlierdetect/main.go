// Command outlierdetect fits forecast models over csv time series and flags observed values that
// fall outside the forecast uncertainty interval.
//
// Usage:
//
//	outlierdetect [-config file] [-log-level level] [-log-format json|text] [-profile cpu|mem] <command> [flags]
//
// Commands:
//
//	fit       fit a model over the input series and save it to the model directory
//	detect    score the input series with a saved model, or fit one first
//	plot      render an html chart of the fit or of a detection
//	simulate  write a synthetic series with injected spikes
//	watch     re-run detect whenever the config or input file changes
//	runs      list stored detection runs or print the points of one run
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/go-outlier/internal/config"
	"github.com/pkg/profile"
)

var ErrUnknownCommand = errors.New("unknown command")

// env is shared by every command
type env struct {
	cfg        *config.Config
	configPath string
	stdout     io.Writer
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"fit", "fit a model over the input series and save it to the model directory", runFit},
	{"detect", "score the input series with a saved model, or fit one first", runDetect},
	{"plot", "render an html chart of the fit or of a detection", runPlot},
	{"simulate", "write a synthetic series with injected spikes", runSimulate},
	{"watch", "re-run detect whenever the config or input file changes", runWatch},
	{"runs", "list stored detection runs or print the points of one run", runRuns},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		slog.Error("outlierdetect failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("outlierdetect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to yaml config file")
	logLevel := fs.String("log-level", "", "log level override: debug, info, warn or error")
	logFormat := fs.String("log-format", "", "log format override: json or text")
	profileMode := fs.String("profile", "", "write a cpu or mem profile to the working directory")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: outlierdetect [flags] <command> [command flags]")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\ncommands:")
		for _, c := range commands {
			fmt.Fprintf(fs.Output(), "  %-9s %s\n", c.name, c.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("no command given, %w", ErrUnknownCommand)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *profileMode)
	}

	name := fs.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		e := &env{cfg: cfg, configPath: *configPath, stdout: stdout}
		return c.run(ctx, e, fs.Args()[1:])
	}
	fs.Usage()
	return fmt.Errorf("%q, %w", name, ErrUnknownCommand)
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("unable to parse log level, %w", err)
	}
	hOpt := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.FormatText {
		return slog.New(slog.NewTextHandler(w, hOpt)), nil
	}
	return slog.New(slog.NewJSONHandler(w, hOpt)), nil
}
