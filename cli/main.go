// Package main is the entry point for the histscan CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/nox-hq/histscan/core"
	"github.com/nox-hq/histscan/core/discovery"
	"github.com/nox-hq/histscan/core/report"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the raw flag values of the root command.
type options struct {
	json       bool
	ignoreFile string
	configPath string
	color      string
	verbose    bool
	watch      bool
	debounce   time.Duration
}

// settings is the effective configuration after flags are merged over the
// config file.
type settings struct {
	format     string
	color      string
	ignoreFile string
	exclude    []string
	level      slog.Level
}

// run executes the CLI and returns the exit code.
// 0 = scan completed (with or without findings), 1 = error.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "histscan [flags] <repository>",
		Short: "Search the git history of a repository for high-entropy secrets",
		Long: `histscan clones a repository, walks every remote branch and reports
strings in committed diffs that look like keys or tokens.

The repository may be any URL or path git can clone from.`,
		Args:          cobra.ExactArgs(1),
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), args[0], opts, cmd.Flags(), stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("histscan {{.Version}}\n")

	f := cmd.Flags()
	f.BoolVar(&opts.json, "json", false, "output findings as JSON Lines")
	f.StringVar(&opts.ignoreFile, "ignore-file", discovery.DefaultIgnoreFile, "file of path globs to skip, one per line")
	f.StringVar(&opts.configPath, "config", core.DefaultConfigFile, "path to the YAML config file")
	f.StringVar(&opts.color, "color", core.ColorAuto, "colorize text output: auto, always or never")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVar(&opts.watch, "watch", false, "rescan whenever the refs of a local repository change")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for --watch")

	return cmd
}

func execute(ctx context.Context, target string, opts options, flags *pflag.FlagSet, stdout, stderr io.Writer) error {
	cfg, err := core.LoadScanConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := resolveSettings(opts, flags, cfg)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: s.level}))

	patterns, err := discovery.LoadIgnoreFile(s.ignoreFile)
	if err != nil {
		return fmt.Errorf("loading ignore file: %w", err)
	}
	patterns = append(patterns, s.exclude...)
	filter := discovery.NewPathFilter(patterns)
	logger.Debug("path filter loaded", "file", s.ignoreFile, "patterns", filter.Len())

	var reporter report.Reporter
	if s.format == core.FormatJSON {
		reporter = report.NewJSONReporter(stdout)
	} else {
		reporter = report.NewTextReporter(stdout, useColor(s.color, stdout))
	}

	scanOpts := []core.ScannerOption{
		core.WithFilter(filter),
		core.WithLogger(logger),
	}
	scan := func(ctx context.Context) error {
		_, err := core.RunScan(ctx, target, reporter, scanOpts...)
		return err
	}

	if opts.watch {
		return watch(ctx, target, opts.debounce, logger, scan)
	}
	return scan(ctx)
}

// resolveSettings merges explicitly set flags over cfg. Values from cfg
// apply only where the corresponding flag was left at its default.
func resolveSettings(opts options, flags *pflag.FlagSet, cfg *core.ScanConfig) (settings, error) {
	s := settings{
		format:     core.FormatText,
		color:      opts.color,
		ignoreFile: opts.ignoreFile,
		exclude:    cfg.Scan.Exclude,
		level:      slog.LevelInfo,
	}

	switch {
	case flags.Changed("json"):
		if opts.json {
			s.format = core.FormatJSON
		}
	case cfg.Output.Format != "":
		s.format = cfg.Output.Format
	}

	if !flags.Changed("color") && cfg.Output.Color != "" {
		s.color = cfg.Output.Color
	}
	switch s.color {
	case core.ColorAuto, core.ColorAlways, core.ColorNever:
	default:
		return settings{}, fmt.Errorf("invalid --color %q: want auto, always or never", s.color)
	}

	if !flags.Changed("ignore-file") && cfg.Scan.IgnoreFile != "" {
		s.ignoreFile = cfg.Scan.IgnoreFile
	}

	if opts.verbose {
		s.level = slog.LevelDebug
	} else if cfg.Log.Level != "" {
		if err := s.level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return settings{}, fmt.Errorf("log level: %w", err)
		}
	}

	return s, nil
}

// useColor decides whether text output written to w is colorized.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case core.ColorAlways:
		return true
	case core.ColorNever:
		return false
	}
	return isTerminal(w)
}

// isTerminal returns true if w is a file connected to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
