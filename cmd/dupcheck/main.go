// dupcheck measures code duplication in a source tree and gates on a
// maximum allowed percentage. Exit codes: 0 when the gate passes, 1 when
// duplication exceeds the threshold, 2 on internal errors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/adlimen/dupcheck/internal/output"
	"github.com/adlimen/dupcheck/internal/progress"
	"github.com/adlimen/dupcheck/internal/scanner"
	"github.com/adlimen/dupcheck/pkg/analyzer/duplication"
	"github.com/adlimen/dupcheck/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	app := &cli.App{
		Name:    "dupcheck",
		Usage:   "Code duplication quality gate",
		Version: version,
		Description: `Dupcheck fingerprints function, class, and method definitions (or raw
source lines) across a directory tree, measures how much of the code is
duplicated, and fails when the percentage exceeds a configured maximum.

Supports: Go, Rust, Python, TypeScript, JavaScript, Java, C, C++, C#, Ruby, PHP, Bash`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DUPCHECK_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the JSON report to file",
			},
			&cli.StringFlag{
				Name:    "source-dir",
				Aliases: []string{"s"},
				Usage:   "Directory to analyze",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Detection mode: structural, line",
			},
			&cli.IntFlag{
				Name:  "min-lines",
				Usage: "Minimum lines for a structural code unit",
			},
			&cli.IntFlag{
				Name:  "min-chars",
				Usage: "Minimum trimmed line length in line mode",
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Maximum allowed duplication percentage",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Additional ignore patterns",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of top duplications shown in verbose mode",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Show top duplications and per-file warnings",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress all output, exit code only",
			},
		},
		Action: runCheck,
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(2)
	}
}

func runCheck(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scan := scanner.New(cfg)
	files, err := scan.ScanDir(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cfg.SourceDir, err)
	}

	quiet := cfg.Output.Quiet || output.ParseFormat(cfg.Output.Format) != output.FormatText

	tracker := progress.NewTracker("Checking duplication...", len(files), quiet)
	analyzer := duplication.New(duplication.WithConfig(cfg))
	analysis, err := analyzer.AnalyzeWithProgress(ctx, files, tracker.Tick)
	tracker.Finish()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if cfg.Output.ReportFile != "" {
		if err := writeReport(cfg.Output.ReportFile, analysis); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if err := render(cfg, analysis); err != nil {
		return err
	}

	if !analysis.WithinThreshold() {
		return cli.Exit("", 1)
	}
	return nil
}

// loadConfig reads the file named by --config, or searches the working
// directory for a dupcheck config file.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// applyOverrides layers explicitly set CLI flags over the file config.
func applyOverrides(cfg *config.Config, c *cli.Context) {
	if c.IsSet("source-dir") {
		cfg.SourceDir = c.String("source-dir")
	}
	if c.IsSet("mode") {
		cfg.Analysis.Mode = c.String("mode")
	}
	if c.IsSet("min-lines") {
		cfg.Thresholds.MinLines = c.Int("min-lines")
	}
	if c.IsSet("min-chars") {
		cfg.Analysis.MinChars = c.Int("min-chars")
	}
	if c.IsSet("threshold") {
		cfg.Thresholds.MaxPercentage = c.Float64("threshold")
	}
	if c.IsSet("ignore") {
		cfg.Ignore.Patterns = append(cfg.Ignore.Patterns, c.StringSlice("ignore")...)
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output.ReportFile = c.String("output")
	}
	if c.IsSet("top") {
		cfg.Output.Top = c.Int("top")
	}
	if c.IsSet("verbose") {
		cfg.Output.Verbose = c.Bool("verbose")
	}
	if c.IsSet("quiet") {
		cfg.Output.Quiet = c.Bool("quiet")
	}
}
