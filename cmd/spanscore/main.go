// Command spanscore scores system-detected poetry spans against reference
// annotations, as a one-shot CLI or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spanscore/spanscore/internal/bus"
	"github.com/spanscore/spanscore/internal/config"
	"github.com/spanscore/spanscore/internal/corpus"
	"github.com/spanscore/spanscore/internal/evaluation"
	"github.com/spanscore/spanscore/internal/pkg/logger"
	"github.com/spanscore/spanscore/internal/report"
	"github.com/spanscore/spanscore/internal/server"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "spanscore",
		Short: "Span annotation evaluation",
		Long: `spanscore scores system-detected text spans against curated reference
annotations, reporting per-page precision, recall, and match counts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newEvaluateCmd() *cobra.Command {
	var (
		outPath     string
		format      string
		ignoreLabel bool
		weight      float64
		workers     int
		skipMissing bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate REFERENCE_FILE SYSTEM_FILE",
		Short: "Evaluate a system annotation file against a reference file",
		Long: `Evaluate reads two JSON Lines annotation files (optionally gzipped),
scores each reference page against the matching system page, and writes
per-page results plus an overall summary.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			opts := evaluation.Options{
				IgnoreLabel:        cfg.Eval.IgnoreLabel,
				PartialMatchWeight: cfg.Eval.PartialMatchWeight,
				Workers:            cfg.Eval.Workers,
				SkipMissing:        cfg.Eval.SkipMissing,
			}
			// Flags override config only when set explicitly.
			if cmd.Flags().Changed("ignore-label") {
				opts.IgnoreLabel = ignoreLabel
			}
			if cmd.Flags().Changed("partial-match-weight") {
				if weight < 0 {
					return fmt.Errorf("partial match weight must not be negative: %v", weight)
				}
				opts.PartialMatchWeight = weight
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("skip-missing") {
				opts.SkipMissing = skipMissing
			}

			if format != "csv" && format != "jsonl" {
				return fmt.Errorf("unknown output format: %s (must be csv or jsonl)", format)
			}

			return runEvaluate(cmd.Context(), cfg, opts, args[0], args[1], outPath, format)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or jsonl")
	cmd.Flags().BoolVar(&ignoreLabel, "ignore-label", false, "score label-free merged system spans")
	cmd.Flags().Float64Var(&weight, "partial-match-weight", 1, "weight applied to partial-overlap credit")
	cmd.Flags().IntVar(&workers, "workers", 4, "pages evaluated concurrently")
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "skip reference pages absent from system output")

	return cmd
}

func runEvaluate(ctx context.Context, cfg *config.Config, opts evaluation.Options, refPath, sysPath, outPath, format string) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	refPages, err := corpus.ReadReferencePages(refPath)
	if err != nil {
		return err
	}
	sysPages, err := corpus.ReadSystemPages(sysPath)
	if err != nil {
		return err
	}
	log.Info("corpus loaded", "reference_pages", len(refPages), "system_pages", len(sysPages))

	eventBus, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	run, err := evaluation.NewEvaluator(opts, log, eventBus).Run(ctx, refPages, sysPages)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == "jsonl" {
		err = report.WriteJSONL(out, run.Results)
	} else {
		err = report.WriteCSV(out, run.Results)
	}
	if err != nil {
		return err
	}

	// The summary goes to stderr so piped report output stays clean.
	fmt.Fprintln(os.Stderr, report.FormatSummary(run.Summary))
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spanscore %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
