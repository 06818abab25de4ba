// Command catalogvalidate recursively analyzes a music catalog with the
// analyzer suite and subgenre classifier, optionally checking the results
// against a ground-truth map, and writes a JSON summary plus a full
// per-file companion report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/audioqa/internal/analyzer"
	"github.com/tphakala/audioqa/internal/analyzer/subgenre"
	"github.com/tphakala/audioqa/internal/catalog"
	"github.com/tphakala/audioqa/internal/conf"
	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/normalizer"
)

type flags struct {
	catalogPath string
	groundTruth string
	output      string
	sample      int
	parallel    int
	verbose     bool
}

func main() {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "catalogvalidate",
		Short: "Batch-analyze a catalog directory and report subgenre classification accuracy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := setupFlags(cmd, f); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command, f *flags) error {
	cmd.Flags().StringVar(&f.catalogPath, "catalog", "", "path to the catalog directory to scan (required)")
	cmd.Flags().StringVar(&f.groundTruth, "ground-truth", "", "path to a JSON ground-truth map (filename -> {subgenre, confidence})")
	cmd.Flags().StringVar(&f.output, "output", "catalog-report.json", "path to write the summary JSON report")
	cmd.Flags().IntVar(&f.sample, "sample", 0, "number of files to sample at random, 0 means validate every file")
	cmd.Flags().IntVar(&f.parallel, "parallel", 0, "worker count for batch processing, 0 uses the configured default")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.MarkFlagRequired("catalog"); err != nil {
		return fmt.Errorf("marking --catalog required: %w", err)
	}
	return viper.BindPFlags(cmd.Flags())
}

func run(f *flags) error {
	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init()
	if f.verbose {
		logging.SetLevel(slog.LevelDebug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		fmt.Println("\nreceived interrupt, shutting down")
		cancel()
	}()
	defer signal.Stop(sigChan)

	var truth catalog.GroundTruth
	if f.groundTruth != "" {
		truth, err = catalog.LoadGroundTruth(f.groundTruth)
		if err != nil {
			return fmt.Errorf("loading ground truth: %w", err)
		}
	}

	inv := invoker.New(settings)
	norm := normalizer.New(settings, inv)

	heuristicsPath := settings.Analyzer.SubgenreHeuristicsPath
	if heuristicsPath == "" {
		return fmt.Errorf("analyzer.subgenreHeuristicsPath is not configured")
	}
	table, err := subgenre.Load(heuristicsPath)
	if err != nil {
		return fmt.Errorf("loading subgenre heuristics: %w", err)
	}

	parallel := f.parallel
	if parallel <= 0 {
		parallel = settings.Catalog.Parallel
	}

	validator := catalog.NewValidator(norm, analyzer.DefaultSuite(inv), table, parallel)

	summary, results, err := validator.Run(ctx, f.catalogPath, truth, f.sample)
	if err != nil {
		return fmt.Errorf("running catalog validation: %w", err)
	}

	if err := catalog.WriteReports(f.output, summary, results); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Printf("validated %d of %d files (%d failed), overall exact-match accuracy %.1f%%\n",
		summary.Sampled, summary.TotalFiles, summary.Failed, summary.OverallAccuracy.ExactRate()*100)
	return nil
}
