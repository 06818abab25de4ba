package catalog

import (
	"context"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/audioqa/internal/analyzer"
	"github.com/tphakala/audioqa/internal/analyzer/subgenre"
	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/normalizer"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("catalog")
	if logger == nil {
		logger = slog.Default().With("service", "catalog")
	}
}

// batchSize is how many files are grouped into one fully-parallel batch;
// spec.md 4.I fixes this at 50 regardless of the resolved worker count,
// which only bounds how many of a batch's files run concurrently.
const batchSize = 50

// Validator runs the catalog validator's scan -> sample -> batched
// analyze+classify -> aggregate workflow.
type Validator struct {
	Norm     *normalizer.Normalizer
	Suite    *analyzer.Suite
	Table    *subgenre.Table
	Parallel int
}

// NewValidator builds a Validator. parallel <= 0 defaults to 4.
func NewValidator(norm *normalizer.Normalizer, suite *analyzer.Suite, table *subgenre.Table, parallel int) *Validator {
	if parallel <= 0 {
		parallel = 4
	}
	return &Validator{Norm: norm, Suite: suite, Table: table, Parallel: parallel}
}

// Run scans catalogDir, optionally samples sampleN files, and processes
// the result in batches of 50, each batch's files run with concurrency
// bounded by Parallel. It returns the aggregate summary and every file's
// individual result; a per-file failure is recorded in that file's
// FileResult.Error and never aborts the run.
func (v *Validator) Run(ctx context.Context, catalogDir string, truth GroundTruth, sampleN int) (Summary, []FileResult, error) {
	files, err := Scan(catalogDir)
	if err != nil {
		return Summary{}, nil, err
	}
	totalFiles := len(files)

	sampled := Sample(files, sampleN)
	logger.Info("catalog scan complete", "total_files", totalFiles, "sampled", len(sampled))

	results := make([]FileResult, 0, len(sampled))
	for start := 0; start < len(sampled); start += batchSize {
		end := start + batchSize
		if end > len(sampled) {
			end = len(sampled)
		}
		batch := sampled[start:end]

		batchResults, err := v.runBatch(ctx, batch, truth)
		if err != nil {
			return Summary{}, nil, err
		}
		results = append(results, batchResults...)

		logger.Debug("catalog batch complete", "processed", len(results), "of", len(sampled))
	}

	summary := Aggregate(catalogDir, totalFiles, len(sampled), results)
	return summary, results, nil
}

// runBatch processes one batch's files concurrently, bounded by
// Validator.Parallel. Only a context cancellation aborts the batch early;
// every other per-file failure is captured in that file's own result.
func (v *Validator) runBatch(ctx context.Context, batch []string, truth GroundTruth) ([]FileResult, error) {
	results := make([]FileResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.Parallel)
	for i, path := range batch {
		i, path := i, path
		g.Go(func() error {
			results[i] = v.processFile(gctx, path, truth)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processFile runs the full analyze + classify + ground-truth-compare
// pipeline for one file, absorbing any failure into the returned
// FileResult rather than propagating it.
func (v *Validator) processFile(ctx context.Context, path string, truth GroundTruth) FileResult {
	asset, err := loadAsset(ctx, v.Norm, path)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}

	reports := v.Suite.Analyze(ctx, asset, analyzer.Options{}, "full")
	signals := BuildSignals(reports)
	classification := v.Table.Classify(signals)

	result := FileResult{
		Path:           path,
		Classification: classification,
		Reports:        reports,
		ProblemCount:   analyzer.ProblemCount(reports),
	}

	if truth != nil {
		if entry, ok := truth[filepath.Base(path)]; ok {
			result.compareGroundTruth(entry)
		}
	}

	return result
}
