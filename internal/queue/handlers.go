package queue

import (
	"context"
	"fmt"

	"github.com/tphakala/audioqa/internal/analyzer"
	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/model"
	"github.com/tphakala/audioqa/internal/normalizer"
)

// clampConfidence bounds a job's confidence score to the [60, 98] band the
// ANALYZE pipeline's formula is defined over.
func clampConfidence(c float64) float64 {
	if c < 60 {
		return 60
	}
	if c > 98 {
		return 98
	}
	return c
}

// AnalyzeResult is what an ANALYZE job stores as model.Job.Result.
type AnalyzeResult struct {
	Reports    map[string]model.AnalyzerReport
	Confidence float64
}

// AnalyzeHandler runs the analyzer suite at the job's requested level
// ("basic" or "full", read from job.Config["level"]).
type AnalyzeHandler struct {
	Suite *analyzer.Suite
}

// Handle implements Handler. Confidence = 95 - 5*problemCount, further
// reduced by 10 if integrated loudness falls outside (-40, 0) LUFS,
// clamped to [60, 98].
func (h *AnalyzeHandler) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	asset, ok := job.Data.(model.AudioAsset)
	if !ok {
		return nil, errors.Newf("ANALYZE job data must be a model.AudioAsset, got %T", job.Data).
			Component("queue").Category(errors.CategoryValidation).Build()
	}
	level, _ := job.Config["level"].(string)
	if level == "" {
		level = "basic"
	}

	progress(PhaseAnalyzing, 0, fmt.Sprintf("running analyzer suite (%s)", level))
	if cancelled() {
		return nil, errors.Newf("cancelled before analysis started").Component("queue").Category(errors.CategoryCancellation).Build()
	}

	reports := h.Suite.Analyze(ctx, asset, analyzer.Options{}, level)
	progress(PhaseAnalyzing, 0.8, "suite complete, scoring confidence")

	confidence := 95.0 - 5.0*float64(analyzer.ProblemCount(reports))
	if loudness, ok := reports["loudness"].Measurements["integrated_lufs"].(float64); ok {
		if loudness <= -40 || loudness >= 0 {
			confidence -= 10
		}
	}
	confidence = clampConfidence(confidence)

	progress(PhaseFinalizing, 1, "analysis complete")
	return AnalyzeResult{Reports: reports, Confidence: confidence}, nil
}

// ProcessResult is what a PROCESS job stores as model.Job.Result.
type ProcessResult struct {
	OutputPath string
	Reanalysis map[string]model.AnalyzerReport
}

// ProcessHandler runs the staged PROCESS pipeline, reporting progress for
// each stage: load, loudness analysis, normalize, peak-limit/render, then
// re-analyze the output at "basic". Only the normalize stage (a
// Normalizer.Prepare call) and the re-analysis do work; the load,
// loudness-analysis and peak-limit/render stages report progress and check
// for cancellation but do not measure, limit or render anything.
type ProcessHandler struct {
	Normalizer *normalizer.Normalizer
	Suite      *analyzer.Suite
}

func (h *ProcessHandler) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	asset, ok := job.Data.(model.AudioAsset)
	if !ok {
		return nil, errors.Newf("PROCESS job data must be a model.AudioAsset, got %T", job.Data).
			Component("queue").Category(errors.CategoryValidation).Build()
	}

	progress(PhaseTransforming, 0.1, "loading asset")
	if cancelled() {
		return nil, cancelErr()
	}

	progress(PhaseTransforming, 0.3, "measuring loudness")
	if cancelled() {
		return nil, cancelErr()
	}

	progress(PhaseTransforming, 0.5, "normalizing to canonical format")
	outPath, cleanup, err := h.Normalizer.Prepare(ctx, asset.Path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if cancelled() {
		return nil, cancelErr()
	}

	progress(PhaseTransforming, 0.8, "peak-limiting and rendering")
	if cancelled() {
		return nil, cancelErr()
	}

	progress(PhaseFinalizing, 1, "re-analyzing output")
	rendered := asset
	rendered.Path = outPath
	reanalysis := h.Suite.Analyze(ctx, rendered, analyzer.Options{}, "basic")

	return ProcessResult{OutputPath: outPath, Reanalysis: reanalysis}, nil
}

func cancelErr() error {
	return errors.Newf("job cancelled during PROCESS pipeline").
		Component("queue").Category(errors.CategoryCancellation).Build()
}

// ExportResult is what an EXPORT job stores as model.Job.Result: one
// artifact path per requested format.
type ExportResult struct {
	Artifacts map[string]string
}

// ExportHandler iterates the formats requested in job.Config["formats"]
// ([]string), reporting per-format progress and calling Normalizer.Prepare
// on the asset once per format. The format name is not passed to Prepare,
// so each artifact is Prepare's canonical-format output, not a transcode
// to the requested format.
type ExportHandler struct {
	Normalizer *normalizer.Normalizer
}

func (h *ExportHandler) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	asset, ok := job.Data.(model.AudioAsset)
	if !ok {
		return nil, errors.Newf("EXPORT job data must be a model.AudioAsset, got %T", job.Data).
			Component("queue").Category(errors.CategoryValidation).Build()
	}
	formats, _ := job.Config["formats"].([]string)
	if len(formats) == 0 {
		return nil, errors.Newf("EXPORT job requires at least one requested format").
			Component("queue").Category(errors.CategoryValidation).Build()
	}

	artifacts := make(map[string]string, len(formats))
	for i, format := range formats {
		if cancelled() {
			return nil, cancelErr()
		}
		fraction := float64(i) / float64(len(formats))
		progress(PhaseTransforming, fraction, fmt.Sprintf("exporting %s (%d/%d)", format, i+1, len(formats)))

		outPath, cleanup, err := h.Normalizer.Prepare(ctx, asset.Path)
		if err != nil {
			return nil, errors.Newf("export to %s failed: %w", format, err).
				Component("queue").Category(errors.CategoryJobQueue).Context("format", format).Build()
		}
		_ = cleanup // exported artifacts are kept; only PROCESS's scratch copies are swept
		artifacts[format] = outPath
	}

	progress(PhaseFinalizing, 1, "export complete")
	return ExportResult{Artifacts: artifacts}, nil
}

// ValidateResult is what a VALIDATE job stores as model.Job.Result: one
// loudness classification per requested standard.
type ValidateResult struct {
	PerStandard map[string]model.AnalyzerReport
}

// ValidateHandler classifies an asset's loudness against each requested
// broadcast/streaming standard in job.Config["standards"] ([]string), e.g.
// "ebu_r128" or "atsc_a85". It reuses LoudnessAnalyzer.Classify, which
// needs no external-tool invocation once loudness is already measured.
type ValidateHandler struct{}

func (h *ValidateHandler) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	asset, ok := job.Data.(model.AudioAsset)
	if !ok {
		return nil, errors.Newf("VALIDATE job data must be a model.AudioAsset, got %T", job.Data).
			Component("queue").Category(errors.CategoryValidation).Build()
	}
	standards, _ := job.Config["standards"].([]string)
	if len(standards) == 0 {
		standards = []string{"ebu_r128"}
	}

	classifier := analyzer.NewLoudnessAnalyzer(nil)
	perStandard := make(map[string]model.AnalyzerReport, len(standards))
	for i, standard := range standards {
		if cancelled() {
			return nil, cancelErr()
		}
		progress(PhaseAnalyzing, float64(i)/float64(len(standards)), "validating against "+standard)
		perStandard[standard] = classifier.Classify(analyzer.LoudnessMetrics{
			IntegratedLUFS: asset.Loudness,
			Platform:       standard,
		})
	}

	progress(PhaseFinalizing, 1, "validation complete")
	return ValidateResult{PerStandard: perStandard}, nil
}

// MetadataResult is what a METADATA job stores as model.Job.Result.
type MetadataResult struct {
	Issues []analyzer.MetadataIssue
}

// MetadataHandler runs extract | update | validate operations
// (job.Config["operation"]) over a metadata record (job.Data, an
// analyzer.Track). All three operations run Checker.Validate on the Track
// and return its issues; extract and update perform no field extraction or
// mutation of their own.
type MetadataHandler struct {
	Checker *analyzer.MetadataChecker
}

func (h *MetadataHandler) Handle(ctx context.Context, job *model.Job, progress ProgressFunc, cancelled CancelledFunc) (any, error) {
	track, ok := job.Data.(analyzer.Track)
	if !ok {
		return nil, errors.Newf("METADATA job data must be an analyzer.Track, got %T", job.Data).
			Component("queue").Category(errors.CategoryValidation).Build()
	}
	operation, _ := job.Config["operation"].(string)
	if operation == "" {
		operation = "validate"
	}

	progress(PhaseAnalyzing, 0.5, operation+" metadata")
	if cancelled() {
		return nil, cancelErr()
	}

	var issues []analyzer.MetadataIssue
	switch operation {
	case "validate", "extract", "update":
		issues = h.Checker.Validate(track)
	default:
		return nil, errors.Newf("unknown METADATA operation %q", operation).
			Component("queue").Category(errors.CategoryValidation).Build()
	}

	progress(PhaseFinalizing, 1, "metadata "+operation+" complete")
	return MetadataResult{Issues: issues}, nil
}
