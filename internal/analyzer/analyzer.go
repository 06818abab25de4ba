// Package analyzer implements the analyzer suite: nine independent
// measurement analyzers, each turning the external tool's diagnostic output
// into a classified AnalyzerReport. No analyzer calls another; each shares
// only the status-ladder bucketing helper and the invoker/options plumbing.
package analyzer

import (
	"context"
	"log/slog"

	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/model"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("analyzer")
	if logger == nil {
		logger = slog.Default().With("service", "analyzer")
	}
}

// Options configures a single Analyze/QuickCheck invocation.
type Options struct {
	Granularity string // window size selector, meaningful to analyzers that window (e.g. gain-reduction)
}

// Analyzer is implemented by every member of the suite. Analyze runs the
// full measurement and classification pass; QuickCheck is a cheap triage
// pass; Classify turns already-extracted metrics into a partial report
// without touching the external tool, which is what makes rule evaluation
// and golden-fixture tests possible without a subprocess.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error)
	QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error)
}

// neutralReport is returned whenever a required metric is absent: the
// analyzer degrades to confidence zero and its own defined neutral status,
// per the "no parseable metric" invariant.
func neutralReport(status, description string) model.AnalyzerReport {
	return model.AnalyzerReport{
		Status:      status,
		Description: description,
		Confidence:  0,
	}
}
