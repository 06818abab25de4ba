package analyzer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// Suite runs every registered Analyzer against one asset. No analyzer
// result depends on another, so a "full" pass fans every analyzer out
// across its own goroutine; a "basic" pass runs the same analyzers
// sequentially, trading latency for a smaller peak goroutine/CPU footprint
// on cheap triage calls.
type Suite struct {
	analyzers []Analyzer
}

// NewSuite builds a Suite over the given analyzers, keyed internally by
// each analyzer's Name().
func NewSuite(analyzers ...Analyzer) *Suite {
	return &Suite{analyzers: analyzers}
}

// DefaultSuite wires every concrete analyzer in the package against a
// shared invoker, in the order the analyzers are documented in the suite.
func DefaultSuite(inv *invoker.Invoker) *Suite {
	return NewSuite(
		NewLoudnessAnalyzer(inv),
		NewPeakRiskAnalyzer(inv),
		NewClippingAnalyzer(inv),
		NewClubStressAnalyzer(inv),
		NewGainReductionAnalyzer(inv),
		NewSpectralBalanceAnalyzer(inv),
		NewChannelTopologyAnalyzer(inv),
		NewReplayGainAnalyzer(inv),
	)
}

// Analyze runs every analyzer in the suite against asset. level "full"
// fans the suite out in parallel via an errgroup; any other level
// (including "basic") runs analyzers sequentially. A single analyzer's
// error never aborts the others: it is recorded as that analyzer's own
// neutral report instead, preserving the suite's independence invariant.
func (s *Suite) Analyze(ctx context.Context, asset model.AudioAsset, opts Options, level string) map[string]model.AnalyzerReport {
	reports := make(map[string]model.AnalyzerReport, len(s.analyzers))

	if level != "full" {
		for _, a := range s.analyzers {
			reports[a.Name()] = s.runOne(ctx, a, asset, opts)
		}
		return reports
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range s.analyzers {
		a := a
		g.Go(func() error {
			report := s.runOne(gctx, a, asset, opts)
			mu.Lock()
			reports[a.Name()] = report
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // runOne never returns an error to the group; it absorbs failures per-analyzer
	return reports
}

func (s *Suite) runOne(ctx context.Context, a Analyzer, asset model.AudioAsset, opts Options) model.AnalyzerReport {
	report, err := a.Analyze(ctx, asset, opts)
	if err != nil {
		return neutralReport("ERROR", err.Error())
	}
	return report
}

// goodStatus is the set of each analyzer's lowest-severity bucket: a
// report outside this set counts as a "problem" for confidence scoring.
var goodStatus = map[string]bool{
	"ON_TARGET": true,
	"SAFE":      true,
	"NONE":      true,
	"LOW":       true,
	"BALANCED":  true,
	"MONO":      true,
	"STEREO":    true,
	"UNIFORM":   true,
	"NONE/NONE": true,
	"COMPUTED":  true,
}

// ProblemCount counts reports whose classified status falls outside every
// analyzer's lowest-severity bucket.
func ProblemCount(reports map[string]model.AnalyzerReport) int {
	n := 0
	for _, r := range reports {
		if !goodStatus[r.Status] {
			n++
		}
	}
	return n
}
