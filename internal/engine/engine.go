// Package engine implements the classification and decision engine: it
// consumes Signals and a subgenre Classification and turns a prioritized
// rule catalog into a ConstraintSet plus a risk-weighted confidence score.
// The engine never touches presets or DSP parameters directly; it only
// emits named constraints with reasons for a caller to honor or override.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/logging"
	"github.com/tphakala/audioqa/internal/model"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("engine")
	if logger == nil {
		logger = slog.Default().With("service", "engine")
	}
}

// Context is the evaluation context a rule's Condition and Action see. It
// is assembled once per asset and passed by value to every rule.
type Context struct {
	Asset          model.AudioAsset
	Signals        model.Signals
	Risks          model.Risks
	Classification model.Classification
}

// Rule is a single classification/decision rule. Condition decides whether
// the rule fires; Action, called only when it does, produces the
// constraint it wants to contribute. Priority breaks ties across
// categories: higher fires first. Overrideable flows straight into the
// resulting ConstraintValue and is contractually binding when false.
type Rule struct {
	ID           string
	Category     string
	Priority     int
	Overrideable bool
	Condition    func(ctx Context) bool
	Action       func(ctx Context) model.RuleResult
}

// Decision records one rule's evaluation outcome, whether or not it ended
// up winning its constraint slot.
type Decision struct {
	RuleID  string
	Fired   bool
	Applied bool
	Result  model.RuleResult
	Err     error
}

// Engine holds the flattened, priority-sorted rule catalog.
type Engine struct {
	rules []Rule
}

// New flattens the given category groups into a single rule list sorted by
// priority descending. Category membership is preserved on each Rule for
// diagnostics; evaluation order depends only on Priority.
func New(categories ...[]Rule) *Engine {
	var rules []Rule
	for _, c := range categories {
		rules = append(rules, c...)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return &Engine{rules: rules}
}

// Evaluate runs every rule in priority order against ctx. For each rule
// whose condition holds, it records a Decision and attempts to apply the
// resulting constraint to cs via first-writer-wins. A rule whose Condition
// or Action panics is caught, logged, and skipped: one bad rule never
// aborts evaluation of the rest.
func (e *Engine) Evaluate(ctx Context, cs model.ConstraintSet) []Decision {
	decisions := make([]Decision, 0, len(e.rules))
	for _, rule := range e.rules {
		decisions = append(decisions, e.evaluateOne(rule, ctx, cs))
	}
	return decisions
}

func (e *Engine) evaluateOne(rule Rule, ctx Context, cs model.ConstraintSet) (d Decision) {
	d.RuleID = rule.ID
	defer func() {
		if r := recover(); r != nil {
			d.Err = errors.Newf("rule panicked: %v", r).
				Component("engine").
				Category(errors.CategoryProcessing).
				Context("rule_id", rule.ID).
				Context("category", rule.Category).
				Build()
			logger.Error("rule evaluation panicked, skipping", "rule_id", rule.ID, "category", rule.Category, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if !rule.Condition(ctx) {
		return d
	}
	d.Fired = true
	d.Result = rule.Action(ctx)
	d.Applied = cs.Apply(d.Result)
	if !d.Applied {
		logger.Debug("rule fired but constraint already set", "rule_id", rule.ID, "constraint", d.Result.ConstraintName)
	}
	return d
}

// RiskWeights is a per-risk-kind weight vector. Weights need not sum to 1;
// calculateWeightedConfidence normalizes against their sum.
type RiskWeights struct {
	Masking              float64
	Clipping             float64
	Translation          float64
	PhaseCollapse        float64
	OverCompression      float64
	VocalIntelligibility float64
	Artifact             float64
	LofiAesthetic        float64
}

// defaultRiskWeights is used for a subgenre with no entry in the weight
// table: every risk kind weighted equally.
var defaultRiskWeights = RiskWeights{
	Masking:              1,
	Clipping:             1,
	Translation:          1,
	PhaseCollapse:        1,
	OverCompression:      1,
	VocalIntelligibility: 1,
	Artifact:             1,
	LofiAesthetic:        1,
}

// RiskWeightTable maps subgenre to its risk weight vector. It is the
// engine's sole external-data seam for weighting: populated from the
// classification's heuristics source, not hard-coded per subgenre in code.
type RiskWeightTable map[model.Subgenre]RiskWeights

// GetRiskWeights returns the weight vector for classification's primary
// subgenre, falling back to equal weighting when the subgenre has no
// entry (including the zero-value empty table).
func (t RiskWeightTable) GetRiskWeights(classification model.Classification) RiskWeights {
	if w, ok := t[classification.Primary]; ok {
		return w
	}
	return defaultRiskWeights
}

// WeightedConfidence is the output of calculateWeightedConfidence: the
// risks as received (weighting does not rescale individual risk values,
// only their contribution to the aggregate), the weighted aggregate, and
// a derived confidence.
type WeightedConfidence struct {
	WeightedRisks model.Risks
	AggregateRisk float64
	Confidence    float64
}

// CalculateWeightedConfidence computes a single weighted aggregate risk
// from baseRisks and weights, then derives confidence = 1 - aggregateRisk,
// clamped to [0, 1]. The aggregate is a weight-normalized mean so that an
// all-equal-weights table reduces to a plain average of the eight risks.
func CalculateWeightedConfidence(baseRisks model.Risks, weights RiskWeights) WeightedConfidence {
	type pair struct {
		value  float64
		weight float64
	}
	pairs := []pair{
		{baseRisks.MaskingRisk, weights.Masking},
		{baseRisks.ClippingRisk, weights.Clipping},
		{baseRisks.TranslationRisk, weights.Translation},
		{baseRisks.PhaseCollapseRisk, weights.PhaseCollapse},
		{baseRisks.OverCompressionRisk, weights.OverCompression},
		{baseRisks.VocalIntelligibilityRisk, weights.VocalIntelligibility},
		{baseRisks.ArtifactRisk, weights.Artifact},
		{baseRisks.LofiAestheticRisk, weights.LofiAesthetic},
	}

	var weightedSum, weightSum float64
	for _, p := range pairs {
		weightedSum += p.value * p.weight
		weightSum += p.weight
	}

	var aggregate float64
	if weightSum > 0 {
		aggregate = weightedSum / weightSum
	}

	confidence := 1 - aggregate
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return WeightedConfidence{
		WeightedRisks: baseRisks,
		AggregateRisk: aggregate,
		Confidence:    confidence,
	}
}
