package engine

import (
	"testing"

	"github.com/tphakala/audioqa/internal/model"
)

func TestEngineEvaluateHigherPriorityWinsSharedConstraint(t *testing.T) {
	low := Rule{
		ID: "low", Category: "test", Priority: 1, Overrideable: true,
		Condition: func(Context) bool { return true },
		Action: func(Context) model.RuleResult {
			return model.RuleResult{RuleID: "low", ConstraintName: "shared", Value: "low-value", Priority: 1}
		},
	}
	high := Rule{
		ID: "high", Category: "test", Priority: 99, Overrideable: false,
		Condition: func(Context) bool { return true },
		Action: func(Context) model.RuleResult {
			return model.RuleResult{RuleID: "high", ConstraintName: "shared", Value: "high-value", Priority: 99}
		},
	}

	e := New([]Rule{low, high})
	cs := model.ConstraintSet{}
	decisions := e.Evaluate(Context{}, cs)

	if got := cs["shared"].Value; got != "high-value" {
		t.Errorf("shared constraint = %v, want %q (higher priority rule must win)", got, "high-value")
	}

	var lowDecision, highDecision Decision
	for _, d := range decisions {
		if d.RuleID == "low" {
			lowDecision = d
		}
		if d.RuleID == "high" {
			highDecision = d
		}
	}
	if !highDecision.Applied {
		t.Errorf("high-priority rule decision Applied = false, want true")
	}
	if lowDecision.Applied {
		t.Errorf("low-priority rule decision Applied = true, want false (constraint already set)")
	}
	if !lowDecision.Fired {
		t.Errorf("low-priority rule decision Fired = false, want true (condition held even though it lost)")
	}
}

func TestEngineEvaluateSkipsRuleWhenConditionFalse(t *testing.T) {
	rule := Rule{
		ID: "never", Priority: 10,
		Condition: func(Context) bool { return false },
		Action: func(Context) model.RuleResult {
			t.Fatal("action must not run when condition is false")
			return model.RuleResult{}
		},
	}
	e := New([]Rule{rule})
	cs := model.ConstraintSet{}
	decisions := e.Evaluate(Context{}, cs)
	if decisions[0].Fired {
		t.Errorf("Fired = true, want false")
	}
	if len(cs) != 0 {
		t.Errorf("ConstraintSet = %v, want empty", cs)
	}
}

func TestEngineEvaluateRecoversPanickingRule(t *testing.T) {
	panicky := Rule{
		ID: "panicky", Priority: 100,
		Condition: func(Context) bool { return true },
		Action: func(Context) model.RuleResult {
			panic("boom")
		},
	}
	survivor := Rule{
		ID: "survivor", Priority: 1,
		Condition: func(Context) bool { return true },
		Action: func(Context) model.RuleResult {
			return model.RuleResult{RuleID: "survivor", ConstraintName: "survived", Value: true}
		},
	}

	e := New([]Rule{panicky, survivor})
	cs := model.ConstraintSet{}
	decisions := e.Evaluate(Context{}, cs)

	var panickyDecision Decision
	for _, d := range decisions {
		if d.RuleID == "panicky" {
			panickyDecision = d
		}
	}
	if panickyDecision.Err == nil {
		t.Errorf("expected Err to be set for the panicking rule")
	}
	if _, ok := cs["survived"]; !ok {
		t.Errorf("expected the later rule to still evaluate and apply its constraint, got %v", cs)
	}
}

func TestNewFlattensAndSortsByPriorityDescending(t *testing.T) {
	a := Rule{ID: "a", Priority: 5}
	b := Rule{ID: "b", Priority: 50}
	c := Rule{ID: "c", Priority: 1}
	e := New([]Rule{a, c}, []Rule{b})
	if len(e.rules) != 3 {
		t.Fatalf("len(rules) = %d, want 3", len(e.rules))
	}
	if e.rules[0].ID != "b" || e.rules[1].ID != "a" || e.rules[2].ID != "c" {
		t.Errorf("rules not sorted by priority descending: %+v", e.rules)
	}
}

func TestGetRiskWeightsFallsBackToDefaultForUnknownSubgenre(t *testing.T) {
	table := RiskWeightTable{}
	got := table.GetRiskWeights(model.Classification{Primary: "unknown-subgenre"})
	if got != defaultRiskWeights {
		t.Errorf("GetRiskWeights = %+v, want %+v", got, defaultRiskWeights)
	}
}

func TestGetRiskWeightsUsesTableEntryWhenPresent(t *testing.T) {
	custom := RiskWeights{Masking: 3}
	table := RiskWeightTable{"techno": custom}
	got := table.GetRiskWeights(model.Classification{Primary: "techno"})
	if got != custom {
		t.Errorf("GetRiskWeights = %+v, want %+v", got, custom)
	}
}

func TestCalculateWeightedConfidenceAllNeutralRisksYieldsMidConfidence(t *testing.T) {
	wc := CalculateWeightedConfidence(model.NewRisks(), defaultRiskWeights)
	if wc.AggregateRisk != 0.3 {
		t.Errorf("AggregateRisk = %v, want 0.3", wc.AggregateRisk)
	}
	if wc.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", wc.Confidence)
	}
}

func TestCalculateWeightedConfidenceClampsToZeroWhenRiskExceedsOne(t *testing.T) {
	risks := model.NewRisks()
	risks.ClippingRisk = 5
	weights := RiskWeights{Clipping: 1}
	wc := CalculateWeightedConfidence(risks, weights)
	if wc.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 (clamped)", wc.Confidence)
	}
}

func TestCalculateWeightedConfidenceZeroWeightSumYieldsZeroAggregate(t *testing.T) {
	risks := model.NewRisks()
	wc := CalculateWeightedConfidence(risks, RiskWeights{})
	if wc.AggregateRisk != 0 {
		t.Errorf("AggregateRisk = %v, want 0 when all weights are zero", wc.AggregateRisk)
	}
	if wc.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", wc.Confidence)
	}
}

func TestCalculateWeightedConfidenceWeightsSkewTowardHeavierRisk(t *testing.T) {
	risks := model.NewRisks()
	risks.ClippingRisk = 1.0
	risks.MaskingRisk = 0.0
	heavyOnClipping := RiskWeights{Clipping: 10, Masking: 1}
	wc := CalculateWeightedConfidence(risks, heavyOnClipping)
	if wc.AggregateRisk <= 0.3 {
		t.Errorf("AggregateRisk = %v, want greater than the unweighted neutral 0.3 since clipping dominates", wc.AggregateRisk)
	}
}
