package engine

import (
	"testing"

	"github.com/tphakala/audioqa/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestLoudnessHotMasterLimiterFiresOnHotClippingRiskyMaster(t *testing.T) {
	rules := LoudnessRules()
	ctx := Context{
		Asset: model.AudioAsset{Loudness: f64(-5)},
		Risks: model.Risks{ClippingRisk: 0.8},
	}
	for _, r := range rules {
		if r.ID == "loudness.hot-master-limiter" {
			if !r.Condition(ctx) {
				t.Fatalf("expected condition to hold for hot, clipping-risky master")
			}
			result := r.Action(ctx)
			if result.ConstraintName != "limiterThreshold" || result.Overrideable {
				t.Errorf("result = %+v, want non-overrideable limiterThreshold constraint", result)
			}
			return
		}
	}
	t.Fatal("loudness.hot-master-limiter rule not found")
}

func TestLowEndSubbassClubCutRequiresMatchingSubgenre(t *testing.T) {
	rules := LowEndRules()
	var rule Rule
	for _, r := range rules {
		if r.ID == "lowend.subbass-club-cut" {
			rule = r
		}
	}
	high := Context{
		Signals:        model.Signals{SubBassEnergy: f64(0.9)},
		Classification: model.Classification{Primary: "techno"},
	}
	if !rule.Condition(high) {
		t.Errorf("expected condition to hold for techno with high sub-bass energy")
	}
	other := Context{
		Signals:        model.Signals{SubBassEnergy: f64(0.9)},
		Classification: model.Classification{Primary: "ambient"},
	}
	if rule.Condition(other) {
		t.Errorf("expected condition to NOT hold for a subgenre outside the club-system set")
	}
}

func TestUncertaintyConservativeFallbackFiresOnConflictingSignals(t *testing.T) {
	rules := UncertaintyRules()
	rule := rules[0]
	ctx := Context{Classification: model.Classification{ConflictingSignals: true}}
	if !rule.Condition(ctx) {
		t.Errorf("expected condition to hold when ConflictingSignals is true")
	}
	result := rule.Action(ctx)
	if result.Overrideable {
		t.Errorf("conservative fallback must be non-overrideable, got Overrideable=true")
	}
}

func TestSigReturnsFalseForNilPointer(t *testing.T) {
	if _, ok := sig(nil); ok {
		t.Errorf("sig(nil) ok = true, want false")
	}
	v, ok := sig(f64(0.5))
	if !ok || v != 0.5 {
		t.Errorf("sig(0.5) = (%v, %v), want (0.5, true)", v, ok)
	}
}

func TestAllCategoriesFlattenIntoNonEmptyEngine(t *testing.T) {
	e := New(AllCategories()...)
	if len(e.rules) == 0 {
		t.Fatal("expected AllCategories to produce at least one rule")
	}
}

func TestEngineEvaluateWithFullCatalogAppliesUncertaintyBeforeLowerPriorityRules(t *testing.T) {
	e := New(AllCategories()...)
	ctx := Context{
		Asset:          model.AudioAsset{Loudness: f64(-5)},
		Signals:        model.Signals{},
		Risks:          model.NewRisks(),
		Classification: model.Classification{IsUncertain: true},
	}
	cs := model.ConstraintSet{}
	e.Evaluate(ctx, cs)
	if cs["processingProfile"].Value != "conservative" {
		t.Errorf("processingProfile = %v, want %q", cs["processingProfile"].Value, "conservative")
	}
}
