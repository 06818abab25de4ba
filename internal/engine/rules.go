package engine

import (
	"fmt"

	"github.com/tphakala/audioqa/internal/model"
)

// sig reads a Signals pointer field, returning ok=false when the
// measurement never completed. Rules must use this instead of
// dereferencing directly, since a nil Signals field means "unmeasured",
// not zero.
func sig(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// LoudnessRules covers target-loudness and limiter-related constraints.
func LoudnessRules() []Rule {
	return []Rule{
		{
			ID: "loudness.hot-master-limiter", Category: "loudness", Priority: 90, Overrideable: false,
			Condition: func(ctx Context) bool {
				return ctx.Asset.Loudness != nil && *ctx.Asset.Loudness > -8 && ctx.Risks.ClippingRisk > 0.5
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "loudness.hot-master-limiter", Name: "Hot master limiter",
					ConstraintName: "limiterThreshold", Value: -1.0,
					Reason:       fmt.Sprintf("integrated loudness %.1f LUFS with elevated clipping risk", *ctx.Asset.Loudness),
					Overrideable: false, Priority: 90,
				}
			},
		},
		{
			ID: "loudness.quiet-master-headroom", Category: "loudness", Priority: 40, Overrideable: true,
			Condition: func(ctx Context) bool {
				return ctx.Asset.Loudness != nil && *ctx.Asset.Loudness < -20
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "loudness.quiet-master-headroom", Name: "Quiet master headroom",
					ConstraintName: "normalizationTargetLUFS", Value: -14.0,
					Reason:       fmt.Sprintf("integrated loudness %.1f LUFS leaves ample headroom to raise", *ctx.Asset.Loudness),
					Overrideable: true, Priority: 40,
				}
			},
		},
		{
			ID: "loudness.over-compression-ease", Category: "loudness", Priority: 60, Overrideable: true,
			Condition: func(ctx Context) bool {
				dr, ok := sig(ctx.Signals.DynamicRange)
				return ok && dr < 0.25 && ctx.Risks.OverCompressionRisk > 0.5
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "loudness.over-compression-ease", Name: "Ease over-compression",
					ConstraintName: "compressionRatioMax", Value: 4.0,
					Reason:       "measured dynamic range is critically narrow",
					Overrideable: true, Priority: 60,
				}
			},
		},
	}
}

// LowEndRules covers sub-bass and low-end translation constraints.
func LowEndRules() []Rule {
	return []Rule{
		{
			ID: "lowend.subbass-club-cut", Category: "lowEnd", Priority: 85, Overrideable: false,
			Condition: func(ctx Context) bool {
				e, ok := sig(ctx.Signals.SubBassEnergy)
				return ok && e > 0.7 && (ctx.Classification.Primary == "techno" || ctx.Classification.Primary == "dubstep" || ctx.Classification.Primary == "drum-and-bass")
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "lowend.subbass-club-cut", Name: "Sub-bass club safety cut",
					ConstraintName: "lowShelfGainDB", Value: -2.0,
					Reason:       "sub-bass energy exceeds club-system-safe threshold for this subgenre",
					Overrideable: false, Priority: 85,
				}
			},
		},
		{
			ID: "lowend.thin-bass-boost", Category: "lowEnd", Priority: 30, Overrideable: true,
			Condition: func(ctx Context) bool {
				e, ok := sig(ctx.Signals.SubBassEnergy)
				return ok && e < 0.15
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "lowend.thin-bass-boost", Name: "Thin bass boost",
					ConstraintName: "lowShelfGainDB", Value: 1.5,
					Reason:       "sub-bass energy is unusually low for the detected genre",
					Overrideable: true, Priority: 30,
				}
			},
		},
	}
}

// VocalRules covers vocal-intelligibility and masking constraints.
func VocalRules() []Rule {
	return []Rule{
		{
			ID: "vocal.masking-clarity-boost", Category: "vocal", Priority: 70, Overrideable: true,
			Condition: func(ctx Context) bool {
				return ctx.Signals.MixBalance != nil && *ctx.Signals.MixBalance == model.MixBalanceVocalDominant &&
					ctx.Risks.MaskingRisk > 0.5
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "vocal.masking-clarity-boost", Name: "Vocal clarity boost",
					ConstraintName: "vocalClarityBoostDB", Value: 2.0,
					Reason:       "vocal-dominant mix with elevated masking risk",
					Overrideable: true, Priority: 70,
				}
			},
		},
		{
			ID: "vocal.intelligibility-deesser", Category: "vocal", Priority: 55, Overrideable: true,
			Condition: func(ctx Context) bool {
				return ctx.Risks.VocalIntelligibilityRisk > 0.6
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "vocal.intelligibility-deesser", Name: "Vocal intelligibility de-esser",
					ConstraintName: "deEsserEnabled", Value: true,
					Reason:       "vocal intelligibility risk above tolerance",
					Overrideable: true, Priority: 55,
				}
			},
		},
	}
}

// StereoRules covers stereo width and phase-collapse constraints.
func StereoRules() []Rule {
	return []Rule{
		{
			ID: "stereo.phase-collapse-narrow", Category: "stereo", Priority: 80, Overrideable: false,
			Condition: func(ctx Context) bool {
				return ctx.Risks.PhaseCollapseRisk > 0.6
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "stereo.phase-collapse-narrow", Name: "Phase collapse width cap",
					ConstraintName: "stereoWidthMax", Value: 0.6,
					Reason:       "measured phase correlation indicates collapse risk on mono playback",
					Overrideable: false, Priority: 80,
				}
			},
		},
		{
			ID: "stereo.narrow-widen", Category: "stereo", Priority: 25, Overrideable: true,
			Condition: func(ctx Context) bool {
				w, ok := sig(ctx.Signals.StereoWidth)
				return ok && w < 0.2 && ctx.Risks.PhaseCollapseRisk < 0.4
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "stereo.narrow-widen", Name: "Narrow stereo widen",
					ConstraintName: "stereoWidenAmount", Value: 0.3,
					Reason:       "stereo width is narrow and phase correlation leaves room to widen safely",
					Overrideable: true, Priority: 25,
				}
			},
		},
	}
}

// DynamicsRules covers transient density and crest-factor constraints.
func DynamicsRules() []Rule {
	return []Rule{
		{
			ID: "dynamics.transient-preserve", Category: "dynamics", Priority: 65, Overrideable: true,
			Condition: func(ctx Context) bool {
				d, ok := sig(ctx.Signals.TransientDensity)
				return ok && d > 0.7
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "dynamics.transient-preserve", Name: "Transient preservation",
					ConstraintName: "limiterReleaseMs", Value: 150.0,
					Reason:       "high transient density favors a slower limiter release to avoid pumping",
					Overrideable: true, Priority: 65,
				}
			},
		},
	}
}

// TranslationRules covers cross-system and cross-platform translation
// risk constraints.
func TranslationRules() []Rule {
	return []Rule{
		{
			ID: "translation.high-risk-reference-check", Category: "translation", Priority: 50, Overrideable: true,
			Condition: func(ctx Context) bool {
				return ctx.Risks.TranslationRisk > 0.6
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "translation.high-risk-reference-check", Name: "Flag for reference-system check",
					ConstraintName: "requiresReferenceCheck", Value: true,
					Reason:       "translation risk across playback systems is elevated",
					Overrideable: true, Priority: 50,
				}
			},
		},
		{
			ID: "translation.artifact-lofi-exempt", Category: "translation", Priority: 20, Overrideable: true,
			Condition: func(ctx Context) bool {
				n, ok := sig(ctx.Signals.VinylNoise)
				return ok && n > 0.3 && ctx.Risks.LofiAestheticRisk < 0.3
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "translation.artifact-lofi-exempt", Name: "Lo-fi aesthetic artifact exemption",
					ConstraintName: "artifactCleanupEnabled", Value: false,
					Reason:       "vinyl noise present but not flagged as an unwanted lo-fi artifact",
					Overrideable: true, Priority: 20,
				}
			},
		},
	}
}

// UncertaintyRules covers classification-confidence fallback constraints.
func UncertaintyRules() []Rule {
	return []Rule{
		{
			ID: "uncertainty.conservative-fallback", Category: "uncertainty", Priority: 95, Overrideable: false,
			Condition: func(ctx Context) bool {
				return ctx.Classification.IsUncertain || ctx.Classification.ConflictingSignals
			},
			Action: func(ctx Context) model.RuleResult {
				return model.RuleResult{
					RuleID: "uncertainty.conservative-fallback", Name: "Conservative processing fallback",
					ConstraintName: "processingProfile", Value: "conservative",
					Reason:       "subgenre classification is uncertain or its signals conflict",
					Overrideable: false, Priority: 95,
				}
			},
		},
	}
}

// AllCategories returns every rule category group in the order named by
// the rule-evaluation contract. Engine construction does not depend on
// this order since rules are re-sorted by priority, but it keeps callers
// from having to enumerate the categories themselves.
func AllCategories() [][]Rule {
	return [][]Rule{
		LoudnessRules(),
		LowEndRules(),
		VocalRules(),
		StereoRules(),
		DynamicsRules(),
		TranslationRules(),
		UncertaintyRules(),
	}
}
