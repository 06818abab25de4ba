package conflict

// DefaultRules returns the built-in conflict catalog. Parameter names are
// the canonical (post-alias) spellings a caller's proposedParams,
// currentAnalysis, and presetIntent are merged under.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "EQ_BOOST_LIMITING",
			Description: "aggressive EQ boost combined with a tight limiter threshold risks audible pumping",
			Conditions: []Condition{
				{Parameter: "eqBoostMax", Operator: OpCustomGap, Value: 8.0, Parameter2: "limiterThreshold"},
			},
			Severity: func(params Params) Severity {
				eq, _ := asFloat(params["eqBoostMax"])
				limiter, _ := asFloat(params["limiterThreshold"])
				gap := eq - limiter
				switch {
				case gap > 14:
					return SeverityBlocking
				case gap > 8:
					return SeverityHigh
				case gap > 4:
					return SeverityMedium
				default:
					return SeverityLow
				}
			},
			Resolution: Params{"eqBoostMax": 6.0, "limiterThreshold": -6.0},
		},
		{
			ID:          "OVER_COMPRESSION_STACK",
			Description: "requested compression ratio would further crush an already narrow dynamic range",
			Conditions: []Condition{
				{Parameter: "compressionRatioMax", Operator: OpGTE, Value: 8.0},
				{Parameter: "currentDynamicRange", Operator: OpLT, Value: 0.2},
			},
			Severity: func(Params) Severity { return SeverityBlocking },
			Resolution: Params{"compressionRatioMax": 4.0},
		},
		{
			ID:          "SUBBASS_BOOST_CLUB_OVERLOAD",
			Description: "low-shelf boost on a track already carrying high sub-bass energy risks club-system overload",
			Conditions: []Condition{
				{Parameter: "lowShelfGainDB", Operator: OpGT, Value: 2.0},
				{Parameter: "currentSubBassEnergy", Operator: OpGT, Value: 0.7},
			},
			Severity: func(Params) Severity { return SeverityBlocking },
			Resolution: Params{"lowShelfGainDB": 0.0},
		},
		{
			ID:          "STEREO_WIDEN_PHASE_COLLAPSE",
			Description: "widening a track that already measures high phase-collapse risk jeopardizes mono compatibility",
			Conditions: []Condition{
				{Parameter: "stereoWidenAmount", Operator: OpGT, Value: 0.3},
				{Parameter: "currentPhaseCollapseRisk", Operator: OpGT, Value: 0.5},
			},
			Severity: func(Params) Severity { return SeverityHigh },
			Resolution: Params{"stereoWidenAmount": 0.1},
		},
		{
			ID:          "EXCESSIVE_LIMITING_ON_HOT_MASTER",
			Description: "a tight limiter threshold applied to a master that is already near the true-peak ceiling leaves no margin",
			Conditions: []Condition{
				{Parameter: "limiterThreshold", Operator: OpLT, Value: -6.0},
				{Parameter: "currentTruePeakDBTP", Operator: OpGT, Value: -1.0},
			},
			Severity: func(Params) Severity { return SeverityHigh },
			Resolution: Params{"limiterThreshold": -1.0},
		},
		{
			ID:          "NOISE_REDUCTION_ARTIFACT_RISK",
			Description: "heavy noise reduction on a track with elevated artifact risk tends to introduce audible smearing",
			Conditions: []Condition{
				{Parameter: "noiseReductionAmount", Operator: OpGT, Value: 0.6},
				{Parameter: "currentArtifactRisk", Operator: OpGT, Value: 0.5},
			},
			Severity: func(Params) Severity { return SeverityHigh },
			Resolution: Params{"noiseReductionAmount": 0.3},
		},
		{
			ID:          "HIGH_SHELF_BOOST_HARSHNESS",
			Description: "high-shelf boost on a track with minimal high-frequency rolloff risks excess harshness",
			Conditions: []Condition{
				{Parameter: "highShelfGainDB", Operator: OpGT, Value: 3.0},
				{Parameter: "currentHighFreqRolloff", Operator: OpLT, Value: 0.2},
			},
			Severity: func(Params) Severity { return SeverityMedium },
			Resolution: Params{"highShelfGainDB": 1.5},
		},
		{
			ID:          "DEESSER_ON_CLEAN_VOCAL",
			Description: "applying a de-esser to a vocal that already measures low intelligibility risk is unnecessary processing",
			Conditions: []Condition{
				{Parameter: "deEsserAmount", Operator: OpGT, Value: 0.5},
				{Parameter: "currentVocalIntelligibilityRisk", Operator: OpLT, Value: 0.2},
			},
			Severity: func(Params) Severity { return SeverityLow },
		},
		{
			ID:          "NORMALIZATION_TARGET_CONFLICTS_PRESET",
			Description: "the proposed normalization target does not match the preset's declared loudness intent",
			Conditions: []Condition{
				{Parameter: "normalizationTargetLUFS", Operator: OpCustomGap, Value: 1.0, Parameter2: "presetTargetLUFS"},
			},
			Severity: func(Params) Severity { return SeverityMedium },
		},
		{
			ID:          "AGGRESSIVE_PRESET_GENTLE_COMPRESSION",
			Description: "the preset declares aggressive mastering intent but the proposed compression ratio is unusually gentle",
			Conditions: []Condition{
				{Parameter: "presetAggressiveMastering", Operator: OpEQ, Value: true},
				{Parameter: "compressionRatioMax", Operator: OpLT, Value: 3.0},
			},
			Severity: func(Params) Severity { return SeverityLow },
		},
	}
}
