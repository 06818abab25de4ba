// Package subgenre loads the versioned subgenre-likelihood heuristics
// table and turns a Signals value into a model.Classification. The scoring
// function itself is data, not code: this package is a consumer of
// whatever YAML file is handed to it, never a hard-coded per-subgenre
// switch statement, per the decision engine's external-heuristics
// contract.
package subgenre

import (
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/audioqa/internal/model"
)

// Heuristic is one subgenre's scoring entry: a bias plus a set of
// per-signal weights. Weights reference Signals fields by name (see
// signalValues) so the table stays a flat, serializable vocabulary
// instead of a typed struct per subgenre.
type Heuristic struct {
	Name    model.Subgenre     `yaml:"name"`
	Bias    float64            `yaml:"bias"`
	Weights map[string]float64 `yaml:"weights"`
}

// Table is a loaded heuristics file: a schema version tag plus the flat
// list of subgenre heuristics. Both the legacy v1 file
// (`subgenreHeuristics`) and the v2 file (`subgenreHeuristicsV2`, which
// added vocal- and translation-oriented signal weights the v1 table never
// referenced) unmarshal into this same schema: a heuristic entry simply
// omits a weight key it has no opinion about. SchemaVersion is kept only
// for provenance in reports; it has no effect on scoring.
type Table struct {
	SchemaVersion string      `yaml:"schemaVersion"`
	Subgenres     []Heuristic `yaml:"subgenres"`
}

// uncertaintyConfidenceFloor is the confidence below which a classification
// is flagged IsUncertain.
const uncertaintyConfidenceFloor = 0.4

// conflictMargin is the minimum likelihood gap between the top two
// candidates required to call the classification unambiguous.
const conflictMargin = 0.08

// Load parses a heuristics YAML file from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses heuristics YAML already read into memory.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// signalValues flattens Signals into a name-keyed map, omitting any field
// whose measurement never completed. MixBalance is encoded as three
// mutually exclusive 0/1 indicator signals so a heuristic can weight
// "vocalDominant" without the table needing to know about the enum.
func signalValues(s model.Signals) map[string]float64 {
	values := make(map[string]float64, 9)
	add := func(name string, p *float64) {
		if p != nil {
			values[name] = *p
		}
	}
	add("subBassEnergy", s.SubBassEnergy)
	add("transientDensity", s.TransientDensity)
	add("dynamicRange", s.DynamicRange)
	add("stereoWidth", s.StereoWidth)
	add("vinylNoise", s.VinylNoise)
	add("reverbDecay", s.ReverbDecay)
	add("highFreqRolloff", s.HighFreqRolloff)
	add("distortion", s.Distortion)
	if s.MixBalance != nil {
		values["vocalDominant"] = 0
		values["beatDominant"] = 0
		values["balancedMix"] = 0
		switch *s.MixBalance {
		case model.MixBalanceVocalDominant:
			values["vocalDominant"] = 1
		case model.MixBalanceBeatDominant:
			values["beatDominant"] = 1
		case model.MixBalanceBalanced:
			values["balancedMix"] = 1
		}
	}
	return values
}

// score computes one heuristic's raw score against the available signal
// values. A weight whose signal is absent from values contributes
// nothing, reflecting "unmeasured", not zero.
func score(h Heuristic, values map[string]float64) float64 {
	s := h.Bias
	for name, weight := range h.Weights {
		if v, ok := values[name]; ok {
			s += weight * v
		}
	}
	return s
}

// softmax turns raw scores into a probability distribution. An empty
// input returns nil.
func softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	exp := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exp[i] = math.Exp(s - max)
		sum += exp[i]
	}
	if sum == 0 {
		return exp
	}
	for i := range exp {
		exp[i] /= sum
	}
	return exp
}

// Classify scores every subgenre heuristic against signals and returns the
// resulting Classification. An empty table produces a zero-value
// Classification with IsUncertain true, since no candidate can be called
// primary.
func (t *Table) Classify(signals model.Signals) model.Classification {
	if t == nil || len(t.Subgenres) == 0 {
		return model.Classification{IsUncertain: true}
	}

	values := signalValues(signals)
	scores := make([]float64, len(t.Subgenres))
	for i, h := range t.Subgenres {
		scores[i] = score(h, values)
	}
	likelihoods := softmax(scores)

	candidates := make([]model.CandidateScore, len(t.Subgenres))
	likelihoodMap := make(map[model.Subgenre]float64, len(t.Subgenres))
	for i, h := range t.Subgenres {
		candidates[i] = model.CandidateScore{Subgenre: h.Name, Score: likelihoods[i]}
		likelihoodMap[h.Name] = likelihoods[i]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	top := candidates[0]
	confidence := top.Score
	isUncertain := confidence < uncertaintyConfidenceFloor
	conflicting := false
	if len(candidates) > 1 {
		conflicting = (top.Score - candidates[1].Score) < conflictMargin
	}

	topN := candidates
	if len(topN) > 3 {
		topN = topN[:3]
	}

	return model.Classification{
		Primary:            top.Subgenre,
		Confidence:         confidence,
		IsUncertain:        isUncertain,
		ConflictingSignals: conflicting,
		TopCandidates:      topN,
		Likelihoods:        likelihoodMap,
	}
}
