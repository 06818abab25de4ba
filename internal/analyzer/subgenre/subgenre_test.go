package subgenre

import (
	"testing"

	"github.com/tphakala/audioqa/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestParseUnmarshalsHeuristicsTable(t *testing.T) {
	data := []byte(`
schemaVersion: v2
subgenres:
  - name: techno
    bias: 0
    weights:
      subBassEnergy: 2.0
  - name: ambient
    bias: 0
    weights:
      reverbDecay: 2.0
`)
	table, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if table.SchemaVersion != "v2" {
		t.Errorf("SchemaVersion = %q, want v2", table.SchemaVersion)
	}
	if len(table.Subgenres) != 2 {
		t.Fatalf("len(Subgenres) = %d, want 2", len(table.Subgenres))
	}
}

func TestClassifyPicksHighestScoringSubgenre(t *testing.T) {
	table, err := Parse([]byte(`
subgenres:
  - name: techno
    weights:
      subBassEnergy: 3.0
  - name: ambient
    weights:
      reverbDecay: 3.0
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	c := table.Classify(model.Signals{SubBassEnergy: f64(0.9), ReverbDecay: f64(0.1)})
	if c.Primary != "techno" {
		t.Errorf("Primary = %q, want techno", c.Primary)
	}
	if c.IsUncertain {
		t.Errorf("IsUncertain = true, want false for a decisive signal gap")
	}
	if len(c.TopCandidates) != 2 {
		t.Errorf("len(TopCandidates) = %d, want 2", len(c.TopCandidates))
	}
}

func TestClassifyFlagsConflictingSignalsWhenScoresAreClose(t *testing.T) {
	table, err := Parse([]byte(`
subgenres:
  - name: techno
    weights:
      subBassEnergy: 1.0
  - name: ambient
    weights:
      reverbDecay: 1.0
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	c := table.Classify(model.Signals{SubBassEnergy: f64(0.5), ReverbDecay: f64(0.5)})
	if !c.ConflictingSignals {
		t.Errorf("ConflictingSignals = false, want true for near-tied scores")
	}
}

func TestClassifyIgnoresAbsentSignals(t *testing.T) {
	table, err := Parse([]byte(`
subgenres:
  - name: techno
    weights:
      subBassEnergy: 5.0
  - name: ambient
    bias: 0.01
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	c := table.Classify(model.Signals{})
	if c.Primary != "ambient" {
		t.Errorf("Primary = %q, want ambient (its bias alone should edge out an unweighted-zero techno score)", c.Primary)
	}
}

func TestClassifyEmptyTableIsUncertain(t *testing.T) {
	table := &Table{}
	c := table.Classify(model.Signals{})
	if !c.IsUncertain {
		t.Errorf("IsUncertain = false, want true for an empty table")
	}
	if c.Primary != "" {
		t.Errorf("Primary = %q, want empty", c.Primary)
	}
}

func TestSoftmaxProducesDistributionSummingToOne(t *testing.T) {
	out := softmax([]float64{1, 2, 3})
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("sum = %v, want ~1", sum)
	}
}

func TestDefaultTableParsesEmbeddedHeuristics(t *testing.T) {
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable returned error: %v", err)
	}
	if len(table.Subgenres) == 0 {
		t.Fatal("expected the embedded default table to have at least one subgenre")
	}
	c := table.Classify(model.Signals{SubBassEnergy: f64(0.9), TransientDensity: f64(0.8)})
	if c.Primary == "" {
		t.Errorf("expected a non-empty Primary classification")
	}
}

func TestSignalValuesEncodesMixBalanceAsIndicators(t *testing.T) {
	balance := model.MixBalanceVocalDominant
	values := signalValues(model.Signals{MixBalance: &balance})
	if values["vocalDominant"] != 1 {
		t.Errorf("vocalDominant = %v, want 1", values["vocalDominant"])
	}
	if values["beatDominant"] != 0 {
		t.Errorf("beatDominant = %v, want 0", values["beatDominant"])
	}
}
