package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tphakala/audioqa/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestTierForBucketsConfidenceThresholds(t *testing.T) {
	cases := []struct {
		confidence float64
		want       ConfidenceTier
	}{
		{0.95, TierHigh},
		{0.85, TierHigh},
		{0.80, TierGood},
		{0.70, TierGood},
		{0.60, TierModerate},
		{0.55, TierModerate},
		{0.45, TierLow},
		{0.40, TierLow},
		{0.10, TierVeryLow},
	}
	for _, c := range cases {
		if got := tierFor(c.confidence); got != c.want {
			t.Errorf("tierFor(%.2f) = %s, want %s", c.confidence, got, c.want)
		}
	}
}

func TestCompareGroundTruthSetsExactAndTop3Match(t *testing.T) {
	r := FileResult{
		Classification: model.Classification{
			Primary: "deep-house",
			TopCandidates: []model.CandidateScore{
				{Subgenre: "deep-house", Score: 0.6},
				{Subgenre: "tech-house", Score: 0.3},
				{Subgenre: "techno", Score: 0.1},
			},
		},
	}
	r.compareGroundTruth(GroundTruthEntry{Subgenre: "deep-house"})
	if r.ExactMatch == nil || !*r.ExactMatch {
		t.Error("expected ExactMatch true for matching primary")
	}
	if r.Top3Match == nil || !*r.Top3Match {
		t.Error("expected Top3Match true when primary matches")
	}

	r2 := FileResult{
		Classification: model.Classification{
			Primary: "techno",
			TopCandidates: []model.CandidateScore{
				{Subgenre: "techno", Score: 0.5},
				{Subgenre: "tech-house", Score: 0.3},
				{Subgenre: "deep-house", Score: 0.2},
			},
		},
	}
	r2.compareGroundTruth(GroundTruthEntry{Subgenre: "deep-house"})
	if r2.ExactMatch == nil || *r2.ExactMatch {
		t.Error("expected ExactMatch false when primary differs")
	}
	if r2.Top3Match == nil || !*r2.Top3Match {
		t.Error("expected Top3Match true: ground truth appears in top 3")
	}

	r3 := FileResult{
		Classification: model.Classification{
			Primary: "techno",
			TopCandidates: []model.CandidateScore{
				{Subgenre: "techno", Score: 0.9},
			},
		},
	}
	r3.compareGroundTruth(GroundTruthEntry{Subgenre: "ambient"})
	if r3.Top3Match == nil || *r3.Top3Match {
		t.Error("expected Top3Match false when ground truth absent from top candidates")
	}
}

func TestAggregateComputesDistributionsAndAccuracy(t *testing.T) {
	results := []FileResult{
		{
			Path:           "a.wav",
			Classification: model.Classification{Primary: "techno", Confidence: 0.9},
			Reports:        map[string]model.AnalyzerReport{"clipping": {Status: "NONE"}},
			ExactMatch:     boolPtr(true),
			Top3Match:      boolPtr(true),
			GroundTruth:    &GroundTruthEntry{Subgenre: "techno"},
		},
		{
			Path:           "b.wav",
			Classification: model.Classification{Primary: "ambient", Confidence: 0.3},
			Reports:        map[string]model.AnalyzerReport{"clipping": {Status: "CRITICAL"}},
			ExactMatch:     boolPtr(false),
			Top3Match:      boolPtr(false),
			GroundTruth:    &GroundTruthEntry{Subgenre: "techno"},
		},
		{
			Path:  "c.wav",
			Error: "probe failed",
		},
	}

	summary := Aggregate("/catalog", 10, 3, results)

	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if summary.SubgenreDistribution["techno"] != 1 || summary.SubgenreDistribution["ambient"] != 1 {
		t.Errorf("SubgenreDistribution = %+v", summary.SubgenreDistribution)
	}
	if summary.ConfidenceTierDistribution[TierHigh] != 1 || summary.ConfidenceTierDistribution[TierVeryLow] != 1 {
		t.Errorf("ConfidenceTierDistribution = %+v", summary.ConfidenceTierDistribution)
	}
	if summary.OverallAccuracy.Total != 2 || summary.OverallAccuracy.ExactMatches != 1 {
		t.Errorf("OverallAccuracy = %+v", summary.OverallAccuracy)
	}
	if summary.IssueCountsBySource["clipping"] != 1 {
		t.Errorf("IssueCountsBySource[clipping] = %d, want 1 (only the CRITICAL report)", summary.IssueCountsBySource["clipping"])
	}
	if len(summary.MisclassifiedSamples) != 1 || summary.MisclassifiedSamples[0].Path != "b.wav" {
		t.Errorf("MisclassifiedSamples = %+v", summary.MisclassifiedSamples)
	}
	if len(summary.LowConfidenceSamples) != 1 || summary.LowConfidenceSamples[0].Path != "b.wav" {
		t.Errorf("LowConfidenceSamples = %+v", summary.LowConfidenceSamples)
	}
}

func TestWriteReportsWritesSummaryAndFullCompanion(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "report.json")

	summary := Summary{CatalogPath: "/catalog", TotalFiles: 1}
	results := []FileResult{{Path: "a.wav"}}

	if err := WriteReports(outputPath, summary, results); err != nil {
		t.Fatalf("WriteReports: %v", err)
	}

	summaryData, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile summary: %v", err)
	}
	var gotSummary Summary
	if err := json.Unmarshal(summaryData, &gotSummary); err != nil {
		t.Fatalf("Unmarshal summary: %v", err)
	}
	if gotSummary.CatalogPath != "/catalog" {
		t.Errorf("summary CatalogPath = %q, want /catalog", gotSummary.CatalogPath)
	}

	fullData, err := os.ReadFile(filepath.Join(dir, "report.full.json"))
	if err != nil {
		t.Fatalf("ReadFile full report: %v", err)
	}
	var gotFull FullReport
	if err := json.Unmarshal(fullData, &gotFull); err != nil {
		t.Fatalf("Unmarshal full report: %v", err)
	}
	if len(gotFull.Files) != 1 || gotFull.Files[0].Path != "a.wav" {
		t.Errorf("full report Files = %+v", gotFull.Files)
	}
}
