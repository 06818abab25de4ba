package catalog

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/model"
)

// ConfidenceTier buckets a classification's confidence for the aggregate
// distribution.
type ConfidenceTier string

const (
	TierHigh     ConfidenceTier = "HIGH"
	TierGood     ConfidenceTier = "GOOD"
	TierModerate ConfidenceTier = "MODERATE"
	TierLow      ConfidenceTier = "LOW"
	TierVeryLow  ConfidenceTier = "VERY_LOW"
)

// tierFor buckets confidence per spec.md 4.I's thresholds.
func tierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.85:
		return TierHigh
	case confidence >= 0.70:
		return TierGood
	case confidence >= 0.55:
		return TierModerate
	case confidence >= 0.40:
		return TierLow
	default:
		return TierVeryLow
	}
}

// lowConfidenceThreshold is the cutoff below which a file is surfaced in
// the summary's low-confidence sample list.
const lowConfidenceThreshold = 0.55

// FileResult is one catalog file's full analysis + classification
// outcome, including its comparison against ground truth when available.
type FileResult struct {
	Path           string                         `json:"path"`
	Classification model.Classification           `json:"classification"`
	Reports        map[string]model.AnalyzerReport `json:"reports,omitempty"`
	ProblemCount   int                            `json:"problemCount"`
	GroundTruth    *GroundTruthEntry              `json:"groundTruth,omitempty"`
	ExactMatch     *bool                          `json:"exactMatch,omitempty"`
	Top3Match      *bool                          `json:"top3Match,omitempty"`
	Error          string                         `json:"error,omitempty"`
}

// compareGroundTruth fills in ExactMatch and Top3Match when truth is
// available, by comparing against Primary and the first three
// TopCandidates entries.
func (r *FileResult) compareGroundTruth(truth GroundTruthEntry) {
	r.GroundTruth = &truth
	exact := r.Classification.Primary == truth.Subgenre
	r.ExactMatch = &exact

	top3 := exact
	limit := len(r.Classification.TopCandidates)
	if limit > 3 {
		limit = 3
	}
	for _, candidate := range r.Classification.TopCandidates[:limit] {
		if candidate.Subgenre == truth.Subgenre {
			top3 = true
			break
		}
	}
	r.Top3Match = &top3
}

// AccuracyStats accumulates exact and top-3 match counts over some subset
// of files that had ground truth available.
type AccuracyStats struct {
	Total        int `json:"total"`
	ExactMatches int `json:"exactMatches"`
	Top3Matches  int `json:"top3Matches"`
}

func (a AccuracyStats) ExactRate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.ExactMatches) / float64(a.Total)
}

func (a AccuracyStats) Top3Rate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Top3Matches) / float64(a.Total)
}

func (a *AccuracyStats) record(exact, top3 bool) {
	a.Total++
	if exact {
		a.ExactMatches++
	}
	if top3 {
		a.Top3Matches++
	}
}

// SampleRef is a lightweight pointer to one file, used in the summary's
// low-confidence and misclassified sample lists so the summary itself
// never carries the full per-file array.
type SampleRef struct {
	Path        string         `json:"path"`
	Primary     model.Subgenre `json:"primary"`
	Confidence  float64        `json:"confidence"`
	GroundTruth model.Subgenre `json:"groundTruth,omitempty"`
}

// Summary is the catalog-wide aggregate report, written without the
// per-file result array.
type Summary struct {
	GeneratedAt                time.Time                         `json:"generatedAt"`
	CatalogPath                string                            `json:"catalogPath"`
	TotalFiles                 int                               `json:"totalFiles"`
	Sampled                    int                               `json:"sampled"`
	Failed                    int                                `json:"failed"`
	SubgenreDistribution       map[model.Subgenre]int            `json:"subgenreDistribution"`
	ConfidenceTierDistribution map[ConfidenceTier]int            `json:"confidenceTierDistribution"`
	OverallAccuracy            AccuracyStats                     `json:"overallAccuracy"`
	PerSubgenreAccuracy        map[model.Subgenre]AccuracyStats  `json:"perSubgenreAccuracy"`
	IssueCountsBySource        map[string]int                    `json:"issueCountsBySource"`
	LowConfidenceSamples       []SampleRef                       `json:"lowConfidenceSamples"`
	MisclassifiedSamples       []SampleRef                       `json:"misclassifiedSamples"`
}

// Aggregate builds the catalog-wide Summary from every processed file's
// result. catalogPath and totalFiles are recorded for provenance;
// sampled is the number of files actually processed (after sampling).
func Aggregate(catalogPath string, totalFiles, sampled int, results []FileResult) Summary {
	summary := Summary{
		GeneratedAt:                time.Now(),
		CatalogPath:                catalogPath,
		TotalFiles:                 totalFiles,
		Sampled:                    sampled,
		SubgenreDistribution:       make(map[model.Subgenre]int),
		ConfidenceTierDistribution: make(map[ConfidenceTier]int),
		PerSubgenreAccuracy:        make(map[model.Subgenre]AccuracyStats),
		IssueCountsBySource:        make(map[string]int),
	}

	for _, r := range results {
		if r.Error != "" {
			summary.Failed++
			continue
		}

		summary.SubgenreDistribution[r.Classification.Primary]++
		summary.ConfidenceTierDistribution[tierFor(r.Classification.Confidence)]++

		for name, report := range r.Reports {
			if !goodReportStatus[report.Status] {
				summary.IssueCountsBySource[name]++
			}
		}

		if r.Classification.Confidence < lowConfidenceThreshold {
			summary.LowConfidenceSamples = append(summary.LowConfidenceSamples, SampleRef{
				Path:       r.Path,
				Primary:    r.Classification.Primary,
				Confidence: r.Classification.Confidence,
			})
		}

		if r.ExactMatch == nil {
			continue
		}
		summary.OverallAccuracy.record(*r.ExactMatch, *r.Top3Match)

		perSubgenre := summary.PerSubgenreAccuracy[r.GroundTruth.Subgenre]
		perSubgenre.record(*r.ExactMatch, *r.Top3Match)
		summary.PerSubgenreAccuracy[r.GroundTruth.Subgenre] = perSubgenre

		if !*r.ExactMatch {
			summary.MisclassifiedSamples = append(summary.MisclassifiedSamples, SampleRef{
				Path:        r.Path,
				Primary:     r.Classification.Primary,
				Confidence:  r.Classification.Confidence,
				GroundTruth: r.GroundTruth.Subgenre,
			})
		}
	}

	return summary
}

// goodReportStatus mirrors analyzer.goodStatus for catalog-side issue
// counting; it is duplicated rather than imported to keep internal/catalog
// from depending on internal/analyzer's unexported status vocabulary.
var goodReportStatus = map[string]bool{
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

// FullReport is the ".full.json" companion: the summary plus the complete
// per-file result array.
type FullReport struct {
	Summary
	Files []FileResult `json:"files"`
}

// WriteReports writes the summary to outputPath and the full per-file
// report to its ".full.json" companion, derived by replacing a trailing
// ".json" in outputPath with ".full.json", or by appending ".full.json" to
// any other path.
func WriteReports(outputPath string, summary Summary, results []FileResult) error {
	if err := writeJSON(outputPath, summary); err != nil {
		return err
	}
	full := FullReport{Summary: summary, Files: results}
	return writeJSON(fullReportPath(outputPath), full)
}

func fullReportPath(outputPath string) string {
	if ext := ".json"; strings.HasSuffix(outputPath, ext) {
		return strings.TrimSuffix(outputPath, ext) + ".full.json"
	}
	return outputPath + ".full.json"
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.New(err).Component("catalog").Category(errors.CategoryFileParsing).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).
			Component("catalog").Category(errors.CategoryFileIO).
			Context("path", path).Build()
	}
	return nil
}
