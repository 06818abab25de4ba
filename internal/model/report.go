package model

// AnalyzerReport is the common shape every analyzer in the suite returns
// from a full Analyze pass.
type AnalyzerReport struct {
	Status          string
	Score           *float64 // 0-100, nil when the analyzer has no single score
	Measurements    map[string]any
	Description     string
	Recommendations []string
	Confidence      float64 // 0-1
	AnalysisTimeMs  int64
}

// CompactReport is the lightweight result of an analyzer's QuickCheck pass,
// meant for cheap triage before a full Analyze.
type CompactReport struct {
	Status     string
	Confidence float64
	Summary    string
}
