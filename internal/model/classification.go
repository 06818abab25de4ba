package model

// Subgenre is an open identifier resolved against the analyzer suite's
// versioned heuristics table, not a closed Go enum, so new subgenres never
// require a code change.
type Subgenre string

// CandidateScore pairs a subgenre candidate with its likelihood score.
type CandidateScore struct {
	Subgenre Subgenre
	Score    float64
}

// Classification is the output of subgenre classification: a primary call,
// its confidence, and the runner-up candidates that informed it.
type Classification struct {
	Primary            Subgenre
	Confidence         float64
	IsUncertain        bool
	ConflictingSignals bool
	TopCandidates      []CandidateScore
	Likelihoods        map[Subgenre]float64
}

// RuleResult is a single classification/decision rule's contribution to a
// ConstraintSet.
type RuleResult struct {
	RuleID         string
	Name           string
	ConstraintName string
	Value          any
	Reason         string
	Overrideable   bool
	Priority       int
}

// ConstraintValue is what a ConstraintSet stores per constraint name: the
// winning value plus enough provenance to explain why it won.
type ConstraintValue struct {
	Value         any
	Reason        string
	SourceRuleID  string
	Overrideable  bool
}

// ConstraintSet maps constraint name to the first rule result that set it.
// Insertion order is priority order: a higher-priority rule's result is
// always inserted before any lower-priority rule gets a chance to compete
// for the same name, so "first write wins" is equivalent to "highest
// priority wins".
type ConstraintSet map[string]ConstraintValue

// Apply inserts result into the set if constraintName has not already been
// set, implementing first-writer-wins. It reports whether the value was
// actually applied (true) or discarded because the constraint was already
// set (false).
func (cs ConstraintSet) Apply(result RuleResult) bool {
	if _, exists := cs[result.ConstraintName]; exists {
		return false
	}
	cs[result.ConstraintName] = ConstraintValue{
		Value:        result.Value,
		Reason:       result.Reason,
		SourceRuleID: result.RuleID,
		Overrideable: result.Overrideable,
	}
	return true
}
