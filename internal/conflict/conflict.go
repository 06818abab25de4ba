// Package conflict implements the parameter conflict detector: a static
// catalog of rules evaluated against a caller's merged analysis/proposed-
// parameter/preset-intent bag, producing severity-ranked conflicts a
// caller must act on before enqueueing processing work.
package conflict

import (
	"log/slog"
	"math"
	"sort"

	"github.com/tphakala/audioqa/internal/logging"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("conflict")
	if logger == nil {
		logger = slog.Default().With("service", "conflict")
	}
}

// Severity ranks how urgently a conflict must be addressed.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityBlocking Severity = "BLOCKING"
)

// severityRank orders Severity for sorting, BLOCKING first.
var severityRank = map[Severity]int{
	SeverityBlocking: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityNone:     0,
}

// Operator is one of the condition comparison operators a Rule may use.
type Operator string

const (
	OpGT        Operator = "gt"
	OpGTE       Operator = "gte"
	OpLT        Operator = "lt"
	OpLTE       Operator = "lte"
	OpEQ        Operator = "eq"
	OpNEQ       Operator = "neq"
	OpIn        Operator = "in"
	OpCustomGap Operator = "customGap"
)

// Condition is a single predicate over the merged parameter bag.
// Parameter is evaluated against Value using Operator; for OpCustomGap,
// Parameter2 is read as the subtrahend and Value is the gap threshold:
// the condition holds when |params[Parameter] - params[Parameter2]| > Value.
type Condition struct {
	Parameter  string
	Operator   Operator
	Value      any
	Parameter2 string
}

// Params is the merged bag a Rule evaluates against: the measured
// analysis of the current asset, the processing parameters a caller
// proposes to apply, and the preset's declared intent. Flattened into one
// map so rule conditions can reference any of the three namespaces by a
// single parameter name without the catalog needing to know provenance.
type Params map[string]any

// Rule is one entry in the static conflict catalog.
type Rule struct {
	ID          string
	Description string
	Conditions  []Condition // ANDed
	Severity    func(params Params) Severity
	Resolution  Params // safe substitution values applied by SuggestResolutions
}

// Conflict is one fired Rule's outcome.
type Conflict struct {
	RuleID      string
	Description string
	Severity    Severity
	Parameters  []string
}

// paramAliases maps a legacy/alternate parameter spelling to its
// canonical name used throughout the rule catalog.
var paramAliases = map[string]string{
	"eq_boost":             "eqBoostMax",
	"limiter_threshold":    "limiterThreshold",
	"compression_ratio":    "compressionRatioMax",
	"stereo_widen":         "stereoWidenAmount",
	"noise_reduction":      "noiseReductionAmount",
	"de_esser":             "deEsserAmount",
	"low_shelf_gain":       "lowShelfGainDB",
	"high_shelf_gain":      "highShelfGainDB",
	"normalization_target": "normalizationTargetLUFS",
}

// NormalizeParams returns a copy of params with every recognized alias
// rewritten to its canonical name. A canonical name already present in
// params is never overwritten by an aliased value.
func NormalizeParams(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		out[k] = v
	}
	for alias, canonical := range paramAliases {
		v, ok := out[alias]
		if !ok {
			continue
		}
		delete(out, alias)
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func evaluateCondition(c Condition, params Params) bool {
	v, ok := params[c.Parameter]
	if !ok {
		return false
	}
	switch c.Operator {
	case OpGT, OpGTE, OpLT, OpLTE, OpCustomGap:
		vf, ok := asFloat(v)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpGT:
			cf, ok := asFloat(c.Value)
			return ok && vf > cf
		case OpGTE:
			cf, ok := asFloat(c.Value)
			return ok && vf >= cf
		case OpLT:
			cf, ok := asFloat(c.Value)
			return ok && vf < cf
		case OpLTE:
			cf, ok := asFloat(c.Value)
			return ok && vf <= cf
		case OpCustomGap:
			v2, ok2 := params[c.Parameter2]
			if !ok2 {
				return false
			}
			v2f, ok2 := asFloat(v2)
			threshold, okT := asFloat(c.Value)
			if !ok2 || !okT {
				return false
			}
			return math.Abs(vf-v2f) > threshold
		}
		return false
	case OpEQ:
		return v == c.Value
	case OpNEQ:
		return v != c.Value
	case OpIn:
		options, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, o := range options {
			if v == o {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (r Rule) matches(params Params) bool {
	for _, c := range r.Conditions {
		if !evaluateCondition(c, params) {
			return false
		}
	}
	return true
}

func (r Rule) conditionParameters() []string {
	names := make([]string, 0, len(r.Conditions))
	seen := make(map[string]bool, len(r.Conditions))
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, c := range r.Conditions {
		add(c.Parameter)
		add(c.Parameter2)
	}
	return names
}

// Detector evaluates a fixed rule catalog against normalized params.
type Detector struct {
	rules []Rule
}

// New builds a Detector over the given rule catalog.
func New(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// Default builds a Detector over the built-in ~10-rule catalog.
func Default() *Detector {
	return New(DefaultRules())
}

// DetectConflicts normalizes params and evaluates every rule, returning
// the conflicts whose conditions all held and whose computed severity is
// not NONE, sorted BLOCKING first.
func (d *Detector) DetectConflicts(params Params) []Conflict {
	normalized := NormalizeParams(params)
	var conflicts []Conflict
	for _, rule := range d.rules {
		if !rule.matches(normalized) {
			continue
		}
		sev := SeverityNone
		if rule.Severity != nil {
			sev = rule.Severity(normalized)
		}
		if sev == SeverityNone {
			continue
		}
		conflicts = append(conflicts, Conflict{
			RuleID:      rule.ID,
			Description: rule.Description,
			Severity:    sev,
			Parameters:  rule.conditionParameters(),
		})
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		return severityRank[conflicts[i].Severity] > severityRank[conflicts[j].Severity]
	})
	return conflicts
}

// ValidationResult is the outcome of validating a proposed parameter set.
type ValidationResult struct {
	IsValid         bool
	HasErrors       bool
	HasWarnings     bool
	Conflicts       []Conflict
	Recommendations []string
}

// ValidateParameters runs DetectConflicts and rolls the result up into a
// caller-facing validity verdict. A BLOCKING conflict makes the result
// invalid; HIGH/BLOCKING count as errors, MEDIUM/LOW as warnings.
func (d *Detector) ValidateParameters(params Params) ValidationResult {
	conflicts := d.DetectConflicts(params)
	result := ValidationResult{IsValid: true, Conflicts: conflicts}
	for _, c := range conflicts {
		switch c.Severity {
		case SeverityBlocking:
			result.IsValid = false
			result.HasErrors = true
			result.Recommendations = append(result.Recommendations, "resolve blocking conflict: "+c.Description)
		case SeverityHigh:
			result.HasErrors = true
			result.Recommendations = append(result.Recommendations, "review high-severity conflict: "+c.Description)
		case SeverityMedium, SeverityLow:
			result.HasWarnings = true
		}
	}
	if !result.IsValid {
		logger.Warn("parameter validation found a blocking conflict", "conflict_count", len(conflicts))
	}
	return result
}

// ResolutionResult is the outcome of SuggestResolutions: a partial
// parameter set with the hard-coded safe substitutions for every
// conflict that has one, plus a count of how many distinct conflicts
// those substitutions address.
type ResolutionResult struct {
	Suggestions           Params
	ResolvedConflictCount int
}

// SuggestResolutions looks up each conflict's originating rule and, when
// that rule declares a Resolution, merges its substitutions into the
// suggestion set. Conflicts whose rule has no declared resolution are not
// counted, since there is nothing concrete to suggest.
func (d *Detector) SuggestResolutions(params Params, conflicts []Conflict) ResolutionResult {
	byID := make(map[string]Rule, len(d.rules))
	for _, r := range d.rules {
		byID[r.ID] = r
	}

	suggestions := make(Params)
	resolved := 0
	for _, c := range conflicts {
		rule, ok := byID[c.RuleID]
		if !ok || len(rule.Resolution) == 0 {
			continue
		}
		for k, v := range rule.Resolution {
			suggestions[k] = v
		}
		resolved++
	}
	return ResolutionResult{Suggestions: suggestions, ResolvedConflictCount: resolved}
}
