package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MetadataRequirement is a field's importance in the field dictionary.
type MetadataRequirement string

const (
	RequirementRequired    MetadataRequirement = "REQUIRED"
	RequirementRecommended MetadataRequirement = "RECOMMENDED"
	RequirementOptional    MetadataRequirement = "OPTIONAL"
)

// IssueSeverity grades a single metadata validation finding.
type IssueSeverity string

const (
	IssueInfo     IssueSeverity = "INFO"
	IssueWarning  IssueSeverity = "WARNING"
	IssueError    IssueSeverity = "ERROR"
	IssueCritical IssueSeverity = "CRITICAL"
)

// ReadinessStatus rolls up a track's field completeness for one platform.
type ReadinessStatus string

const (
	ReadinessComplete   ReadinessStatus = "COMPLETE"
	ReadinessPartial    ReadinessStatus = "PARTIAL"
	ReadinessIncomplete ReadinessStatus = "INCOMPLETE"
	ReadinessMissing    ReadinessStatus = "MISSING"
)

// FieldType constrains a metadata field's scalar type.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeYear   FieldType = "year"
)

// FieldSpec describes a single metadata field's validation rules.
type FieldSpec struct {
	Name        string
	Category    string
	Requirement MetadataRequirement
	Pattern     *regexp.Regexp
	MinLength   int
	MaxLength   int
	Type        FieldType
}

// FieldDictionary is an ordered set of field specs a track's metadata is
// validated against.
type FieldDictionary []FieldSpec

// DefaultFieldDictionary is the baseline music-catalog metadata schema: the
// fields a delivery platform typically requires or recommends.
var DefaultFieldDictionary = FieldDictionary{
	{Name: "title", Category: "core", Requirement: RequirementRequired, MinLength: 1, MaxLength: 200, Type: FieldTypeString},
	{Name: "artist", Category: "core", Requirement: RequirementRequired, MinLength: 1, MaxLength: 200, Type: FieldTypeString},
	{Name: "album", Category: "core", Requirement: RequirementRecommended, MinLength: 1, MaxLength: 200, Type: FieldTypeString},
	{Name: "album_artist", Category: "core", Requirement: RequirementRecommended, MinLength: 1, MaxLength: 200, Type: FieldTypeString},
	{Name: "year", Category: "core", Requirement: RequirementRecommended, Type: FieldTypeYear},
	{Name: "release_date", Category: "core", Requirement: RequirementOptional, Type: FieldTypeString},
	{Name: "genre", Category: "core", Requirement: RequirementRecommended, MinLength: 1, MaxLength: 100, Type: FieldTypeString},
	{Name: "isrc", Category: "rights", Requirement: RequirementRecommended, Pattern: isrcPattern, Type: FieldTypeString},
	{Name: "upc", Category: "rights", Requirement: RequirementOptional, Type: FieldTypeString},
	{Name: "track_number", Category: "core", Requirement: RequirementOptional, Type: FieldTypeInt},
}

var isrcPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{3}\d{2}\d{5}$`)

// MetadataIssue is a single validation finding against one field or
// cross-field rule.
type MetadataIssue struct {
	Field    string
	Severity IssueSeverity
	Message  string
}

// Track is one track's metadata under validation, keyed by field name.
type Track struct {
	Fields map[string]string
}

// MetadataReport is the result of validating a single track's metadata.
type MetadataReport struct {
	Issues     []MetadataIssue
	Readiness  map[string]ReadinessStatus // platform name -> rollup
}

// MetadataChecker is a pure validator over a field dictionary: it issues no
// external-tool calls and never mutates the tracks it inspects.
type MetadataChecker struct {
	dictionary FieldDictionary
}

func NewMetadataChecker(dictionary FieldDictionary) *MetadataChecker {
	if dictionary == nil {
		dictionary = DefaultFieldDictionary
	}
	return &MetadataChecker{dictionary: dictionary}
}

// Validate checks a single track against the field dictionary and
// cross-field rules, but does not compute duplicate-ISRC findings — that
// requires the whole catalog, see ValidateCatalog.
func (c *MetadataChecker) Validate(t Track) []MetadataIssue {
	var issues []MetadataIssue
	for _, spec := range c.dictionary {
		issues = append(issues, c.validateField(spec, t)...)
	}
	issues = append(issues, crossFieldIssues(t)...)
	return issues
}

func (c *MetadataChecker) validateField(spec FieldSpec, t Track) []MetadataIssue {
	value, present := t.Fields[spec.Name]
	value = strings.TrimSpace(value)

	if !present || value == "" {
		switch spec.Requirement {
		case RequirementRequired:
			return []MetadataIssue{{Field: spec.Name, Severity: IssueCritical, Message: fmt.Sprintf("%s is required but missing", spec.Name)}}
		case RequirementRecommended:
			return []MetadataIssue{{Field: spec.Name, Severity: IssueWarning, Message: fmt.Sprintf("%s is recommended but missing", spec.Name)}}
		default:
			return nil
		}
	}

	var issues []MetadataIssue
	if spec.MinLength > 0 && len(value) < spec.MinLength {
		issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueError, Message: fmt.Sprintf("%s shorter than minimum length %d", spec.Name, spec.MinLength)})
	}
	if spec.MaxLength > 0 && len(value) > spec.MaxLength {
		issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueError, Message: fmt.Sprintf("%s exceeds maximum length %d", spec.Name, spec.MaxLength)})
	}
	if spec.Pattern != nil && !spec.Pattern.MatchString(value) {
		issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueError, Message: fmt.Sprintf("%s does not match required format", spec.Name)})
	}
	switch spec.Type {
	case FieldTypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueError, Message: fmt.Sprintf("%s is not an integer", spec.Name)})
		}
	case FieldTypeYear:
		if yr, err := strconv.Atoi(value); err != nil || yr < 1900 || yr > 2100 {
			issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueError, Message: fmt.Sprintf("%s is not a plausible year", spec.Name)})
		}
	}
	if spec.Name == "title" && !looksProperlyTitleCased(value) {
		issues = append(issues, MetadataIssue{Field: spec.Name, Severity: IssueInfo, Message: "title casing looks inconsistent (all caps or all lowercase)"})
	}
	return issues
}

// crossFieldIssues checks year<->release_date and artist<->album_artist
// consistency for a single track.
func crossFieldIssues(t Track) []MetadataIssue {
	var issues []MetadataIssue

	year := strings.TrimSpace(t.Fields["year"])
	releaseDate := strings.TrimSpace(t.Fields["release_date"])
	if year != "" && releaseDate != "" && len(releaseDate) >= 4 {
		if releaseDate[:4] != year {
			issues = append(issues, MetadataIssue{Field: "year", Severity: IssueWarning, Message: fmt.Sprintf("year %s does not match release_date year %s", year, releaseDate[:4])})
		}
	}

	artist := strings.TrimSpace(t.Fields["artist"])
	albumArtist := strings.TrimSpace(t.Fields["album_artist"])
	if artist != "" && albumArtist != "" && !strings.EqualFold(albumArtist, "Various Artists") {
		if !strings.Contains(strings.ToLower(albumArtist), strings.ToLower(artist)) &&
			!strings.Contains(strings.ToLower(artist), strings.ToLower(albumArtist)) {
			issues = append(issues, MetadataIssue{Field: "album_artist", Severity: IssueWarning, Message: fmt.Sprintf("album_artist %q does not resemble artist %q", albumArtist, artist)})
		}
	}

	return issues
}

// looksProperlyTitleCased is a coarse heuristic: reject all-uppercase or
// all-lowercase titles longer than a single word.
func looksProperlyTitleCased(value string) bool {
	if len(strings.Fields(value)) < 2 {
		return true
	}
	return value != strings.ToUpper(value) && value != strings.ToLower(value)
}

// ValidateCatalog validates every track and adds duplicate-ISRC findings
// across the whole array, which a single-track Validate call cannot detect.
func (c *MetadataChecker) ValidateCatalog(tracks []Track) [][]MetadataIssue {
	results := make([][]MetadataIssue, len(tracks))
	for i, t := range tracks {
		results[i] = c.Validate(t)
	}

	seenISRC := make(map[string]int)
	for i, t := range tracks {
		isrc := strings.TrimSpace(t.Fields["isrc"])
		if isrc == "" {
			continue
		}
		if first, ok := seenISRC[isrc]; ok {
			msg := fmt.Sprintf("isrc %s duplicates track %d", isrc, first)
			results[i] = append(results[i], MetadataIssue{Field: "isrc", Severity: IssueCritical, Message: msg})
		} else {
			seenISRC[isrc] = i
		}
	}

	return results
}

// Readiness rolls up a track's issues into a per-platform status. A platform
// is COMPLETE when every REQUIRED field is present/valid and every
// RECOMMENDED field is present; PARTIAL when required fields pass but some
// recommended are missing; INCOMPLETE when some required field fails;
// MISSING when no fields at all are present.
func (c *MetadataChecker) Readiness(t Track, issues []MetadataIssue) ReadinessStatus {
	if len(t.Fields) == 0 {
		return ReadinessMissing
	}

	requirement := make(map[string]MetadataRequirement, len(c.dictionary))
	for _, spec := range c.dictionary {
		requirement[spec.Name] = spec.Requirement
	}
	for _, iss := range issues {
		if (iss.Severity == IssueCritical || iss.Severity == IssueError) && requirement[iss.Field] == RequirementRequired {
			return ReadinessIncomplete
		}
	}

	for _, spec := range c.dictionary {
		if spec.Requirement == RequirementRecommended && strings.TrimSpace(t.Fields[spec.Name]) == "" {
			return ReadinessPartial
		}
	}

	return ReadinessComplete
}
