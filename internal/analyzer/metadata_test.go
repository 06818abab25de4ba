package analyzer

import "testing"

func hasIssueForField(issues []MetadataIssue, field string, severity IssueSeverity) bool {
	for _, i := range issues {
		if i.Field == field && i.Severity == severity {
			return true
		}
	}
	return false
}

func TestMetadataValidateMissingRequiredFieldIsCritical(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{}})
	if !hasIssueForField(issues, "title", IssueCritical) {
		t.Errorf("expected CRITICAL issue for missing title, got %+v", issues)
	}
	if !hasIssueForField(issues, "artist", IssueCritical) {
		t.Errorf("expected CRITICAL issue for missing artist, got %+v", issues)
	}
}

func TestMetadataValidateMissingRecommendedFieldIsWarning(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{
		"title":  "A Song",
		"artist": "An Artist",
	}})
	if !hasIssueForField(issues, "album", IssueWarning) {
		t.Errorf("expected WARNING issue for missing album, got %+v", issues)
	}
}

func TestMetadataValidateCompleteTrackHasNoCriticalOrError(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{
		"title":        "A Proper Song Title",
		"artist":       "An Artist",
		"album":        "An Album",
		"album_artist": "An Artist",
		"year":         "2020",
		"genre":        "House",
		"isrc":         "USRC17607839",
	}})
	for _, i := range issues {
		if i.Severity == IssueCritical || i.Severity == IssueError {
			t.Errorf("unexpected %s issue: %+v", i.Severity, i)
		}
	}
}

func TestMetadataCrossFieldYearMismatch(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{
		"title":        "A Song",
		"artist":       "An Artist",
		"year":         "2019",
		"release_date": "2020-05-01",
	}})
	if !hasIssueForField(issues, "year", IssueWarning) {
		t.Errorf("expected WARNING for year/release_date mismatch, got %+v", issues)
	}
}

func TestMetadataCrossFieldAlbumArtistMismatch(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{
		"title":        "A Song",
		"artist":       "Alice",
		"album_artist": "Bob",
	}})
	if !hasIssueForField(issues, "album_artist", IssueWarning) {
		t.Errorf("expected WARNING for artist/album_artist mismatch, got %+v", issues)
	}
}

func TestMetadataVariousArtistsIsExempt(t *testing.T) {
	checker := NewMetadataChecker(nil)
	issues := checker.Validate(Track{Fields: map[string]string{
		"title":        "A Song",
		"artist":       "Alice",
		"album_artist": "Various Artists",
	}})
	if hasIssueForField(issues, "album_artist", IssueWarning) {
		t.Errorf("Various Artists should be exempt from mismatch check, got %+v", issues)
	}
}

func TestMetadataValidateCatalogDetectsDuplicateISRC(t *testing.T) {
	checker := NewMetadataChecker(nil)
	tracks := []Track{
		{Fields: map[string]string{"title": "A", "artist": "X", "isrc": "USRC17607839"}},
		{Fields: map[string]string{"title": "B", "artist": "Y", "isrc": "USRC17607839"}},
	}
	results := checker.ValidateCatalog(tracks)
	if !hasIssueForField(results[1], "isrc", IssueCritical) {
		t.Errorf("expected CRITICAL duplicate-isrc issue on second track, got %+v", results[1])
	}
	if hasIssueForField(results[0], "isrc", IssueCritical) {
		t.Errorf("first occurrence should not be flagged, got %+v", results[0])
	}
}

func TestMetadataReadinessMissingWhenNoFields(t *testing.T) {
	checker := NewMetadataChecker(nil)
	track := Track{}
	issues := checker.Validate(track)
	if got := checker.Readiness(track, issues); got != ReadinessMissing {
		t.Errorf("Readiness = %q, want %q", got, ReadinessMissing)
	}
}

func TestMetadataReadinessIncompleteWhenRequiredMissing(t *testing.T) {
	checker := NewMetadataChecker(nil)
	track := Track{Fields: map[string]string{"album": "An Album"}}
	issues := checker.Validate(track)
	if got := checker.Readiness(track, issues); got != ReadinessIncomplete {
		t.Errorf("Readiness = %q, want %q", got, ReadinessIncomplete)
	}
}

func TestMetadataReadinessPartialWhenRecommendedMissing(t *testing.T) {
	checker := NewMetadataChecker(nil)
	track := Track{Fields: map[string]string{"title": "A Song", "artist": "An Artist"}}
	issues := checker.Validate(track)
	if got := checker.Readiness(track, issues); got != ReadinessPartial {
		t.Errorf("Readiness = %q, want %q", got, ReadinessPartial)
	}
}

func TestMetadataReadinessCompleteWhenEverythingPresent(t *testing.T) {
	checker := NewMetadataChecker(nil)
	track := Track{Fields: map[string]string{
		"title":        "A Proper Song Title",
		"artist":       "An Artist",
		"album":        "An Album",
		"album_artist": "An Artist",
		"year":         "2020",
		"genre":        "House",
		"isrc":         "USRC17607839",
	}}
	issues := checker.Validate(track)
	if got := checker.Readiness(track, issues); got != ReadinessComplete {
		t.Errorf("Readiness = %q, want %q, issues: %+v", got, ReadinessComplete, issues)
	}
}
