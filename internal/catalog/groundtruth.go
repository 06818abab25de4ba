package catalog

import (
	"encoding/json"
	"os"

	"github.com/tphakala/audioqa/internal/errors"
	"github.com/tphakala/audioqa/internal/model"
)

// GroundTruthEntry is the expected classification for one catalog file.
type GroundTruthEntry struct {
	Subgenre   model.Subgenre `json:"subgenre"`
	Confidence float64        `json:"confidence"`
}

// GroundTruth maps a catalog file's base name to its expected
// classification.
type GroundTruth map[string]GroundTruthEntry

// LoadGroundTruth reads a JSON object of filename -> {subgenre, confidence}
// from path.
func LoadGroundTruth(path string) (GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("catalog").Category(errors.CategoryFileIO).
			Context("path", path).Build()
	}

	var gt GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return nil, errors.New(err).
			Component("catalog").Category(errors.CategoryFileParsing).
			Context("path", path).Build()
	}
	return gt, nil
}
