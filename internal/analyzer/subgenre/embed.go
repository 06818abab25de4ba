package subgenre

import _ "embed"

//go:embed default_heuristics.yaml
var defaultHeuristicsYAML []byte

// DefaultTable returns the heuristics table embedded into the binary: a
// unified v1/v2 schema, resolving the two-version split the source data
// originally carried (see the package doc and DESIGN.md). Callers that
// need to track external heuristics updates without a rebuild should use
// Load against a file path instead.
func DefaultTable() (*Table, error) {
	return Parse(defaultHeuristicsYAML)
}
