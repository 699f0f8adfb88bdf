package validator

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffScenarios renders a unified diff between the base scenario and the
// populated one. An empty string means no differences.
func DiffScenarios(base, populated []byte, baseName, populatedName string) (string, error) {
	if string(base) == string(populated) {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(base)),
		B:        difflib.SplitLines(string(populated)),
		FromFile: baseName,
		ToFile:   populatedName,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to generate diff: %w", err)
	}
	return text, nil
}
