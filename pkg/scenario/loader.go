package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a scenario from a YAML or JSON file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario document. JSON is accepted as a subset of YAML.
// The document is checked structurally before it is decoded into the typed
// model, so a malformed file is rejected as a whole.
func Parse(data []byte) (*Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if !ValidateScenario(doc) {
		return nil, ErrInvalidScenario
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}
