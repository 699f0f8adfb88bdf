package cli

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v2"
)

// OutputFormat represents the output format of listing commands
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

var outputFormat string

// FormatResults renders v in a machine readable format. Text output is
// written by each command itself.
func FormatResults(v any, format OutputFormat) (string, error) {
	switch format {
	case OutputFormatJSON:
		return formatJSON(v)
	case OutputFormatYAML:
		return formatYAML(v)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatJSON formats the results as JSON
func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the results as YAML
func formatYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(data), nil
}

// printResults prints v when a machine readable format was requested and
// reports whether it did
func printResults(v any) (bool, error) {
	format := OutputFormat(outputFormat)
	if format == "" || format == OutputFormatText {
		return false, nil
	}
	text, err := FormatResults(v, format)
	if err != nil {
		return true, err
	}
	fmt.Println(text)
	return true, nil
}
