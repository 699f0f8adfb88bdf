package scenario

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlScenario = `
platform:
  type: ZephyrPlatform
  parameters:
    name: custom/board
    display_name: Custom board
dataset:
  type: AnomalyDetectionDataset
  parameters:
    split_seed: 7
runtime_builder:
  type: ZephyrRuntimeBuilder
  parameters: {}
optimizers:
  - type: kenning.optimizers.model_inserter.ModelInserter
    parameters:
      model_framework: onnx
  - type: TFLiteCompiler
    parameters: {}
automl:
  type: AutoPyTorchML
  parameters:
    use_models:
      - PyTorchAnomalyDetectionVAE
      - PyTorchAnomalyDetectionVAE:
          encoder_layers:
            item_range: [2, 3]
model_wrapper:
  type: PyTorchAnomalyDetectionVAE
  parameters:
    model_path: /tmp/vae.pth
`

func TestParseYAML(t *testing.T) {
	s, err := Parse([]byte(yamlScenario))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.Platform.Parameters.Name == nil || *s.Platform.Parameters.Name != "custom/board" {
		t.Errorf("Expected platform name custom/board, got %v", s.Platform.Parameters.Name)
	}
	if len(s.Optimizers) != 2 {
		t.Fatalf("Expected 2 optimizers, got %d", len(s.Optimizers))
	}
	if s.Optimizers[0].Parameters.Extra["model_framework"] != "onnx" {
		t.Errorf("Expected upstream optimizer parameters to be kept, got %v", s.Optimizers[0].Parameters.Extra)
	}

	models := s.AutoML.Parameters.UseModels
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	if models[0].Name != "PyTorchAnomalyDetectionVAE" || models[0].Ranges != nil {
		t.Errorf("Unexpected plain model entry: %+v", models[0])
	}
	if models[1].Name != "PyTorchAnomalyDetectionVAE" || models[1].Ranges["encoder_layers"] == nil {
		t.Errorf("Unexpected ranged model entry: %+v", models[1])
	}

	path, ok := s.ModelPath()
	if !ok || path != "/tmp/vae.pth" {
		t.Errorf("Expected model wrapper path fallback, got %q (%v)", path, ok)
	}
}

func TestParseKeepsUnknownKeysInJSON(t *testing.T) {
	s, err := Parse([]byte(yamlScenario))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	data, err := MarshalIndent(s)
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}

	if !strings.Contains(string(data), "\n    \"") {
		t.Errorf("Expected four space indentation, got:\n%s", data)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := doc["model_wrapper"]; !ok {
		t.Error("Expected model_wrapper to be preserved")
	}
	dataset := doc["dataset"].(map[string]any)["parameters"].(map[string]any)
	if dataset["split_seed"] != float64(7) {
		t.Errorf("Expected split_seed 7, got %v", dataset["split_seed"])
	}
	platform := doc["platform"].(map[string]any)["parameters"].(map[string]any)
	if platform["display_name"] != "Custom board" {
		t.Errorf("Expected display_name to be preserved, got %v", platform["display_name"])
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "platform: [unclosed"},
		{name: "scalar document", data: "just text"},
		{name: "missing automl", data: `
platform: {type: ZephyrPlatform, parameters: {}}
dataset: {type: D, parameters: {}}
runtime_builder: {type: R, parameters: {}}
optimizers: [{type: O, parameters: {}}]
`},
		{name: "bad use_models entry", data: `
platform: {type: ZephyrPlatform, parameters: {}}
dataset: {type: D, parameters: {}}
runtime_builder: {type: R, parameters: {}}
optimizers: [{type: O, parameters: {}}]
automl: {type: A, parameters: {use_models: [[1, 2]]}}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	data, err := MarshalIndent(DefaultBaseScenario())
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Optimizers[0].Type != DefaultOptimizerType {
		t.Errorf("Expected optimizer %s, got %s", DefaultOptimizerType, s.Optimizers[0].Type)
	}

	if _, err := Load(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("platform: {}\n"), 0644); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("Expected ErrInvalidScenario, got %v", err)
	}
}
