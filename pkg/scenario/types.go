package scenario

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scenario is the execution descriptor consumed by the Kenning AutoML flow.
// Keys the extension does not manage are kept in Extra maps so a user supplied
// scenario survives the round trip to scenario.json unchanged.
type Scenario struct {
	Platform       Platform       `yaml:"platform" json:"platform"`
	Dataset        Dataset        `yaml:"dataset" json:"dataset"`
	RuntimeBuilder RuntimeBuilder `yaml:"runtime_builder" json:"runtime_builder"`
	Optimizers     []Optimizer    `yaml:"optimizers" json:"optimizers" validate:"required,min=1,dive"`
	AutoML         AutoML         `yaml:"automl" json:"automl"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

type Platform struct {
	Type       string             `yaml:"type" json:"type" validate:"required"`
	Parameters PlatformParameters `yaml:"parameters" json:"parameters"`
}

type PlatformParameters struct {
	Name        *string `yaml:"name,omitempty" json:"name,omitempty"`
	Simulated   *bool   `yaml:"simulated,omitempty" json:"simulated,omitempty"`
	DisplayName *string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	AutoFlash   *bool   `yaml:"auto_flash,omitempty" json:"auto_flash,omitempty"`
	OpenOCDPath *string `yaml:"openocd_path,omitempty" json:"openocd_path,omitempty"`
	UARTPort    *string `yaml:"uart_port,omitempty" json:"uart_port,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

type Dataset struct {
	Type       string            `yaml:"type" json:"type" validate:"required"`
	Parameters DatasetParameters `yaml:"parameters" json:"parameters"`
}

type DatasetParameters struct {
	CSVFile     *string `yaml:"csv_file,omitempty" json:"csv_file,omitempty"`
	DatasetRoot *string `yaml:"dataset_root,omitempty" json:"dataset_root,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

type RuntimeBuilder struct {
	Type       string                   `yaml:"type" json:"type" validate:"required"`
	Parameters RuntimeBuilderParameters `yaml:"parameters" json:"parameters"`
}

type RuntimeBuilderParameters struct {
	Workspace  *string `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	OutputPath *string `yaml:"output_path,omitempty" json:"output_path,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// Optimizer is a single stage of the optimization chain. Only the last stage
// of Scenario.Optimizers produces the model handed back to the user.
type Optimizer struct {
	Type       string              `yaml:"type" json:"type" validate:"required"`
	Parameters OptimizerParameters `yaml:"parameters" json:"parameters"`
}

type OptimizerParameters struct {
	CompiledModelPath *string `yaml:"compiled_model_path,omitempty" json:"compiled_model_path,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

type AutoML struct {
	Type       string           `yaml:"type" json:"type" validate:"required"`
	Parameters AutoMLParameters `yaml:"parameters" json:"parameters"`
}

type AutoMLParameters struct {
	OutputDirectory *string      `yaml:"output_directory,omitempty" json:"output_directory,omitempty"`
	TimeLimit       *float64     `yaml:"time_limit,omitempty" json:"time_limit,omitempty"`
	ApplicationSize *float64     `yaml:"application_size,omitempty" json:"application_size,omitempty"`
	NBestModels     *int         `yaml:"n_best_models,omitempty" json:"n_best_models,omitempty"`
	UseModels       []ModelEntry `yaml:"use_models,omitempty" json:"use_models,omitempty"`
	UseCUDA         *bool        `yaml:"use_cuda,omitempty" json:"use_cuda,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// ModelEntry is one element of automl use_models: either a bare model wrapper
// name, or a single-key mapping from the name to hyperparameter ranges.
type ModelEntry struct {
	Name   string
	Ranges map[string]any
}

// UnmarshalYAML accepts both forms of a use_models element
func (m *ModelEntry) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		m.Name = value.Value
		m.Ranges = nil
		return nil
	case yaml.MappingNode:
		if len(value.Content) != 2 {
			return fmt.Errorf("use_models entry must have exactly one model name, got %d", len(value.Content)/2)
		}
		ranges := map[string]any{}
		if err := value.Content[1].Decode(&ranges); err != nil {
			return fmt.Errorf("failed to decode ranges for model %s: %w", value.Content[0].Value, err)
		}
		m.Name = value.Content[0].Value
		m.Ranges = ranges
		return nil
	default:
		return fmt.Errorf("use_models entry must be a string or a mapping")
	}
}

// MarshalYAML writes the bare name when no ranges are attached
func (m ModelEntry) MarshalYAML() (interface{}, error) {
	if m.Ranges == nil {
		return m.Name, nil
	}
	return map[string]any{m.Name: m.Ranges}, nil
}

func (m ModelEntry) MarshalJSON() ([]byte, error) {
	if m.Ranges == nil {
		return json.Marshal(m.Name)
	}
	return json.Marshal(map[string]any{m.Name: m.Ranges})
}

func (p PlatformParameters) MarshalJSON() ([]byte, error) {
	type plain PlatformParameters
	return marshalWithExtra(plain(p), p.Extra)
}

func (p DatasetParameters) MarshalJSON() ([]byte, error) {
	type plain DatasetParameters
	return marshalWithExtra(plain(p), p.Extra)
}

func (p RuntimeBuilderParameters) MarshalJSON() ([]byte, error) {
	type plain RuntimeBuilderParameters
	return marshalWithExtra(plain(p), p.Extra)
}

func (p OptimizerParameters) MarshalJSON() ([]byte, error) {
	type plain OptimizerParameters
	return marshalWithExtra(plain(p), p.Extra)
}

func (p AutoMLParameters) MarshalJSON() ([]byte, error) {
	type plain AutoMLParameters
	return marshalWithExtra(plain(p), p.Extra)
}

func (s Scenario) MarshalJSON() ([]byte, error) {
	type plain Scenario
	return marshalWithExtra(plain(s), s.Extra)
}

// marshalWithExtra encodes known fields and merges unknown keys next to them.
// Known fields win on conflict.
func marshalWithExtra(known any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := fields[k]; exists {
			continue
		}
		raw, err := json.Marshal(jsonSafe(v))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", k, err)
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// jsonSafe converts map[interface{}]interface{} values, which encoding/json
// rejects, into string keyed maps.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	default:
		return v
	}
}

// MarshalIndent renders the scenario the way it is persisted for a run:
// UTF-8 JSON indented with four spaces.
func MarshalIndent(s *Scenario) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario: %w", err)
	}
	return data, nil
}

// LastOptimizer returns the output-producing stage of the chain
func (s *Scenario) LastOptimizer() *Optimizer {
	if len(s.Optimizers) == 0 {
		return nil
	}
	return &s.Optimizers[len(s.Optimizers)-1]
}

// ModelPath returns the path of the model produced by the scenario: the
// compiled model of the last optimizer, falling back to model_wrapper's
// model_path for unoptimized runs.
func (s *Scenario) ModelPath() (string, bool) {
	if opt := s.LastOptimizer(); opt != nil && opt.Parameters.CompiledModelPath != nil {
		return *opt.Parameters.CompiledModelPath, true
	}
	wrapper, ok := s.Extra["model_wrapper"].(map[string]any)
	if !ok {
		return "", false
	}
	params, ok := wrapper["parameters"].(map[string]any)
	if !ok {
		return "", false
	}
	path, ok := params["model_path"].(string)
	return path, ok
}
