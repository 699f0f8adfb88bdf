package config

import (
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
)

const (
	// KenningDir holds runs, reports and workspace state inside the workspace
	KenningDir = ".kenning"

	// SettingsFile is the default settings file name inside KenningDir
	SettingsFile = "settings.yaml"

	// EnvFile is loaded next to the settings file when present
	EnvFile = ".env"

	DefaultKenningBinary = "kenning"
	DefaultOutputModels  = 5
)

// Settings mirrors the extension settings surface. Paths may be empty when
// the corresponding tool is not installed.
type Settings struct {
	// KenningBinary is the Kenning CLI executable
	KenningBinary string `yaml:"kenningBinary,omitempty" json:"kenningBinary,omitempty" validate:"required"`

	// KenningZephyrRuntimePath is the kenning-zephyr-runtime checkout used as the build workspace
	KenningZephyrRuntimePath string `yaml:"kenningZephyrRuntimePath,omitempty" json:"kenningZephyrRuntimePath,omitempty"`

	ZephyrSDKPath     string `yaml:"zephyrSDKPath,omitempty" json:"zephyrSDKPath,omitempty"`
	Ai8xTrainingPath  string `yaml:"ai8xTrainingPath,omitempty" json:"ai8xTrainingPath,omitempty"`
	Ai8xSynthesisPath string `yaml:"ai8xSynthesisPath,omitempty" json:"ai8xSynthesisPath,omitempty"`

	// PyrenodePath is either a Renode portable package (.tar.gz/.tar.xz) or a Renode binary
	PyrenodePath string `yaml:"pyrenodePath,omitempty" json:"pyrenodePath,omitempty"`

	OpenOCDPath string `yaml:"openocdPath,omitempty" json:"openocdPath,omitempty"`
	UARTPort    string `yaml:"uartPort,omitempty" json:"uartPort,omitempty"`

	// KenningScenarioPath points at a user supplied base scenario; empty uses the built-in one
	KenningScenarioPath string `yaml:"kenningScenarioPath,omitempty" json:"kenningScenarioPath,omitempty"`

	NumberOfOutputModels int  `yaml:"numberOfOutputModels,omitempty" json:"numberOfOutputModels,omitempty" validate:"gte=1"`
	UseCUDA              bool `yaml:"useCUDA,omitempty" json:"useCUDA,omitempty"`
}

// DefaultSettings returns settings with every default applied
func DefaultSettings() *Settings {
	return &Settings{
		KenningBinary:        DefaultKenningBinary,
		NumberOfOutputModels: DefaultOutputModels,
	}
}

// applyDefaults fills zero values left by a partial settings file
func (s *Settings) applyDefaults() {
	if s.KenningBinary == "" {
		s.KenningBinary = DefaultKenningBinary
	}
	if s.NumberOfOutputModels == 0 {
		s.NumberOfOutputModels = DefaultOutputModels
	}
}

// RunSettings extracts what the scenario populator needs
func (s *Settings) RunSettings() scenario.RunSettings {
	return scenario.RunSettings{
		RuntimeWorkspace: s.KenningZephyrRuntimePath,
		OpenOCDPath:      s.OpenOCDPath,
		UARTPort:         s.UARTPort,
		NBestModels:      s.NumberOfOutputModels,
		UseCUDA:          s.UseCUDA,
	}
}
