package reports

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"gopkg.in/yaml.v3"
)

var (
	// ErrScenarioNotFound is returned when a model has no readable scenario
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrNoModelPath is returned when the scenario names no model file
	ErrNoModelPath = errors.New("scenario does not contain path to the model")

	// ErrNoTarget is returned when no destination was chosen
	ErrNoTarget = errors.New("no target model path")

	// ErrTargetIsDirectory rejects directories as destinations
	ErrTargetIsDirectory = errors.New("destination is a directory")
)

// ModelScenario loads the scenario a model was produced with. YAML and JSON
// scenarios are accepted; structural validation is skipped since only the
// model paths are needed.
func ModelScenario(workspace string, m ModelSummary) (*scenario.Scenario, string, error) {
	if m.ScenarioPath == nil || *m.ScenarioPath == "" {
		return nil, "", ErrScenarioNotFound
	}
	path := resolve(workspace, *m.ScenarioPath)

	switch filepath.Ext(path) {
	case ".yml", ".yaml", ".json":
	default:
		return nil, "", fmt.Errorf("unsupported format of a scenario: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrScenarioNotFound, err)
	}
	var s scenario.Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, "", fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return &s, path, nil
}

// ChooseModel copies the model produced for m, and its .json metadata, to
// target. Relative paths are resolved against the workspace. The resolved
// target is returned.
func ChooseModel(workspace string, m ModelSummary, target string) (string, error) {
	log := util.ComponentLogger("reports")

	s, _, err := ModelScenario(workspace, m)
	if err != nil {
		return "", err
	}
	if len(s.Optimizers) == 0 {
		return "", fmt.Errorf("%w: no optimizers", ErrNoModelPath)
	}
	if s.LastOptimizer().Parameters.CompiledModelPath == nil {
		log.Info("Scenario does not contain compiled model path, using unoptimized model", "model", m.ModelName)
	}
	modelPath, ok := s.ModelPath()
	if !ok || modelPath == "" {
		return "", ErrNoModelPath
	}
	modelPath = resolve(workspace, modelPath)

	if target == "" {
		return "", ErrNoTarget
	}
	target = resolve(workspace, target)

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: chosen destination (%s) is a directory, model will not be saved", ErrTargetIsDirectory, target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("cannot create directory (%s) for a model: %w", filepath.Dir(target), err)
	}

	if err := copyFile(modelPath, target); err != nil {
		return "", err
	}
	if err := copyFile(modelPath+".json", target+".json"); err != nil {
		return "", err
	}

	log.Info("Model saved", "model", m.ModelName, "target", target)
	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

func resolve(workspace, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}
