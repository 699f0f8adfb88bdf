package scenario

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
)

// ErrInvalidNumber is returned for time limits and application sizes that
// are not decimal numbers
var ErrInvalidNumber = errors.New("invalid numeric value")

const (
	ZephyrOutputDir  = "zephyr"
	DatasetDir       = "dataset"
	CompiledModel    = "vae.tflite"
	ScenarioFileName = "scenario.json"
)

// RunSettings carries the extension settings the populator consumes
type RunSettings struct {
	// RuntimeWorkspace is the Kenning Zephyr Runtime checkout
	RuntimeWorkspace string
	OpenOCDPath      string
	UARTPort         string
	NBestModels      int
	UseCUDA          bool
}

// RunRequest is a validated form submission for a single run
type RunRequest struct {
	// RunDirectory is a fresh directory reserved for this run
	RunDirectory string
	Platform     string
	Optimizer    string
	DatasetPath  string
	TimeLimit    string
	// AppSize is optional, nil leaves application_size unset
	AppSize  *string
	Simulate bool
}

// Populate derives the scenario for one run from the base template. The base
// is never modified, so it can be reused for the following runs.
func Populate(base *Scenario, settings RunSettings, req RunRequest) (*Scenario, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: base scenario is nil", ErrInvalidScenario)
	}
	if len(base.Optimizers) == 0 {
		return nil, fmt.Errorf("%w: base scenario has no optimizers", ErrInvalidScenario)
	}

	timeLimit, err := ParseNumber("timeLimit", req.TimeLimit)
	if err != nil {
		return nil, err
	}
	var appSize *float64
	if req.AppSize != nil {
		size, err := ParseNumber("appSize", *req.AppSize)
		if err != nil {
			return nil, err
		}
		appSize = &size
	}

	s := base.Clone()

	platform := &s.Platform.Parameters
	platform.Name = ptr(req.Platform)
	platform.Simulated = ptr(req.Simulate)
	platform.AutoFlash = ptr(!req.Simulate)
	if settings.OpenOCDPath != "" {
		platform.OpenOCDPath = ptr(settings.OpenOCDPath)
	}
	if settings.UARTPort != "" {
		platform.UARTPort = ptr(settings.UARTPort)
	}

	builder := &s.RuntimeBuilder.Parameters
	if settings.RuntimeWorkspace != "" {
		builder.Workspace = ptr(settings.RuntimeWorkspace)
	}
	builder.OutputPath = ptr(filepath.Join(req.RunDirectory, ZephyrOutputDir))

	automl := &s.AutoML.Parameters
	automl.OutputDirectory = ptr(req.RunDirectory)
	automl.TimeLimit = &timeLimit
	automl.ApplicationSize = appSize
	if settings.NBestModels > 0 {
		automl.NBestModels = ptr(settings.NBestModels)
	}
	automl.UseCUDA = ptr(settings.UseCUDA)
	automl.UseModels = ModelsForOptimizer(req.Optimizer, automl.UseModels)

	dataset := &s.Dataset.Parameters
	dataset.DatasetRoot = ptr(filepath.Join(req.RunDirectory, DatasetDir))
	dataset.CSVFile = ptr(req.DatasetPath)

	last := s.LastOptimizer()
	last.Type = req.Optimizer
	last.Parameters.CompiledModelPath = ptr(filepath.Join(req.RunDirectory, CompiledModel))

	return s, nil
}

// ParseNumber parses a decimal form value. NaN and infinities are rejected
// since they cannot be written to the scenario JSON.
func ParseNumber(field, value string) (float64, error) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, field, value)
	}
	return n, nil
}
