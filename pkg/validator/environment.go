package validator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
)

// Renode runtimes selectable through PYRENODE_RUNTIME
const (
	RenodeRuntimeMono    = "mono"
	RenodeRuntimeCoreCLR = "coreclr"
)

// CheckResult contains the outcome of an environment check
type CheckResult struct {
	Passed bool
	Errors []CheckError
}

// CheckError is a single environment problem. Path names the setting or
// variable that caused it.
type CheckError struct {
	Path    string
	Message string
}

func (e CheckError) String() string {
	return e.Message
}

// Messages returns the error messages in check order
func (r *CheckResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

func (r *CheckResult) add(path, format string, args ...any) {
	r.Passed = false
	r.Errors = append(r.Errors, CheckError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// CheckRequest carries the parts of a run request that change what the
// environment must provide.
type CheckRequest struct {
	Simulate  bool
	Optimizer string
}

// CheckEnvironment verifies that the toolchains needed for a run are in
// place. env must already include the settings overlay (see
// config.Settings.Apply).
func CheckEnvironment(settings *config.Settings, env config.Env, req CheckRequest) *CheckResult {
	result := &CheckResult{Passed: true, Errors: []CheckError{}}

	checkRuntime(result, settings.KenningZephyrRuntimePath)

	if req.Simulate {
		checkRenode(result, env)
	}

	switch sdk, ok := lookup(env, config.EnvZephyrSDK); {
	case !ok:
		result.add(config.EnvZephyrSDK, "ZEPHYR_SDK_PATH is not set")
	case !exists(sdk):
		result.add(config.EnvZephyrSDK, "Zephyr SDK not found at %s", sdk)
	}

	if req.Optimizer == scenario.Ai8xOptimizer {
		checkAi8xRepo(result, env, config.EnvAi8xTraining)
		checkAi8xRepo(result, env, config.EnvAi8xSynthesis)
	}

	// A symlink is not accepted as the OpenOCD binary
	if path := settings.OpenOCDPath; path != "" {
		info, err := os.Lstat(path)
		switch {
		case err != nil:
			result.add("openocdPath", "OpenOCD not found at %s", path)
		case !info.Mode().IsRegular():
			result.add("openocdPath", "OpenOCD is not a file %s", path)
		}
	}

	return result
}

// checkRuntime expects west and the Zephyr modules next to the runtime checkout
func checkRuntime(result *CheckResult, runtime string) {
	const key = "kenningZephyrRuntimePath"
	switch {
	case runtime == "":
		result.add(key, "Kenning Zephyr Runtime path is not set")
		return
	case !exists(runtime):
		result.add(key, "Provided path %s does not exist", runtime)
		return
	}

	parent := filepath.Dir(filepath.Clean(runtime))
	if !exists(filepath.Join(parent, ".west")) {
		result.add(key, "West is not initialized in %s", runtime)
	}
	if !exists(filepath.Join(parent, "zephyr")) {
		result.add(key, "Modules are not initialized in %s", runtime)
	}
}

func checkRenode(result *CheckResult, env config.Env) {
	runtime, ok := lookup(env, config.EnvPyrenodeRuntime)
	if !ok {
		runtime = RenodeRuntimeMono
	}

	switch runtime {
	case RenodeRuntimeMono:
		switch pkg, ok := lookup(env, config.EnvPyrenodePkg); {
		case !ok:
			result.add(config.EnvPyrenodePkg, "PYRENODE_PKG is not set")
		case !exists(pkg):
			result.add(config.EnvPyrenodePkg, "Renode portable not found at %s", pkg)
		}
	case RenodeRuntimeCoreCLR:
		switch bin, ok := lookup(env, config.EnvPyrenodeBin); {
		case !ok:
			result.add(config.EnvPyrenodeBin, "PYRENODE_BIN is not set")
		case !exists(bin):
			result.add(config.EnvPyrenodeBin, "Renode executable not found at %s", bin)
		}
	default:
		result.add(config.EnvPyrenodeRuntime, "Invalid RENODE_RUNTIME %s", runtime)
	}
}

// checkAi8xRepo expects a prepared checkout with its virtual environment
func checkAi8xRepo(result *CheckResult, env config.Env, key string) {
	path, ok := lookup(env, key)
	switch {
	case !ok:
		result.add(key, "%s is not defined", key)
	case !exists(path):
		result.add(key, "%s not found at %s", key, path)
	case !exists(filepath.Join(path, ".venv")):
		result.add(key, "%s not prepared, missing virtual env at %s/.venv", key, path)
	}
}

// lookup treats empty variables as unset
func lookup(env config.Env, key string) (string, bool) {
	v, ok := env.Lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
