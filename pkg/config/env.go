package config

import (
	"os"
	"strings"
)

// Environment variables consumed by Kenning and its toolchains
const (
	EnvZephyrSDK       = "ZEPHYR_SDK_PATH"
	EnvAi8xTraining    = "AI8X_TRAINING_PATH"
	EnvAi8xSynthesis   = "AI8X_SYNTHESIS_PATH"
	EnvPyrenodePkg     = "PYRENODE_PKG"
	EnvPyrenodeBin     = "PYRENODE_BIN"
	EnvPyrenodeRuntime = "PYRENODE_RUNTIME"
)

// Env is a view of environment variables
type Env map[string]string

// Lookup returns a variable and whether it is set
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Environ formats the environment for exec.Cmd.Env
func (e Env) Environ() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	return out
}

// ProcessEnv captures the current process environment
func ProcessEnv() Env {
	return ParseEnviron(os.Environ())
}

// ParseEnviron converts KEY=VALUE pairs into an Env
func ParseEnviron(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// Apply overlays the toolchain settings on base and returns the environment
// handed to Kenning. Unset settings leave base untouched.
func (s *Settings) Apply(base Env) Env {
	env := make(Env, len(base)+4)
	for k, v := range base {
		env[k] = v
	}

	for key, value := range map[string]string{
		EnvZephyrSDK:     s.ZephyrSDKPath,
		EnvAi8xTraining:  s.Ai8xTrainingPath,
		EnvAi8xSynthesis: s.Ai8xSynthesisPath,
	} {
		if value != "" {
			env[key] = value
		}
	}

	if s.PyrenodePath != "" {
		if strings.HasSuffix(s.PyrenodePath, ".tar.gz") || strings.HasSuffix(s.PyrenodePath, ".tar.xz") {
			env[EnvPyrenodePkg] = s.PyrenodePath
		} else {
			env[EnvPyrenodeBin] = s.PyrenodePath
		}
	}

	return env
}
