package state

// Key names a persisted configuration value
type Key string

const (
	DatasetPath          Key = "datasetPath"
	Platform             Key = "platform"
	Optimizer            Key = "optimizer"
	TimeLimit            Key = "timeLimit"
	AppSize              Key = "appSize"
	Simulate             Key = "simulate"
	TargetModelPath      Key = "targetModelPath"
	EnableButton         Key = "enableButton"
	SimulationsAvailable Key = "simulationsAvailable"
	OptimizerOptions     Key = "optimizerOptions"
)

// Keys lists every key the store accepts
var Keys = []Key{
	DatasetPath,
	Platform,
	Optimizer,
	TimeLimit,
	AppSize,
	Simulate,
	TargetModelPath,
	EnableButton,
	SimulationsAvailable,
	OptimizerOptions,
}

// IsKnown reports whether k is a configuration key
func IsKnown(k Key) bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// Defaults used when restoring the form before anything was stored
const (
	DefaultPlatform  = "max32690evkit/max32690/m4"
	DefaultOptimizer = "TFLiteCompiler"
	DefaultTimeLimit = "10"
	DefaultAppSize   = "80"
)
