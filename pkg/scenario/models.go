package scenario

import "strings"

// Ai8xOptimizer is the hardware-specific compiler for MAX78xxx CNN
// accelerators. It only accepts model wrappers written for the ai8x toolchain.
const Ai8xOptimizer = "Ai8xCompiler"

// ai8xCompatibleModels lists model wrappers the ai8x toolchain can compile,
// matched on the last component of a dotted wrapper path.
var ai8xCompatibleModels = map[string]struct{}{
	"Ai8xAnomalyDetectionCNN": {},
}

// Ai8xFallbackModel is used when none of the requested models can be compiled
// by the ai8x toolchain.
func Ai8xFallbackModel() ModelEntry {
	return ModelEntry{
		Name: "Ai8xAnomalyDetectionCNN",
		Ranges: map[string]any{
			"conv_layers": map[string]any{
				"item_range": []any{1, 4},
			},
			"conv_filters": map[string]any{
				"item_range": []any{8, 64},
			},
			"kernel_size": map[string]any{
				"item_range": []any{1, 3},
			},
			"dense_layers": map[string]any{
				"item_range": []any{1, 3},
			},
		},
	}
}

// IsAi8xCompatible reports whether the model wrapper can be compiled for ai8x
func IsAi8xCompatible(name string) bool {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	_, ok := ai8xCompatibleModels[name]
	return ok
}

// FilterAi8xModels keeps only ai8x compatible entries. Applying it to its own
// output returns the same list.
func FilterAi8xModels(models []ModelEntry) []ModelEntry {
	filtered := []ModelEntry{}
	for _, m := range models {
		if IsAi8xCompatible(m.Name) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// ModelsForOptimizer applies the optimizer compatibility policy to the
// requested search space. Unconstrained optimizers get the list unchanged.
func ModelsForOptimizer(optimizer string, models []ModelEntry) []ModelEntry {
	if optimizer != Ai8xOptimizer {
		return models
	}
	filtered := FilterAi8xModels(models)
	if len(filtered) == 0 {
		return []ModelEntry{Ai8xFallbackModel()}
	}
	return filtered
}
