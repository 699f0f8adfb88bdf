package scenario

const (
	DefaultPlatformType       = "ZephyrPlatform"
	DefaultRuntimeBuilderType = "ZephyrRuntimeBuilder"
	DefaultAutoMLType         = "AutoPyTorchML"
	DefaultDatasetType        = "kenning.datasets.anomaly_detection_dataset.AnomalyDetectionDataset"
	DefaultOptimizerType      = "kenning.optimizers.tflite.TFLiteCompiler"
	DefaultModel              = "PyTorchAnomalyDetectionVAE"
)

// DefaultBaseScenario returns the built-in base template. Leaves that have to
// be supplied for every run (platform name, dataset paths, output locations,
// time limit) are left unset.
func DefaultBaseScenario() *Scenario {
	return &Scenario{
		Platform: Platform{
			Type:       DefaultPlatformType,
			Parameters: PlatformParameters{},
		},
		RuntimeBuilder: RuntimeBuilder{
			Type: DefaultRuntimeBuilderType,
			Parameters: RuntimeBuilderParameters{
				Extra: map[string]any{
					"run_west_update": false,
					"extra_targets":   []any{"board-repl"},
				},
			},
		},
		AutoML: AutoML{
			Type: DefaultAutoMLType,
			Parameters: AutoMLParameters{
				UseModels:   []ModelEntry{{Name: DefaultModel}},
				NBestModels: ptr(5),
				Extra: map[string]any{
					"optimize_metric": "f1",
					"budget_type":     "epochs",
					"min_budget":      1,
					"max_budget":      3,
					"seed":            1234,
				},
			},
		},
		Dataset: Dataset{
			Type: DefaultDatasetType,
			Parameters: DatasetParameters{
				Extra: map[string]any{
					"inference_batch_size": 1,
					"split_seed":           12345,
					"split_fraction_test":  0.05,
				},
			},
		},
		Optimizers: []Optimizer{
			{
				Type: DefaultOptimizerType,
				Parameters: OptimizerParameters{
					Extra: map[string]any{
						"target":                "default",
						"inference_input_type":  "float32",
						"inference_output_type": "float32",
					},
				},
			},
		},
	}
}
