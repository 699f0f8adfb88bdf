package scenario

// Clone returns a deep copy sharing no mutable state with s
func (s *Scenario) Clone() *Scenario {
	if s == nil {
		return nil
	}
	out := &Scenario{
		Platform: Platform{
			Type: s.Platform.Type,
			Parameters: PlatformParameters{
				Name:        clonePtr(s.Platform.Parameters.Name),
				Simulated:   clonePtr(s.Platform.Parameters.Simulated),
				DisplayName: clonePtr(s.Platform.Parameters.DisplayName),
				AutoFlash:   clonePtr(s.Platform.Parameters.AutoFlash),
				OpenOCDPath: clonePtr(s.Platform.Parameters.OpenOCDPath),
				UARTPort:    clonePtr(s.Platform.Parameters.UARTPort),
				Extra:       cloneMap(s.Platform.Parameters.Extra),
			},
		},
		Dataset: Dataset{
			Type: s.Dataset.Type,
			Parameters: DatasetParameters{
				CSVFile:     clonePtr(s.Dataset.Parameters.CSVFile),
				DatasetRoot: clonePtr(s.Dataset.Parameters.DatasetRoot),
				Extra:       cloneMap(s.Dataset.Parameters.Extra),
			},
		},
		RuntimeBuilder: RuntimeBuilder{
			Type: s.RuntimeBuilder.Type,
			Parameters: RuntimeBuilderParameters{
				Workspace:  clonePtr(s.RuntimeBuilder.Parameters.Workspace),
				OutputPath: clonePtr(s.RuntimeBuilder.Parameters.OutputPath),
				Extra:      cloneMap(s.RuntimeBuilder.Parameters.Extra),
			},
		},
		AutoML: AutoML{
			Type: s.AutoML.Type,
			Parameters: AutoMLParameters{
				OutputDirectory: clonePtr(s.AutoML.Parameters.OutputDirectory),
				TimeLimit:       clonePtr(s.AutoML.Parameters.TimeLimit),
				ApplicationSize: clonePtr(s.AutoML.Parameters.ApplicationSize),
				NBestModels:     clonePtr(s.AutoML.Parameters.NBestModels),
				UseModels:       cloneModels(s.AutoML.Parameters.UseModels),
				UseCUDA:         clonePtr(s.AutoML.Parameters.UseCUDA),
				Extra:           cloneMap(s.AutoML.Parameters.Extra),
			},
		},
		Extra: cloneMap(s.Extra),
	}
	if s.Optimizers != nil {
		out.Optimizers = make([]Optimizer, len(s.Optimizers))
		for i, opt := range s.Optimizers {
			out.Optimizers[i] = Optimizer{
				Type: opt.Type,
				Parameters: OptimizerParameters{
					CompiledModelPath: clonePtr(opt.Parameters.CompiledModelPath),
					Extra:             cloneMap(opt.Parameters.Extra),
				},
			}
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneModels(models []ModelEntry) []ModelEntry {
	if models == nil {
		return nil
	}
	out := make([]ModelEntry, len(models))
	for i, m := range models {
		out[i] = ModelEntry{Name: m.Name, Ranges: cloneMap(m.Ranges)}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func ptr[T any](v T) *T {
	return &v
}
