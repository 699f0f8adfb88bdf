package catalog

import (
	"encoding/json"
	"fmt"
)

// Entry is a (display name, id) pair. On the wire it is a two element array,
// which is what the configuration view expects for select options.
type Entry struct {
	DisplayName string `yaml:"displayName"`
	ID          string `yaml:"id"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.DisplayName, e.ID})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("catalog entry must be a [displayName, id] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("catalog entry must have 2 elements, got %d", len(pair))
	}
	e.DisplayName = pair[0]
	e.ID = pair[1]
	return nil
}

// optimizerNames maps optimizer ids to the labels shown in the form
var optimizerNames = map[string]string{
	"TFLiteCompiler": "TensorFlow Lite",
	"Ai8xCompiler":   "ai8x (MAX78xxx CNN accelerator)",
	"TVMCompiler":    "Apache TVM",
}

// OptimizerEntries turns optimizer ids into selectable entries, keeping the
// order reported by the platform definition
func OptimizerEntries(ids []string) []Entry {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		name, ok := optimizerNames[id]
		if !ok {
			name = id
		}
		entries = append(entries, Entry{DisplayName: name, ID: id})
	}
	return entries
}
