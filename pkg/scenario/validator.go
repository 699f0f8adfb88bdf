package scenario

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidScenario is returned when loaded data does not have the shape of
// a scenario
var ErrInvalidScenario = errors.New("invalid scenario")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// requiredMembers lists top-level members holding a single {type, parameters} block
var requiredMembers = []string{"platform", "dataset", "runtime_builder", "automl"}

// ValidateScenario reports whether an arbitrary decoded document has the
// shape of a scenario. It never panics; anything unexpected yields false.
func ValidateScenario(candidate any) bool {
	doc, ok := candidate.(map[string]any)
	if !ok {
		return false
	}

	for _, member := range requiredMembers {
		if !isComponent(doc[member]) {
			return false
		}
	}

	optimizers, ok := doc["optimizers"].([]any)
	if !ok || len(optimizers) == 0 {
		return false
	}
	for _, opt := range optimizers {
		if !isComponent(opt) {
			return false
		}
	}

	return true
}

// isComponent checks for a non-empty string type and an object of parameters
func isComponent(v any) bool {
	component, ok := v.(map[string]any)
	if !ok {
		return false
	}
	typ, ok := component["type"].(string)
	if !ok || typ == "" {
		return false
	}
	params, present := component["parameters"]
	if !present {
		return false
	}
	_, ok = params.(map[string]any)
	return ok
}

// Validate checks a typed scenario
func Validate(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: scenario is nil", ErrInvalidScenario)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}
