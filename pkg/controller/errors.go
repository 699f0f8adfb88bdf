package controller

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFields is matched by MissingFieldsError
	ErrMissingFields = errors.New("missing data in configuration")

	// ErrEnvironment is returned when the toolchain check failed
	ErrEnvironment = errors.New("configuration errors")

	// ErrRunInProgress rejects a run request while a run is active
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrNotGettable rejects getField for keys or elements the view cannot
	// read back
	ErrNotGettable = errors.New("field cannot be read by the view")
)

// MissingFieldsError names every required form field left empty
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Missing data in configuration (%s)", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}
