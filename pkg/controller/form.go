package controller

import (
	"errors"
	"reflect"
	"strings"

	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// missingFields returns the protocol names of empty required fields, in form order
func missingFields(form RunAutoMLState) []string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// appSize normalizes the optional application size
func (f RunAutoMLState) appSize() *string {
	if f.AppSize == nil || *f.AppSize == "" {
		return nil
	}
	return f.AppSize
}

// Validate checks the required fields and the numeric ones. Missing fields
// are reported as a *MissingFieldsError.
func (f RunAutoMLState) Validate() error {
	if fields := missingFields(f); len(fields) > 0 {
		return &MissingFieldsError{Fields: fields}
	}
	if _, err := scenario.ParseNumber("timeLimit", f.TimeLimit); err != nil {
		return err
	}
	if size := f.appSize(); size != nil {
		if _, err := scenario.ParseNumber("appSize", *size); err != nil {
			return err
		}
	}
	return nil
}

// Request turns a validated form into a populator request for runDirectory
func (f RunAutoMLState) Request(runDirectory string) scenario.RunRequest {
	return scenario.RunRequest{
		RunDirectory: runDirectory,
		Platform:     f.Platform,
		Optimizer:    f.Optimizer,
		DatasetPath:  f.DatasetPath,
		TimeLimit:    f.TimeLimit,
		AppSize:      f.appSize(),
		Simulate:     f.Simulate,
	}
}
