package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks if settings are usable
func Validate(settings *Settings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
